package game

import (
	"errors"

	"rorsplit/mono"
	"rorsplit/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ImageName is the assembly holding the game code since Survivors of the
// Void; older builds keep it in Assembly-CSharp
const ImageName = "RoR2"

const (
	FadeToBlackManager = "FadeToBlackManager"
	Run                = "Run"
	GameOverController = "GameOverController"
)

var (
	fieldAlpha      = mono.NewField("alpha")
	fieldInstance   = mono.NewField("<instance>k__BackingField", "instance")
	fieldStageCount = mono.NewField("stageClearCount")
	fieldResults    = mono.NewField("<shouldDisplayGameEndReportPanels>k__BackingField", "shouldDisplayGameEndReportPanels")
)

var errUnresolved = errors.New("field location not resolved")

// tracked is one class handle and the pointer path derived from it
type tracked struct {
	handle *mono.ClassHandle
	build  func(*mono.Resolved) process.PointerPath
	path   *process.PointerPath
}

// Locator owns the class handles and field paths of one attached process
type Locator struct {
	proc     process.Process
	log      *logger.Logger
	fade     tracked
	run      tracked
	gameOver tracked
}

// NewLocator creates unresolved handles for the tracked classes of img
func NewLocator(proc process.Process, img mono.Image) *Locator {
	return &Locator{
		proc: proc,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "locator")),
		// a static float read straight out of the static table
		fade: tracked{
			handle: mono.NewClassHandle(img, FadeToBlackManager, fieldAlpha),
			build: func(r *mono.Resolved) process.PointerPath {
				return process.NewPointerPath(r.StaticTable.Add(r.Offset(fieldAlpha.Key)), 0)
			},
		},
		// static singleton -> instance -> field
		run: tracked{
			handle: mono.NewClassHandle(img, Run, fieldInstance, fieldStageCount),
			build:  singletonField(fieldStageCount),
		},
		gameOver: tracked{
			handle: mono.NewClassHandle(img, GameOverController, fieldInstance, fieldResults),
			build:  singletonField(fieldResults),
		},
	}
}

func singletonField(field mono.Field) func(*mono.Resolved) process.PointerPath {
	return func(r *mono.Resolved) process.PointerPath {
		return process.NewPointerPath(
			r.StaticTable.Add(r.Offset(fieldInstance.Key)),
			0,
			process.ProcessMemorySize(r.Offset(field.Key)),
		)
	}
}

// Refresh attempts to resolve every handle that has no path yet
func (l *Locator) Refresh() {
	for _, t := range l.all() {
		if t.path != nil {
			continue
		}
		r, ok := t.handle.Resolve()
		if !ok {
			continue
		}
		p := t.build(r)
		t.path = &p
		l.log.Infoln("Resolved", t.handle.Name(), "at", p.String())
	}
}

// Resolved reports whether every tracked path is known
func (l *Locator) Resolved() bool {
	for _, t := range l.all() {
		if t.path == nil {
			return false
		}
	}
	return true
}

// Paths returns the resolved paths by class name
func (l *Locator) Paths() map[string]process.PointerPath {
	out := make(map[string]process.PointerPath)
	for _, t := range l.all() {
		if t.path != nil {
			out[t.handle.Name()] = *t.path
		}
	}
	return out
}

// Update reads the tracked fields into the state's watchers
func (l *Locator) Update(s *State) {
	s.Fade.UpdateFrom(read[float32](l, &l.fade))
	s.StageCount.UpdateFrom(read[int32](l, &l.run))
	s.Results.UpdateFrom(read[bool](l, &l.gameOver))
}

func (l *Locator) all() []*tracked {
	return []*tracked{&l.fade, &l.run, &l.gameOver}
}

// read follows the path of t. When the first location of the path is itself
// unreadable the static table has moved, so the handle is dropped and
// resolved again; any other failure only withholds this reading.
func read[T any](l *Locator, t *tracked) (T, error) {
	var zero T
	if t.path == nil {
		return zero, errUnresolved
	}
	v, err := process.ReadPointerPath[T](l.proc, *t.path)
	if err == nil {
		return v, nil
	}
	if _, baseErr := process.Read[byte](l.proc, t.path.Base); baseErr != nil {
		l.log.Debugln("Static table of", t.handle.Name(), "unreadable, resolving again:", baseErr)
		t.handle.Invalidate()
		t.path = nil
	}
	return zero, err
}
