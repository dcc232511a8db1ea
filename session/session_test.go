package session

import (
	"context"
	"errors"
	"math"
	"testing"

	"rorsplit/game"
	"rorsplit/mono"
	"rorsplit/process"
	"rorsplit/process_blob"
	"rorsplit/splitter"
	"rorsplit/telemetry"
	"rorsplit/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fadeStatics = 0x400000
	runStatics  = 0x400100
	overStatics = 0x400200
	runObject   = 0x500100
	overObject  = 0x500200
)

var errStop = errors.New("script finished")

// script runs one step per tick and stops when it runs out
type script struct {
	steps []func()
	calls int
}

func (s *script) Next(ctx context.Context) error {
	if s.calls >= len(s.steps) {
		return errStop
	}
	step := s.steps[s.calls]
	s.calls++
	if step != nil {
		step()
	}
	return nil
}

type stubClass struct {
	fields  map[string]uint64
	statics process.ProcessMemoryAddress
}

func (c *stubClass) Name() string { return "" }

func (c *stubClass) Field(name string) (uint64, bool) {
	off, ok := c.fields[name]
	return off, ok
}

func (c *stubClass) StaticTable() (process.ProcessMemoryAddress, bool) {
	return c.statics, true
}

type stubImage struct {
	name    string
	classes map[string]*stubClass
}

func (img *stubImage) Name() string { return img.name }

func (img *stubImage) Class(name string) (mono.Class, bool) {
	c, ok := img.classes[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// stubRuntime only has the default image, like builds before RoR2.dll
type stubRuntime struct {
	image *stubImage
}

func (rt *stubRuntime) Image(name string) (mono.Image, bool) {
	return nil, false
}

func (rt *stubRuntime) DefaultImage() (mono.Image, bool) {
	return rt.image, true
}

type stubScenes struct {
	name string
}

func (s *stubScenes) CurrentSceneName() (string, error) {
	return s.name, nil
}

type recorder struct {
	actions  []string
	sessions int
}

func (r *recorder) CountAction(action string) { r.actions = append(r.actions, action) }
func (r *recorder) CountSession()             { r.sessions++ }

type fakeGame struct {
	dump    *process_blob.ProcessDump
	statics *process_blob.Region
	heap    *process_blob.Region
	scenes  *stubScenes
	runtime *stubRuntime
}

func newFakeGame() *fakeGame {
	s := process_blob.NewRegion(0x400000, 0x1000)
	s.PutUint64(runStatics, runObject)
	s.PutUint64(overStatics, overObject)
	h := process_blob.NewRegion(0x500000, 0x1000)

	dump := process_blob.NewProcessDump()
	dump.MapRegion(s, "rw-p", "")
	dump.MapRegion(h, "rw-p", "")

	instance := "<instance>k__BackingField"
	return &fakeGame{
		dump:    dump,
		statics: s,
		heap:    h,
		scenes:  &stubScenes{},
		runtime: &stubRuntime{image: &stubImage{
			name: mono.DefaultImageName,
			classes: map[string]*stubClass{
				game.FadeToBlackManager: {fields: map[string]uint64{"alpha": 0x10}, statics: fadeStatics},
				game.Run:                {fields: map[string]uint64{instance: 0, "stageClearCount": 0x48}, statics: runStatics},
				game.GameOverController: {fields: map[string]uint64{instance: 0, "<shouldDisplayGameEndReportPanels>k__BackingField": 0x90}, statics: overStatics},
			},
		}},
	}
}

func (f *fakeGame) fade(v float32) {
	f.statics.PutUint32(fadeStatics+0x10, math.Float32bits(v))
}

func (f *fakeGame) stage(n uint32) {
	f.heap.PutUint32(runObject+0x48, n)
}

func (f *fakeGame) scene(name string) {
	f.scenes.name = name
}

// newSession wires a session to the fake game. The runtime shows up on the
// second attempt.
func (f *fakeGame) newSession(sched *script, t timer.Timer, sink game.VariableSink, obs Observer, opts Options) *Session {
	s := New(f.dump, sched, t, sink, obs, opts)
	attempts := 0
	s.attachRuntime = func(process.Process) (mono.Runtime, error) {
		attempts++
		if attempts == 1 {
			return nil, process.ErrModuleNotFound
		}
		return f.runtime, nil
	}
	s.findScenes = func(process.Process) (game.SceneSource, error) {
		return f.scenes, nil
	}
	return s
}

func allowAll() Options {
	return Options{
		Permissions: splitter.Permissions{Start: true, Split: true, Reset: true},
		Policy:      splitter.Policy{Bazaar: true},
	}
}

func TestSession_FullRun(t *testing.T) {
	f := newFakeGame()
	f.fade(1.2)

	sched := &script{}
	sched.steps = []func(){
		// runtime not loaded yet
		nil,
		// first scene
		func() { f.scene("golemplains") },
		// fade in starts the timer
		func() { f.fade(0.9) },
		func() { f.fade(0) },
		// stage clear and fade out
		func() {
			f.stage(1)
			f.fade(0.5)
		},
		func() {
			f.fade(0)
			f.scene("goolake")
		},
		func() { f.scene("lobby") },
		func() { f.dump.Exit() },
	}

	local := timer.NewLocal(0)
	reg := telemetry.NewRegistry()
	obs := &recorder{}
	s := f.newSession(sched, local, reg, obs, allowAll())

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrProcessExited)

	assert.Equal(t, []string{"start", "split", "pause_game_time", "resume_game_time", "reset"}, obs.actions)
	assert.Equal(t, timer.NotRunning, local.Phase())
	assert.False(t, local.GameTimePaused())

	scene, _ := reg.Variable(game.VarScene)
	assert.Equal(t, `"lobby"`, scene)
	count, _ := reg.Variable(game.VarStageCount)
	assert.Equal(t, "1", count)
	results, _ := reg.Variable(game.VarResults)
	assert.Equal(t, "false", results)
}

func TestSession_NoPermissionsNoActions(t *testing.T) {
	f := newFakeGame()
	f.fade(1.2)
	f.scene("golemplains")

	sched := &script{steps: []func(){
		nil,
		func() { f.fade(0.5) },
		func() { f.stage(1) },
	}}
	local := timer.NewLocal(0)
	obs := &recorder{}
	s := f.newSession(sched, local, telemetry.NewRegistry(), obs, Options{})

	err := s.Run(context.Background())
	require.ErrorIs(t, err, errStop)
	assert.Empty(t, obs.actions)
	assert.Equal(t, timer.NotRunning, local.Phase())

	count, ok := s.State().StageCount.Current()
	require.True(t, ok)
	assert.Equal(t, int32(1), count)
}

func TestSession_ExitDuringBootstrap(t *testing.T) {
	f := newFakeGame()
	f.dump.Exit()

	sched := &script{steps: []func(){nil, nil}}
	s := f.newSession(sched, timer.NewLocal(0), telemetry.NewRegistry(), nil, allowAll())

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrProcessExited)
	assert.Zero(t, sched.calls)
}

func TestSession_CancelledWhileWaiting(t *testing.T) {
	f := newFakeGame()
	// no scene is ever loaded
	sched := &script{steps: []func(){nil, nil, nil}}
	s := f.newSession(sched, timer.NewLocal(0), telemetry.NewRegistry(), nil, allowAll())

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStop)
	assert.NotErrorIs(t, err, ErrProcessExited)
	assert.Contains(t, err.Error(), "first scene")
}

func TestSession_PublishesInvalidBeforeRun(t *testing.T) {
	f := newFakeGame()
	f.scene("title")
	// Run has no instance on the title screen
	f.statics.PutUint64(runStatics, 0)

	sched := &script{steps: []func(){nil}}
	reg := telemetry.NewRegistry()
	s := f.newSession(sched, timer.NewLocal(0), reg, nil, allowAll())

	require.ErrorIs(t, s.Run(context.Background()), errStop)
	count, _ := reg.Variable(game.VarStageCount)
	assert.Equal(t, game.InvalidCounter, count)
	alpha, _ := reg.Variable(game.VarAlpha)
	assert.Equal(t, "0.0", alpha)
}

// opener hands out prepared processes in order
type opener struct {
	procs []process.Process
	calls int
}

func (o *opener) OpenProcessByName(name string) (process.Process, error) {
	o.calls++
	if len(o.procs) == 0 {
		return nil, process.ErrProcessNotOpen
	}
	p := o.procs[0]
	o.procs = o.procs[1:]
	return p, nil
}

func (o *opener) NewWithPID(pid process.ProcessID) (process.Process, error) {
	return nil, process.ErrProcessNotOpen
}

func TestRunner_ReattachesAfterExit(t *testing.T) {
	first := process_blob.NewProcessDump()
	first.PID = 100
	first.Exit()
	second := process_blob.NewProcessDump()
	second.PID = 200
	second.Exit()

	op := &opener{procs: []process.Process{first, second}}
	sched := &script{steps: []func(){nil, nil}}
	obs := &recorder{}

	r := NewRunner(op, "Risk of Rain 2.exe", sched, timer.NewLocal(0), telemetry.NewRegistry(), obs, allowAll())
	err := r.Run(context.Background())

	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 2, obs.sessions)
	// two attaches, then one failed open per tick until the script ends
	assert.Equal(t, 5, op.calls)
}
