// Package session runs the splitter against one attached game process and
// re-attaches whenever the game restarts
package session

import (
	"context"
	"errors"
	"fmt"

	"rorsplit/game"
	"rorsplit/mono"
	"rorsplit/process"
	"rorsplit/splitter"
	"rorsplit/tick"
	"rorsplit/timer"
	"rorsplit/unity"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ErrProcessExited ends a session when the target goes away
var ErrProcessExited = errors.New("target process exited")

var errNoImage = errors.New("game image not loaded")

// Observer counts what a session does. Optional.
type Observer interface {
	CountAction(action string)
	CountSession()
}

// Options are the settings a session runs with
type Options struct {
	Permissions splitter.Permissions
	Policy      splitter.Policy
	// ticks between memory map refreshes, 0 disables
	MapRefreshTicks int
}

// Session is the state of one attach. Nothing survives into the next one.
type Session struct {
	proc     process.Process
	sched    tick.Scheduler
	timer    timer.Timer
	sink     game.VariableSink
	observer Observer
	opts     Options
	log      *logger.Logger

	attachRuntime func(process.Process) (mono.Runtime, error)
	findScenes    func(process.Process) (game.SceneSource, error)

	state     game.State
	automaton *splitter.Automaton
	scenes    game.SceneSource
	locator   *game.Locator
	ticks     int
}

func New(proc process.Process, sched tick.Scheduler, t timer.Timer, sink game.VariableSink, observer Observer, opts Options) *Session {
	return &Session{
		proc:     proc,
		sched:    sched,
		timer:    t,
		sink:     sink,
		observer: observer,
		opts:     opts,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "session")),

		attachRuntime: func(p process.Process) (mono.Runtime, error) {
			m, err := mono.Attach(p, mono.V2)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		findScenes: func(p process.Process) (game.SceneSource, error) {
			sm, err := unity.NewSceneManager(p)
			if err != nil {
				return nil, err
			}
			return sm, nil
		},
		automaton: splitter.New(opts.Permissions, opts.Policy),
	}
}

// Run bootstraps and then ticks until the process exits or ctx is done
func (s *Session) Run(ctx context.Context) error {
	if err := s.bootstrap(ctx); err != nil {
		return err
	}
	for {
		if !s.proc.IsRunning() {
			return ErrProcessExited
		}
		s.Tick()
		if err := s.sched.Next(ctx); err != nil {
			return err
		}
	}
}

// bootstrap waits for the runtime, then the scene manager, then a first
// scene, then the game image
func (s *Session) bootstrap(ctx context.Context) error {
	rt, err := wait(ctx, s, "mono runtime", func() (mono.Runtime, error) {
		return s.attachRuntime(s.proc)
	})
	if err != nil {
		return err
	}

	s.scenes, err = wait(ctx, s, "scene manager", func() (game.SceneSource, error) {
		return s.findScenes(s.proc)
	})
	if err != nil {
		return err
	}

	scene, err := wait(ctx, s, "first scene", func() (string, error) {
		name, err := s.scenes.CurrentSceneName()
		if err == nil && name == "" {
			err = errors.New("empty scene name")
		}
		return name, err
	})
	if err != nil {
		return err
	}
	s.state.Scene.Update(scene, true)

	img, err := wait(ctx, s, "game image", func() (mono.Image, error) {
		img, ok := mono.ImageOrDefault(rt, game.ImageName)
		if !ok {
			return nil, errNoImage
		}
		return img, nil
	})
	if err != nil {
		return err
	}
	s.log.Infoln("Using image", img.Name())

	s.locator = game.NewLocator(s.proc, img)
	return nil
}

// Tick is one pass: resolve, read, decide, act
func (s *Session) Tick() {
	if s.opts.MapRefreshTicks > 0 && s.ticks > 0 && s.ticks%s.opts.MapRefreshTicks == 0 {
		if err := s.proc.UpdateMemoryMap(); err != nil {
			s.log.Debugln("Memory map refresh failed:", err)
		}
	}
	s.ticks++

	s.locator.Refresh()
	s.locator.Update(&s.state)
	s.state.UpdateScene(s.scenes)
	s.state.Publish(s.sink)

	actions := s.automaton.Step(s.timer.Phase(), &s.state)
	for _, action := range actions {
		s.log.Infoln("Timer", action)
		if s.observer != nil {
			s.observer.CountAction(action.String())
		}
	}
	splitter.Dispatch(s.timer, actions)
}

// State is the readings of the last tick
func (s *Session) State() *game.State {
	return &s.state
}

// wait retries probe once per tick with a fresh memory map. It gives up
// with ErrProcessExited when the target goes away.
func wait[T any](ctx context.Context, s *Session, what string, probe func() (T, error)) (T, error) {
	var (
		zero    T
		exited  bool
		lastErr string
	)
	v, err := tick.Retry(ctx, s.sched, func() (T, bool) {
		if !s.proc.IsRunning() {
			exited = true
			return zero, true
		}
		if err := s.proc.UpdateMemoryMap(); err != nil {
			s.log.Debugln("Memory map refresh failed:", err)
		}
		v, err := probe()
		if err != nil {
			if msg := err.Error(); msg != lastErr {
				s.log.Debugln("Waiting for", what+":", msg)
				lastErr = msg
			}
			return zero, false
		}
		return v, true
	})
	if err != nil {
		return zero, fmt.Errorf("wait for %s: %w", what, err)
	}
	if exited {
		return zero, ErrProcessExited
	}
	s.log.Infoln("Found", what)
	return v, nil
}
