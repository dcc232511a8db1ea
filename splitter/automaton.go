package splitter

import (
	"rorsplit/game"
	"rorsplit/timer"
)

// Action is a timer command
type Action int

const (
	None Action = iota
	Start
	Split
	Reset
	PauseGameTime
	ResumeGameTime
)

func (a Action) String() string {
	switch a {
	case Start:
		return "start"
	case Split:
		return "split"
	case Reset:
		return "reset"
	case PauseGameTime:
		return "pause_game_time"
	case ResumeGameTime:
		return "resume_game_time"
	}
	return "none"
}

// Permissions enables the three kinds of timer control
type Permissions struct {
	Start bool `yaml:"start" env:"START"`
	Split bool `yaml:"split" env:"SPLIT"`
	Reset bool `yaml:"reset" env:"RESET"`
}

// Automaton holds the settings and the one bit of memory carried between
// ticks of an attach session
type Automaton struct {
	Permissions Permissions
	Policy      Policy
	wasLoading  bool
}

func New(perm Permissions, policy Policy) *Automaton {
	return &Automaton{Permissions: perm, Policy: policy}
}

// Loading reports the loading state of the last tick
func (a *Automaton) Loading() bool {
	return a.wasLoading
}

// Step evaluates one tick. A reset ends the tick, so no other action is
// returned with it, but the loading memory still follows the fade.
func (a *Automaton) Step(phase timer.Phase, s *game.State) []Action {
	switch phase {
	case timer.NotRunning:
		if a.Permissions.Start && ShouldStart(s) {
			return []Action{Start}
		}
		return nil

	case timer.Running, timer.Paused:
		if a.Permissions.Reset && ShouldReset(s) {
			a.wasLoading = IsLoading(s, a.wasLoading)
			return []Action{Reset}
		}

		var actions []Action
		if a.Permissions.Split && ShouldSplit(s, a.Policy) {
			actions = append(actions, Split)
		}

		loading := IsLoading(s, a.wasLoading)
		switch {
		case loading && !a.wasLoading:
			actions = append(actions, PauseGameTime)
		case !loading && a.wasLoading:
			actions = append(actions, ResumeGameTime)
		}
		a.wasLoading = loading
		return actions
	}
	return nil
}

// Dispatch sends actions to t in order
func Dispatch(t timer.Timer, actions []Action) {
	for _, action := range actions {
		switch action {
		case Start:
			t.Start()
		case Split:
			t.Split()
		case Reset:
			t.Reset()
		case PauseGameTime:
			t.PauseGameTime()
		case ResumeGameTime:
			t.ResumeGameTime()
		}
	}
}
