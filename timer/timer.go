// Package timer is the host timer the splitter drives
package timer

import "strings"

// Phase is the state of the host timer
type Phase int

const (
	NotRunning Phase = iota
	Running
	Paused
	Ended
	Unknown
)

func (p Phase) String() string {
	switch p {
	case NotRunning:
		return "NotRunning"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Ended:
		return "Ended"
	}
	return "Unknown"
}

// ParsePhase reads the phase names used by LiveSplit
func ParsePhase(s string) Phase {
	switch strings.TrimSpace(s) {
	case "NotRunning":
		return NotRunning
	case "Running":
		return Running
	case "Paused":
		return Paused
	case "Ended":
		return Ended
	}
	return Unknown
}

// Timer is the host timer. Commands are fire and forget.
type Timer interface {
	Phase() Phase
	Start()
	Split()
	Reset()
	PauseGameTime()
	ResumeGameTime()
}
