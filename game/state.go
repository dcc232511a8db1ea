// Package game turns the memory of a running Risk of Rain 2 into the four
// readings the splitter works from
package game

import (
	"math"
	"strconv"

	"rorsplit/watcher"
)

// Telemetry keys and the markers published for absent readings
const (
	VarAlpha      = "alpha"
	VarStageCount = "stageClearCount"
	VarResults    = "shouldDisplayGameEndReportPanels"
	VarScene      = "scene name"

	Invalid        = "[invalid]"
	InvalidCounter = "[Invalid]"
)

// VariableSink receives the readings for display
type VariableSink interface {
	SetVariable(key, value string)
}

// SceneSource reads the name of the active scene
type SceneSource interface {
	CurrentSceneName() (string, error)
}

// State holds the watched readings. Each watcher is updated on its own and
// may be valid while the others are not.
type State struct {
	// FadeToBlackManager.alpha: 0 in game, rises to 2 while fading out
	Fade watcher.OrderedWatcher[float32]
	// Run.stageClearCount
	StageCount watcher.OrderedWatcher[int32]
	// GameOverController.shouldDisplayGameEndReportPanels
	Results watcher.Watcher[bool]
	// active scene name, at most 16 bytes
	Scene watcher.Watcher[string]
}

// UpdateScene records the active scene. Reads fail for the whole of a scene
// load, so a failure keeps the last pair instead of clearing it.
func (s *State) UpdateScene(src SceneSource) {
	if name, err := src.CurrentSceneName(); err == nil {
		s.Scene.Update(name, true)
	}
}

// Publish sends the current readings to the sink
func (s *State) Publish(sink VariableSink) {
	if v, ok := s.Fade.Current(); ok {
		sink.SetVariable(VarAlpha, formatFloat(v))
	} else {
		sink.SetVariable(VarAlpha, Invalid)
	}

	if v, ok := s.StageCount.Current(); ok {
		sink.SetVariable(VarStageCount, strconv.FormatInt(int64(v), 10))
	} else {
		sink.SetVariable(VarStageCount, InvalidCounter)
	}

	if v, ok := s.Results.Current(); ok {
		sink.SetVariable(VarResults, strconv.FormatBool(v))
	} else {
		sink.SetVariable(VarResults, Invalid)
	}

	if v, ok := s.Scene.Current(); ok {
		sink.SetVariable(VarScene, strconv.Quote(v))
	} else {
		sink.SetVariable(VarScene, Invalid)
	}
}

// formatFloat always shows a fractional part, so 1 reads "1.0"
func formatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if f := float64(v); !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) {
		s += ".0"
	}
	return s
}
