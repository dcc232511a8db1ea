// Package splitter decides which timer action a tick of game state calls for
package splitter

import (
	"slices"
	"strings"

	"rorsplit/game"
)

// first stages of a run, matched by prefix so variants count
var startScenes = []string{"golemplains", "blackbeach", "snowyforest"}

// menus and lobbies; reaching one ends the attempt
var resetScenes = []string{"lobby", "title", "crystalworld", "eclipseworld", "infinitetowerworld"}

// the results panel only ends a run in these scenes
var resultsScenes = []string{"limbo", "mysteryspace", "voidraid"}

const sceneOutro = "outro"

// fade level above which the screen is fully black
const fadeOpaque = 1.0

// Policy selects the optional split points
type Policy struct {
	Bazaar        bool `yaml:"bazaar" env:"BAZAAR"`
	Arena         bool `yaml:"arena" env:"ARENA"`
	Goldshores    bool `yaml:"goldshores" env:"GOLDSHORES"`
	Artifactworld bool `yaml:"artifactworld" env:"ARTIFACTWORLD"`
	// Fin splits only on the special scenes, not on stage clears
	Fin bool `yaml:"fin" env:"FIN"`
}

// leaving reports whether leaving scene is a split point under p
func (p Policy) leaving(scene string) bool {
	switch scene {
	case sceneOutro:
		return true
	case "bazaar":
		return p.Bazaar
	case "arena":
		return p.Arena
	case "goldshores":
		return p.Goldshores
	case "artifactworld":
		return p.Artifactworld
	}
	return false
}

// ShouldStart reports a fade in on a first stage
func ShouldStart(s *game.State) bool {
	scene, ok := s.Scene.Current()
	if !ok {
		return false
	}
	fade, ok := s.Fade.Pair()
	if !ok {
		return false
	}
	if !slices.ContainsFunc(startScenes, func(prefix string) bool {
		return strings.HasPrefix(scene, prefix)
	}) {
		return false
	}
	return fade.Current < fadeOpaque && fade.Old >= fadeOpaque
}

// ShouldReset reports the player back in a menu or lobby
func ShouldReset(s *game.State) bool {
	scene, ok := s.Scene.Current()
	return ok && slices.Contains(resetScenes, scene)
}

// ShouldSplit reports a stage clear, leaving a split scene, or the end of
// run panel in a final scene
func ShouldSplit(s *game.State, p Policy) bool {
	if !p.Fin {
		if count, ok := s.StageCount.Current(); ok && count >= 1 && s.StageCount.Increased() {
			return true
		}
	}

	if s.Scene.Changed() {
		scene, _ := s.Scene.Pair()
		if p.leaving(scene.Old) {
			return true
		}
	}

	if s.Results.ChangedTo(true) {
		scene, ok := s.Scene.Current()
		if ok && slices.Contains(resultsScenes, scene) {
			return true
		}
	}
	return false
}

// IsLoading follows the fade: rising means a load screen, falling or clear
// means play. An unchanged or missing fade keeps the previous answer.
func IsLoading(s *game.State, was bool) bool {
	fade, ok := s.Fade.Current()
	if !ok {
		return was
	}
	switch {
	case s.Fade.Increased():
		return true
	case s.Fade.Decreased() && fade > 0, fade == 0:
		return false
	}
	return was
}
