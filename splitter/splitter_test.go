package splitter

import (
	"testing"

	"rorsplit/game"
	"rorsplit/timer"
	"rorsplit/watcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick is one reading of every watched value; nil leaves the watcher absent
type tick struct {
	fade    *float32
	count   *int32
	results *bool
	scene   *string
}

func f32(v float32) *float32 { return &v }
func i32(v int32) *int32     { return &v }
func flag(v bool) *bool      { return &v }
func name(v string) *string  { return &v }

func feed(s *game.State, t tick) {
	update(&s.Fade.Watcher, t.fade)
	update(&s.StageCount.Watcher, t.count)
	update(&s.Results, t.results)
	// scene reads keep their last value on failure
	if t.scene != nil {
		s.Scene.Update(*t.scene, true)
	}
}

func update[T comparable](w *watcher.Watcher[T], v *T) {
	if v == nil {
		var zero T
		w.Update(zero, false)
		return
	}
	w.Update(*v, true)
}

func stateOf(ticks ...tick) *game.State {
	s := &game.State{}
	for _, t := range ticks {
		feed(s, t)
	}
	return s
}

func fades(vs ...float32) *game.State {
	s := &game.State{}
	for _, v := range vs {
		s.Fade.Update(v, true)
	}
	return s
}

func TestIsLoading_FollowsFade(t *testing.T) {
	assert.True(t, IsLoading(fades(0.5, 0.8), false))
	assert.False(t, IsLoading(fades(0.8, 0.3), true))
	assert.False(t, IsLoading(fades(0, 0), true))
	assert.True(t, IsLoading(fades(1, 1), true))
	assert.False(t, IsLoading(fades(1, 1), false))
}

func TestIsLoading_AbsentKeepsPrevious(t *testing.T) {
	assert.True(t, IsLoading(&game.State{}, true))
	assert.False(t, IsLoading(&game.State{}, false))
}

func TestShouldStart_FadeInOnFirstStage(t *testing.T) {
	s := stateOf(
		tick{fade: f32(1.2), scene: name("golemplains")},
		tick{fade: f32(0.9), scene: name("golemplains")},
	)
	assert.True(t, ShouldStart(s))

	s = stateOf(
		tick{fade: f32(0.9), scene: name("golemplains")},
		tick{fade: f32(1.2), scene: name("golemplains")},
	)
	assert.False(t, ShouldStart(s))
}

func TestShouldStart_PrefixAndSceneRules(t *testing.T) {
	s := stateOf(
		tick{fade: f32(1), scene: name("golemplains2")},
		tick{fade: f32(0.5), scene: name("golemplains2")},
	)
	assert.True(t, ShouldStart(s), "variants of a first stage start")

	s = stateOf(
		tick{fade: f32(1), scene: name("foggyswamp")},
		tick{fade: f32(0.5), scene: name("foggyswamp")},
	)
	assert.False(t, ShouldStart(s))

	s = stateOf(tick{fade: f32(1.2)}, tick{fade: f32(0.9)})
	assert.False(t, ShouldStart(s), "no scene read yet")
}

func TestShouldReset_MenuScenes(t *testing.T) {
	for _, scene := range []string{"lobby", "title", "crystalworld", "eclipseworld", "infinitetowerworld"} {
		assert.True(t, ShouldReset(stateOf(tick{scene: name(scene)})), scene)
	}
	assert.False(t, ShouldReset(stateOf(tick{scene: name("golemplains")})))
	assert.False(t, ShouldReset(&game.State{}))
}

func TestShouldSplit_StageClear(t *testing.T) {
	s := stateOf(tick{count: i32(1)}, tick{count: i32(2)})
	assert.True(t, ShouldSplit(s, Policy{}))
	assert.False(t, ShouldSplit(s, Policy{Fin: true}))

	s = stateOf(tick{count: i32(0)}, tick{count: i32(0)})
	assert.False(t, ShouldSplit(s, Policy{}))
}

func TestShouldSplit_CountAfterGapIsNoEdge(t *testing.T) {
	s := stateOf(tick{count: i32(1)}, tick{}, tick{count: i32(2)})
	assert.False(t, ShouldSplit(s, Policy{}))
}

func TestShouldSplit_LeavingSpecialScenes(t *testing.T) {
	s := stateOf(tick{scene: name("bazaar")}, tick{scene: name("goldshores")})
	assert.True(t, ShouldSplit(s, Policy{Bazaar: true}))
	assert.False(t, ShouldSplit(s, Policy{}))

	s = stateOf(tick{scene: name("goldshores")}, tick{scene: name("wispgraveyard")})
	assert.True(t, ShouldSplit(s, Policy{Goldshores: true}))
	assert.False(t, ShouldSplit(s, Policy{Bazaar: true}))

	s = stateOf(tick{scene: name("arena")}, tick{scene: name("frozenwall")})
	assert.True(t, ShouldSplit(s, Policy{Arena: true}))

	s = stateOf(tick{scene: name("artifactworld")}, tick{scene: name("lobby")})
	assert.True(t, ShouldSplit(s, Policy{Artifactworld: true}))

	s = stateOf(tick{scene: name("outro")}, tick{scene: name("title")})
	assert.True(t, ShouldSplit(s, Policy{}), "leaving the outro always splits")

	s = stateOf(tick{scene: name("bazaar")}, tick{scene: name("bazaar")})
	assert.False(t, ShouldSplit(s, Policy{Bazaar: true}))
}

func TestShouldSplit_ResultsPanel(t *testing.T) {
	for _, scene := range []string{"limbo", "mysteryspace", "voidraid"} {
		s := stateOf(
			tick{results: flag(false), scene: name(scene)},
			tick{results: flag(true), scene: name(scene)},
		)
		assert.True(t, ShouldSplit(s, Policy{Fin: true}), scene)
	}

	s := stateOf(
		tick{results: flag(false), scene: name("golemplains")},
		tick{results: flag(true), scene: name("golemplains")},
	)
	assert.False(t, ShouldSplit(s, Policy{}), "dying on a stage is not a run end")

	s = stateOf(
		tick{results: flag(true), scene: name("limbo")},
		tick{results: flag(true), scene: name("limbo")},
	)
	assert.False(t, ShouldSplit(s, Policy{}))
}

func allowAll() Permissions {
	return Permissions{Start: true, Split: true, Reset: true}
}

func TestAutomaton_StartOnlyWhenNotRunning(t *testing.T) {
	s := stateOf(
		tick{fade: f32(1.2), scene: name("blackbeach")},
		tick{fade: f32(0.9), scene: name("blackbeach")},
	)

	a := New(allowAll(), Policy{})
	assert.Equal(t, []Action{Start}, a.Step(timer.NotRunning, s))

	a = New(Permissions{Split: true, Reset: true}, Policy{})
	assert.Empty(t, a.Step(timer.NotRunning, s))
}

func TestAutomaton_ResetEndsTick(t *testing.T) {
	s := stateOf(
		tick{fade: f32(0.2), count: i32(1), scene: name("bazaar")},
		tick{fade: f32(0.8), count: i32(2), scene: name("lobby")},
	)
	a := New(allowAll(), Policy{Bazaar: true})
	assert.Equal(t, []Action{Reset}, a.Step(timer.Running, s))
	assert.True(t, a.Loading(), "loading memory follows the fade on reset")

	a = New(Permissions{Split: true}, Policy{Bazaar: true})
	assert.Equal(t, []Action{Split, PauseGameTime}, a.Step(timer.Running, s))
}

func TestAutomaton_LoadingTrackedThroughReset(t *testing.T) {
	s := &game.State{}
	a := New(allowAll(), Policy{})

	feed(s, tick{fade: f32(0.5), scene: name("lobby")})
	feed(s, tick{fade: f32(0.8), scene: name("lobby")})
	assert.Equal(t, []Action{Reset}, a.Step(timer.Running, s))
	require.True(t, a.Loading())

	// the fade clears after the reset; the edge out of loading is still seen
	feed(s, tick{fade: f32(0.3), scene: name("golemplains")})
	assert.Equal(t, []Action{ResumeGameTime}, a.Step(timer.Running, s))
	assert.False(t, a.Loading())
}

func TestAutomaton_SplitThenLoadingEdges(t *testing.T) {
	s := &game.State{}
	a := New(allowAll(), Policy{})

	feed(s, tick{fade: f32(0), count: i32(1), scene: name("golemplains")})
	assert.Empty(t, a.Step(timer.Running, s))

	feed(s, tick{fade: f32(0.4), count: i32(2), scene: name("golemplains")})
	assert.Equal(t, []Action{Split, PauseGameTime}, a.Step(timer.Running, s))
	assert.True(t, a.Loading())

	feed(s, tick{fade: f32(2), count: i32(2), scene: name("golemplains")})
	assert.Empty(t, a.Step(timer.Running, s))

	feed(s, tick{fade: f32(2), count: i32(2), scene: name("goolake")})
	assert.Empty(t, a.Step(timer.Paused, s))

	feed(s, tick{fade: f32(1.5), count: i32(2), scene: name("goolake")})
	assert.Equal(t, []Action{ResumeGameTime}, a.Step(timer.Paused, s))
	assert.False(t, a.Loading())
}

func TestAutomaton_EndedAndUnknownDoNothing(t *testing.T) {
	s := stateOf(
		tick{fade: f32(0.5), count: i32(1), scene: name("lobby")},
		tick{fade: f32(0.9), count: i32(2), scene: name("lobby")},
	)
	a := New(allowAll(), Policy{})
	assert.Empty(t, a.Step(timer.Ended, s))
	assert.Empty(t, a.Step(timer.Unknown, s))
	assert.False(t, a.Loading())
}

func TestAutomaton_SplitPermission(t *testing.T) {
	s := stateOf(tick{count: i32(1)}, tick{count: i32(2)})
	a := New(Permissions{Start: true, Reset: true}, Policy{})
	assert.Empty(t, a.Step(timer.Running, s))
}

func TestDispatch_DrivesTimer(t *testing.T) {
	local := timer.NewLocal(0)

	Dispatch(local, []Action{Start})
	require.Equal(t, timer.Running, local.Phase())

	Dispatch(local, []Action{Split, PauseGameTime})
	assert.Equal(t, 1, local.Splits())
	assert.True(t, local.GameTimePaused())

	Dispatch(local, []Action{ResumeGameTime})
	assert.False(t, local.GameTimePaused())

	Dispatch(local, []Action{Reset})
	assert.Equal(t, timer.NotRunning, local.Phase())
	assert.Zero(t, local.Splits())

	Dispatch(local, []Action{None})
	assert.Equal(t, timer.NotRunning, local.Phase())
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "pause_game_time", PauseGameTime.String())
	assert.Equal(t, "none", None.String())
}
