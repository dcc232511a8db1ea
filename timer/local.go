package timer

import (
	"sync"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var _ Timer = (*Local)(nil)

// Local is an in-process timer that follows the phase rules of LiveSplit
// and logs every command. Segments > 0 ends the run on the last split.
type Local struct {
	mu             sync.Mutex
	log            *logger.Logger
	phase          Phase
	splits         int
	gameTimePaused bool
	Segments       int
}

func NewLocal(segments int) *Local {
	return &Local{
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "timer")),
		Segments: segments,
	}
}

func (t *Local) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Splits is the number of splits in the current run
func (t *Local) Splits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.splits
}

// GameTimePaused reports whether game time is paused
func (t *Local) GameTimePaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gameTimePaused
}

func (t *Local) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != NotRunning {
		return
	}
	t.phase = Running
	t.splits = 0
	t.gameTimePaused = false
	t.log.Infoln("start")
}

func (t *Local) Split() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != Running {
		return
	}
	t.splits++
	t.log.Infoln("split", t.splits)
	if t.Segments > 0 && t.splits >= t.Segments {
		t.phase = Ended
		t.log.Infoln("run ended")
	}
}

func (t *Local) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == NotRunning {
		return
	}
	t.phase = NotRunning
	t.splits = 0
	t.gameTimePaused = false
	t.log.Infoln("reset")
}

func (t *Local) PauseGameTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameTimePaused = true
	t.log.Infoln("pause game time")
}

func (t *Local) ResumeGameTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameTimePaused = false
	t.log.Infoln("resume game time")
}
