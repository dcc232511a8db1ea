package session

import (
	"context"
	"errors"

	"rorsplit/game"
	"rorsplit/process"
	"rorsplit/tick"
	"rorsplit/timer"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Runner waits for the game, runs a Session on it, and starts over when the
// game exits
type Runner struct {
	opener   process.ProcessOpener
	name     string
	sched    tick.Scheduler
	timer    timer.Timer
	sink     game.VariableSink
	observer Observer
	opts     Options
	log      *logger.Logger
}

func NewRunner(opener process.ProcessOpener, name string, sched tick.Scheduler, t timer.Timer, sink game.VariableSink, observer Observer, opts Options) *Runner {
	return &Runner{
		opener:   opener,
		name:     name,
		sched:    sched,
		timer:    t,
		sink:     sink,
		observer: observer,
		opts:     opts,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "runner")),
	}
}

// Run returns only when ctx is done or a session fails for a reason other
// than the game exiting
func (r *Runner) Run(ctx context.Context) error {
	r.log.Infoln("Waiting for", r.name)
	for {
		proc, err := tick.Retry(ctx, r.sched, func() (process.Process, bool) {
			p, err := r.opener.OpenProcessByName(r.name)
			return p, err == nil
		})
		if err != nil {
			return err
		}

		pid := proc.GetPID()
		r.log.Infoln("Attached to", r.name, "pid", pid)
		if r.observer != nil {
			r.observer.CountSession()
		}

		err = New(proc, r.sched, r.timer, r.sink, r.observer, r.opts).Run(ctx)
		if cerr := proc.Close(); cerr != nil {
			r.log.Debugln("Close:", cerr)
		}
		if !errors.Is(err, ErrProcessExited) {
			return err
		}
		r.log.Infoln("Detached from pid", pid)
	}
}
