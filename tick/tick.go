// Package tick paces the splitter and its bootstrap waits
package tick

import (
	"context"
	"errors"
	"time"
)

// ErrProbeAborted is returned by Retry when the scheduler stops it
var ErrProbeAborted = errors.New("probe aborted")

// Scheduler blocks until the next tick
type Scheduler interface {
	Next(ctx context.Context) error
}

// Ticker is a Scheduler on a fixed rate
type Ticker struct {
	t *time.Ticker
}

// NewTicker ticks hz times per second
func NewTicker(hz float64) *Ticker {
	return &Ticker{t: time.NewTicker(time.Duration(float64(time.Second) / hz))}
}

func (t *Ticker) Next(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

func (t *Ticker) Stop() {
	t.t.Stop()
}

// Retry calls probe once per tick until it succeeds. Scheduler errors end
// the wait and are returned wrapped in ErrProbeAborted.
func Retry[T any](ctx context.Context, sched Scheduler, probe func() (T, bool)) (T, error) {
	for {
		if v, ok := probe(); ok {
			return v, nil
		}
		if err := sched.Next(ctx); err != nil {
			var zero T
			return zero, errors.Join(ErrProbeAborted, err)
		}
	}
}
