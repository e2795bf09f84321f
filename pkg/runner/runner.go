// Package runner drives a Canopy engine with a fixed-rate tick loop and
// marshals out-of-band transition requests onto the loop goroutine, which
// is the engine's single logical thread of execution.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	canopy "github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
)

// DefaultTickRate approximates a 60 Hz game loop.
const DefaultTickRate = 16 * time.Millisecond

// Runner owns the update loop of one engine. Request may be called from
// any goroutine; everything else happens on the loop goroutine inside Run.
type Runner struct {
	// TickRate is the update interval. Defaults to DefaultTickRate.
	TickRate time.Duration

	// Logger is used for internal debug logging. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	// pending holds at most one out-of-band transition request. A newer
	// request overwrites an uncommitted older one; the engine's pending
	// slot has the same last-wins semantics.
	pending atomic.Pointer[string]

	// wake is a one-shot flag, not a queue: scheduling an already
	// scheduled commit is a no-op.
	wake chan struct{}
}

// NewRunner creates a runner with default settings.
func NewRunner() *Runner {
	return &Runner{
		TickRate: DefaultTickRate,
		Logger:   logging.NewNop(),
		wake:     make(chan struct{}, 1),
	}
}

// Request records an out-of-band transition to the named leaf and
// schedules a commit on the next pass of the loop. Multiple requests made
// before that pass coalesce into the last one.
func (r *Runner) Request(name string) {
	r.pending.Store(&name)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// take drains the pending request slot.
func (r *Runner) take() (string, bool) {
	if p := r.pending.Swap(nil); p != nil {
		return *p, true
	}
	return "", false
}

// Run initializes the engine if needed and ticks it until ctx is done.
// The engine is left intact on return; tearing it down is the caller's
// choice.
func (r *Runner) Run(ctx context.Context, engine *canopy.Engine) error {
	if r.TickRate <= 0 {
		r.TickRate = DefaultTickRate
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.wake == nil {
		r.wake = make(chan struct{}, 1)
	}

	if !engine.Initialized() {
		if err := engine.Init(); err != nil {
			return fmt.Errorf("init engine: %w", err)
		}
	}

	ticker := time.NewTicker(r.TickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-r.wake:
			// Cooperative step for out-of-band requests: apply and
			// commit without waiting for the next tick.
			if err := r.applyPending(engine); err != nil {
				return err
			}
			if err := engine.Commit(); err != nil {
				return err
			}

		case now := <-ticker.C:
			if err := r.applyPending(engine); err != nil {
				return err
			}
			delta := now.Sub(last)
			last = now
			if err := engine.Update(delta); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) applyPending(engine *canopy.Engine) error {
	name, ok := r.take()
	if !ok {
		return nil
	}
	r.Logger.Debug("applying out-of-band transition request", "state", name)
	if err := engine.Request(name); err != nil {
		return fmt.Errorf("out-of-band request for %q: %w", name, err)
	}
	return nil
}
