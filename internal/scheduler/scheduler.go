// Package scheduler runs named background jobs on a fixed period. Each job
// fires once immediately at startup (to catch backlog accumulated while
// the process was down) and then on every tick. The clock is injected so
// tests drive time with a fake.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Job is a single scheduled activity. Implementations must be safe to call
// repeatedly; errors are logged and the next tick runs regardless.
type Job func(ctx context.Context) error

// Runner drives one job on a fixed interval.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	clock    clockwork.Clock
	log      zerolog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewRunner constructs a runner for job, firing every interval.
func NewRunner(name string, interval time.Duration, job Job, clock clockwork.Clock, log zerolog.Logger) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		clock:    clock,
		log:      log.With().Str("job", name).Logger(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the job once immediately, then on every interval tick, until
// the context is cancelled or Stop is called. It blocks; run it in a
// goroutine.
func (r *Runner) Start(ctx context.Context) {
	defer close(r.done)

	r.run(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			r.run(ctx)
		case <-r.stopCh:
			r.log.Info().Msg("job runner stopped")
			return
		case <-ctx.Done():
			r.log.Info().Msg("job runner context cancelled")
			return
		}
	}
}

// Stop terminates the loop after any in-flight run completes. Safe to call
// more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Done is closed once the loop has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) run(ctx context.Context) {
	if err := r.job(ctx); err != nil {
		r.log.Error().Err(err).Msg("scheduled job failed")
	}
}
