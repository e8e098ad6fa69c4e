package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func TestRunner_FiresImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var runs atomic.Int64
	fired := make(chan struct{}, 16)

	r := NewRunner("test", time.Minute, func(ctx context.Context) error {
		runs.Add(1)
		fired <- struct{}{}
		return nil
	}, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	// Immediate first invocation, before any tick.
	waitFired(t, fired)
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs after start = %d, want 1", got)
	}

	// Wait for the ticker to be registered before advancing time.
	clock.BlockUntil(1)

	// Each interval advance triggers exactly one more run.
	clock.Advance(time.Minute)
	waitFired(t, fired)
	clock.Advance(time.Minute)
	waitFired(t, fired)
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs after two ticks = %d, want 3", got)
	}

	r.Stop()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_JobErrorDoesNotStopLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var runs atomic.Int64
	fired := make(chan struct{}, 16)

	r := NewRunner("flaky", time.Second, func(ctx context.Context) error {
		runs.Add(1)
		fired <- struct{}{}
		return errors.New("boom")
	}, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	waitFired(t, fired)
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	waitFired(t, fired)
	if got := runs.Load(); got != 2 {
		t.Fatalf("runs = %d, want 2 despite errors", got)
	}

	r.Stop()
	<-r.Done()
}

func TestRunner_ContextCancelStops(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan struct{}, 1)

	r := NewRunner("ctx", time.Hour, func(ctx context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)
	waitFired(t, fired)

	cancel()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not exit on context cancel")
	}
}

func TestRunner_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRunner("idem", time.Hour, func(ctx context.Context) error { return nil }, clock, zerolog.Nop())

	go r.Start(context.Background())
	r.Stop()
	r.Stop() // second call must not panic
	<-r.Done()
}

func waitFired(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire in time")
	}
}
