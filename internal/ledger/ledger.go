// Package ledger holds the in-memory authoritative collection of pending
// requests. A single coarse mutex serializes all mutation; persistence is
// write-through, inside the lock, so a crash after Append cannot lose a
// submitted request. The lock is never held across network calls: callers
// take a Snapshot, do their slow I/O, then Remove by identity.
package ledger

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-request-bot/internal/domain"
)

// Persister is the durable-store dependency of the ledger. Only the ledger
// writes the store; a failed save is logged and the in-memory state stays
// authoritative until the next successful one.
type Persister interface {
	Save([]domain.Request) error
}

// Ledger is the single owner of all pending requests. Safe for concurrent
// use.
type Ledger struct {
	mu       sync.Mutex
	store    Persister
	log      zerolog.Logger
	requests []domain.Request
}

// New constructs a ledger seeded with the given requests (typically the
// result of store.Load at startup).
func New(store Persister, seed []domain.Request, log zerolog.Logger) *Ledger {
	l := &Ledger{
		store:    store,
		log:      log.With().Str("component", "ledger").Logger(),
		requests: make([]domain.Request, len(seed)),
	}
	copy(l.requests, seed)
	return l
}

// Len returns the number of pending requests.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// Append adds a request to the end of the ledger and persists the new
// snapshot before returning. A persistence failure is logged and does not
// fail the append: the request is live in memory and will be captured by
// the next successful save.
func (l *Ledger) Append(req domain.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	l.persistLocked()
}

// Snapshot returns a copy of the current requests. Callers use it to
// reason about the set without holding the lock during slow I/O; a
// submission landing mid-iteration is simply invisible until the next
// cycle.
func (l *Ledger) Snapshot() []domain.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Request, len(l.requests))
	copy(out, l.requests)
	return out
}

// Remove deletes the requests whose message ids appear in ids, preserving
// the relative order of survivors, and persists the result. Unknown ids
// are ignored, so removing from a stale snapshot is harmless: a request
// already removed cannot be resolved twice.
func (l *Ledger) Remove(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.requests[:0]
	for _, r := range l.requests {
		if _, gone := drop[r.MessageID]; !gone {
			kept = append(kept, r)
		}
	}
	l.requests = kept
	l.persistLocked()
}

// persistLocked saves the current snapshot. Caller holds the lock.
func (l *Ledger) persistLocked() {
	if err := l.store.Save(l.requests); err != nil {
		l.log.Error().Err(err).Int("pending", len(l.requests)).Msg("failed to persist ledger; in-memory state remains authoritative")
	}
}
