// Package services – per-submitter rate limiting.
//
// This file implements a lightweight, in-memory, token-bucket limiter with
// one bucket per submitter and opportunistic garbage collection of idle
// buckets. It protects the request channel from command spam in a
// single-process deployment; it is abuse control, not authorization.
package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds a single rate limiter and the last time it was seen, so
// idle buckets can be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SubmitterLimiter implements a per-submitter token-bucket rate limiter.
// Buckets are created on demand in a mutex-guarded map; buckets idle for
// longer than the TTL are evicted opportunistically during lookups to keep
// memory bounded. Safe for concurrent use.
type SubmitterLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewSubmitterLimiter constructs a limiter with the given tokens-per-second
// and burst size per submitter.
func NewSubmitterLimiter(rps float64, burst int) *SubmitterLimiter {
	return &SubmitterLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// Allow reports whether the submitter may proceed, consuming one token.
// An rps of 0 disables limiting entirely.
func (l *SubmitterLimiter) Allow(submitterID string) bool {
	if l == nil || l.rps == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[submitterID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[submitterID] = v
	}
	v.lastSeen = now

	// Evict idle buckets every 64 lookups.
	l.cleanupN++
	if l.cleanupN%64 == 0 {
		for id, vis := range l.visitors {
			if now.Sub(vis.lastSeen) > l.ttl {
				delete(l.visitors, id)
			}
		}
	}

	return v.limiter.Allow()
}
