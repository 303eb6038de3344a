// Package ratelimit implements a process-local, fixed-window request
// limiter with named policies. Each (policy, identity) pair owns a
// counter that resets when its window elapses; rejections carry the
// remaining quota and the window reset time so callers can build a
// proper 429 response with retry guidance.
//
// The limiter is an edge-abuse and cost-protection guard, not an
// authorization mechanism, and enforces limits per process. For
// horizontally scaled deployments a shared store (e.g. Redis) would be
// needed to make limits global.
package ratelimit

import (
	"sync"
	"time"
)

// Policy names a fixed-window limit: at most Max requests per Window.
// Distinct endpoints may use distinct policies under the same limiter.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

// Result is the outcome of a single limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying,
// measured from now. It is never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// entry is one live counting window.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter tracks fixed windows per (policy, identity). It is safe for
// concurrent use: the check-and-record step runs under a single lock so
// two racing requests can never both consume the last slot.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	sweepN  int
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock injects a time source; tests use it to step through
// windows deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter constructs an empty limiter.
func NewLimiter(opts ...Option) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// sweepEvery is the lookup count between opportunistic sweeps of
// expired windows, bounding memory without a background goroutine.
const sweepEvery = 5000

// Check applies policy p to identity and records the request when it is
// admitted. Only requests within the active window count toward the
// limit; an elapsed window is replaced before counting.
func (l *Limiter) Check(identity string, p Policy) Result {
	now := l.now()
	key := p.Name + ":" + identity

	l.mu.Lock()
	defer l.mu.Unlock()

	// Sweep before touching the requested entry so an expired window is
	// evicted even when it is the one being fetched.
	l.sweepN++
	if l.sweepN >= sweepEvery {
		for k, e := range l.entries {
			if !e.resetAt.After(now) {
				delete(l.entries, k)
			}
		}
		l.sweepN = 0
	}

	e, ok := l.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = &entry{resetAt: now.Add(p.Window)}
		l.entries[key] = e
	}

	allowed := e.count < p.Max
	if allowed {
		e.count++
	}
	remaining := p.Max - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   allowed,
		Limit:     p.Max,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}

// Reset drops the live window for (policy, identity). Used by tests and
// by support tooling to unblock a client.
func (l *Limiter) Reset(identity string, p Policy) {
	l.mu.Lock()
	delete(l.entries, p.Name+":"+identity)
	l.mu.Unlock()
}
