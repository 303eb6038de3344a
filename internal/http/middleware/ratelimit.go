// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the global token-bucket rate limiter that fronts every
// endpoint, including the game and wallet routes. Buckets are in-memory and
// per identity, so the limiter is process-local; a horizontally scaled
// deployment would need a shared store to enforce a global ceiling.
//
// The limiter is edge abuse control only. Gameplay fairness (the two plays a
// day rule) is enforced by the allowance service, and per-route ceilings by
// the fixed-window Quota middleware.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit or quota bucket.
// Implementations must return a stable string for the duration of a request,
// e.g. "user:<id>" or "ip:<addr>".
type keyFunc func(*gin.Context) string

// KeyByUserOrIP returns a keyFunc that prefers the authenticated user
// identity (stored in the Gin context under "userID") and falls back to the
// client IP. Keys carry a namespace prefix so a user id can never collide
// with an address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a token bucket with its last-touched time so idle entries can
// be swept.
type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-identity token-bucket limiter. Buckets are created on
// demand and evicted after sitting idle for bucketTTL; the sweep runs
// opportunistically every sweepEvery lookups so hot paths never pay for a
// full scan. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64

	bucketTTL time.Duration
}

const sweepEvery = 5000

// NewRateLimiter constructs a RateLimiter replenishing rps tokens per second
// with the given burst size, keyed by keyFn. A burst below 1 is coerced to 1;
// rps of 0 admits nothing.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		keyFn:     keyFn,
		buckets:   make(map[string]*bucket),
		bucketTTL: 10 * time.Minute,
	}
}

// bucketFor returns the limiter for key, creating it if absent.
//
// The idle sweep runs before the requested bucket is touched so an entry that
// has sat past its TTL is evicted even when it is the one being fetched.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.bucketTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		lim := b.lim
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{lim: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of an already-completed play. Replays are served without consuming
// tokens so a retried drop or cashout cannot be starved by its own retries.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass) // set by IdempotencyValidator
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the Gin middleware enforcing the per-identity bucket.
// Replayed requests (IsRateBypass) skip limiting entirely; rejected requests
// get a 429 with a compact JSON body and a minimal Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.bucketFor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
