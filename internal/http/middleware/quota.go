// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file enforces named fixed-window quotas on top of the token-bucket
// limiter in ratelimit.go. The two serve different purposes and stack:
//   - the token bucket smooths bursts at the edge (requests per second);
//   - a quota caps how many calls an identity gets per window (e.g. 30
//     assistant questions per hour) and reports standing in response headers.
//
// Every response from a quota-guarded route carries:
//
//	X-RateLimit-Limit:     <window capacity>
//	X-RateLimit-Remaining: <calls left in the current window>
//	X-RateLimit-Reset:     <unix seconds when the window restarts>
//
// and a rejected request additionally gets Retry-After plus the standard
// 429 error envelope.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moonbrew/go-rewards-backend/internal/ratelimit"
)

// Quota returns a Gin middleware enforcing policy via the shared limiter,
// keyed by keyFn (same identity scheme as the token bucket). Idempotent
// replays bypass the quota so retries never burn window capacity.
func Quota(l *ratelimit.Limiter, policy ratelimit.Policy, keyFn keyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		res := l.Check(keyFn(c), policy)

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if res.Allowed {
			c.Next()
			return
		}

		retry := res.RetryAfter(time.Now())
		secs := int(retry / time.Second)
		if retry%time.Second != 0 || secs < 1 {
			secs++ // round up, never advertise zero
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    policy.Name + " quota exceeded, try again later",
		})
	}
}
