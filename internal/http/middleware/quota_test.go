package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moonbrew/go-rewards-backend/internal/ratelimit"
)

type quotaClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *quotaClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *quotaClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quotaRig(t *testing.T, policy ratelimit.Policy, clock *quotaClock) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := ratelimit.NewLimiter(ratelimit.WithClock(clock.Now))
	r := gin.New()
	r.POST("/play", Quota(l, policy, KeyByUserOrIP()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

// playOnce sends an anonymous request; KeyByUserOrIP keys it by client IP.
func playOnce(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/play", nil))
	return w
}

func TestQuota_HeadersAndExhaustion(t *testing.T) {
	clock := &quotaClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	policy := ratelimit.Policy{Name: "play", Max: 2, Window: time.Minute}
	r := quotaRig(t, policy, clock)

	// First two requests are admitted with a decreasing Remaining.
	for i, wantRemaining := range []string{"1", "0"} {
		w := playOnce(r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d -> %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Fatalf("limit header = %q", got)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Fatalf("remaining header = %q, want %q", got, wantRemaining)
		}
		wantReset := strconv.FormatInt(clock.Now().Add(time.Minute).Unix(), 10)
		if got := w.Header().Get("X-RateLimit-Reset"); got != wantReset {
			t.Fatalf("reset header = %q, want %q", got, wantReset)
		}
	}

	// Third is rejected with 429, the envelope, and retry guidance.
	w := playOnce(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-quota -> %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("remaining after deny = %q", got)
	}
	retry := w.Header().Get("Retry-After")
	if secs, err := strconv.Atoi(retry); err != nil || secs < 1 {
		t.Fatalf("Retry-After = %q", retry)
	}
	body := w.Body.String()
	if !strings.Contains(body, "too_many_requests") || !strings.Contains(body, "play quota exceeded") {
		t.Fatalf("deny body = %s", body)
	}
}

func TestQuota_WindowRollsOver(t *testing.T) {
	clock := &quotaClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	policy := ratelimit.Policy{Name: "play", Max: 1, Window: time.Minute}
	r := quotaRig(t, policy, clock)

	if w := playOnce(r); w.Code != http.StatusOK {
		t.Fatalf("first -> %d", w.Code)
	}
	if w := playOnce(r); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second in window -> %d", w.Code)
	}

	clock.Advance(61 * time.Second)
	if w := playOnce(r); w.Code != http.StatusOK {
		t.Fatalf("after window -> %d", w.Code)
	}
}

func TestQuota_IdentitiesIsolated(t *testing.T) {
	clock := &quotaClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	policy := ratelimit.Policy{Name: "play", Max: 1, Window: time.Minute}

	gin.SetMode(gin.TestMode)
	l := ratelimit.NewLimiter(ratelimit.WithClock(clock.Now))
	r := gin.New()
	// Upstream auth sets userID; the quota keys on it.
	r.Use(func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User-ID"))
		c.Next()
	})
	r.POST("/play", Quota(l, policy, KeyByUserOrIP()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	play := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/play", nil)
		req.Header.Set("X-User-ID", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if play("alice") != http.StatusOK {
		t.Fatalf("alice first play rejected")
	}
	if play("alice") != http.StatusTooManyRequests {
		t.Fatalf("alice second play admitted")
	}
	if play("bob") != http.StatusOK {
		t.Fatalf("bob blocked by alice's window")
	}
}

func TestQuota_IdempotentReplayBypasses(t *testing.T) {
	clock := &quotaClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	policy := ratelimit.Policy{Name: "play", Max: 1, Window: time.Minute}

	gin.SetMode(gin.TestMode)
	l := ratelimit.NewLimiter(ratelimit.WithClock(clock.Now))
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	r.POST("/play", Quota(l, policy, KeyByUserOrIP()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Bypassed requests never consume window capacity.
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/play", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("bypassed request %d -> %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "" {
			t.Fatalf("bypassed request should skip quota headers, got %q", got)
		}
	}
}
