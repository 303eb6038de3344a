package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually stepped time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestCheck_AdmitsUpToMaxThenRejects(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(WithClock(clk.Now))
	p := Policy{Name: "chat", Max: 3, Window: time.Hour}

	for i := 0; i < 3; i++ {
		res := l.Check("u1", p)
		if !res.Allowed {
			t.Fatalf("request %d should be admitted", i+1)
		}
		if res.Limit != 3 || res.Remaining != 3-(i+1) {
			t.Fatalf("request %d: limit=%d remaining=%d", i+1, res.Limit, res.Remaining)
		}
	}

	res := l.Check("u1", p)
	if res.Allowed {
		t.Fatalf("request over the limit must be rejected")
	}
	if res.Remaining != 0 {
		t.Fatalf("rejected remaining = %d, want 0", res.Remaining)
	}
	if want := clk.Now().Add(time.Hour); !res.ResetAt.Equal(want) {
		t.Fatalf("ResetAt = %v, want %v", res.ResetAt, want)
	}
}

func TestCheck_WindowRollover(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(WithClock(clk.Now))
	p := Policy{Name: "play", Max: 1, Window: time.Minute}

	if !l.Check("u1", p).Allowed {
		t.Fatalf("first request should pass")
	}
	if l.Check("u1", p).Allowed {
		t.Fatalf("second request in the window must fail")
	}

	// Still inside the window.
	clk.Advance(59 * time.Second)
	if l.Check("u1", p).Allowed {
		t.Fatalf("request before the reset must fail")
	}

	// Window elapsed: a fresh one opens with a full budget.
	clk.Advance(2 * time.Second)
	res := l.Check("u1", p)
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("request after reset: allowed=%v remaining=%d", res.Allowed, res.Remaining)
	}
}

func TestCheck_IdentitiesAndPoliciesIsolated(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(WithClock(clk.Now))
	chat := Policy{Name: "chat", Max: 1, Window: time.Hour}
	play := Policy{Name: "play", Max: 1, Window: time.Hour}

	if !l.Check("u1", chat).Allowed {
		t.Fatalf("u1 chat should pass")
	}
	if !l.Check("u2", chat).Allowed {
		t.Fatalf("u2 must not share u1's window")
	}
	if !l.Check("u1", play).Allowed {
		t.Fatalf("the play policy must not share the chat window")
	}
	if l.Check("u1", chat).Allowed {
		t.Fatalf("u1 chat window should be exhausted")
	}
}

func TestReset_ReopensWindow(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(WithClock(clk.Now))
	p := Policy{Name: "chat", Max: 1, Window: time.Hour}

	l.Check("u1", p)
	if l.Check("u1", p).Allowed {
		t.Fatalf("window should be exhausted")
	}
	l.Reset("u1", p)
	if !l.Check("u1", p).Allowed {
		t.Fatalf("Reset must reopen the window")
	}
}

func TestRetryAfter_NeverNegative(t *testing.T) {
	res := Result{ResetAt: time.Now().Add(-time.Minute)}
	if d := res.RetryAfter(time.Now()); d != 0 {
		t.Fatalf("RetryAfter past reset = %v, want 0", d)
	}
	now := time.Now()
	res = Result{ResetAt: now.Add(30 * time.Second)}
	if d := res.RetryAfter(now); d != 30*time.Second {
		t.Fatalf("RetryAfter = %v, want 30s", d)
	}
}

func TestCheck_ConcurrentNeverOverAdmits(t *testing.T) {
	l := NewLimiter()
	p := Policy{Name: "play", Max: 50, Window: time.Hour}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if l.Check("u1", p).Allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if admitted != 50 {
		t.Fatalf("admitted %d of 200 racing requests, want exactly 50", admitted)
	}
}

func TestCheck_SweepEvictsExpiredWindows(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(WithClock(clk.Now))
	p := Policy{Name: "play", Max: 1, Window: time.Minute}

	l.Check("stale", p)
	clk.Advance(2 * time.Minute)

	// Drive enough lookups to trigger the opportunistic sweep.
	for i := 0; i <= sweepEvery; i++ {
		l.Check("busy", p)
	}

	l.mu.Lock()
	_, ok := l.entries["play:stale"]
	l.mu.Unlock()
	if ok {
		t.Fatalf("expired window should have been swept")
	}
}
