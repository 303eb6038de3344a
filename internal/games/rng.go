package games

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness contract consumed by the game engines. It is
// satisfied by *math/rand.Rand, which lets tests inject a fixed seed so
// mine placement and ball deflection are reproducible, while production
// seeds from the wall clock.
//
// Implementations are not required to be safe for concurrent use;
// callers that share a Source across goroutines should wrap it with
// LockedSource.
type Source interface {
	// Intn returns a uniform int in [0, n).
	Intn(n int) int
	// Float64 returns a uniform float64 in [0.0, 1.0).
	Float64() float64
	// Perm returns a uniform random permutation of [0, n).
	Perm(n int) []int
}

// NewSource returns a deterministic Source seeded with seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a Source seeded from the current time.
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// LockedSource serializes access to an underlying Source so it can be
// shared by concurrent request handlers.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src with a mutex.
func NewLockedSource(src Source) *LockedSource {
	return &LockedSource{src: src}
}

// Intn implements Source.
func (l *LockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

// Float64 implements Source.
func (l *LockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Perm implements Source.
func (l *LockedSource) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Perm(n)
}
