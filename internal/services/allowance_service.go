// Package services – AllowanceService
//
// This file implements the daily play allowance tracker: a per
// (user, game) counter of plays remaining today that resets at day
// boundaries. The reset-then-consume sequence runs under a per-key
// mutex so two concurrent plays from the same user can never both
// spend the last play.
package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/games"
)

// DefaultDailyPlays is the number of game attempts a user may start per
// calendar day. A fixed product constant, not runtime configuration.
const DefaultDailyPlays = 2

// AllowanceRepo defines the repository contract required by
// AllowanceService. Implementations persist the per-key counter rows.
type AllowanceRepo interface {
	// GetAllowance fetches the row for (userID, game); (nil, nil) when absent.
	GetAllowance(ctx context.Context, db *gorm.DB, userID, game string) (*domain.PlayAllowance, error)

	// SaveAllowance upserts the row for its (userID, game) key.
	SaveAllowance(ctx context.Context, db *gorm.DB, a *domain.PlayAllowance) error
}

// AllowanceDecision is the outcome of a check-and-consume call.
type AllowanceDecision struct {
	// Allowed reports whether a play may start.
	Allowed bool `json:"allowed"`
	// Remaining is the number of plays left today after this call.
	Remaining int `json:"remaining"`
}

// AllowanceService enforces the daily play limit. It is safe for
// concurrent use; each (user, game) key is serialized independently so
// contention stays per-key, never global.
type AllowanceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the allowance repository used by this service.
	Repo AllowanceRepo

	// DailyLimit is the plays granted per calendar day.
	DailyLimit int
	// Location fixes which wall clock defines "today".
	Location *time.Location

	// now is a test seam; defaults to time.Now.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAllowanceService constructs an AllowanceService with the default
// daily limit and the given calendar zone (UTC when nil).
func NewAllowanceService(db *gorm.DB, r AllowanceRepo, loc *time.Location) *AllowanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AllowanceService{
		DB:         db,
		Repo:       r,
		DailyLimit: DefaultDailyPlays,
		Location:   loc,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing one (user, game) key, creating
// it on first use. Keys are never evicted; the set is bounded by the
// active player population and each entry is a single mutex.
func (s *AllowanceService) keyLock(userID string, game games.Type) *sync.Mutex {
	key := userID + "|" + game.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// today returns the calendar date string in the service's zone.
func (s *AllowanceService) today() string {
	return s.now().In(s.Location).Format("2006-01-02")
}

// CheckAndConsume applies the daily-limit rules as one atomic unit:
// reset the counter when the stored date is not today, then consume a
// play when any remain. It returns Allowed=false with Remaining=0 (and
// ErrAllowanceExhausted) when the limit is spent; callers must not
// start a play session on a disallowed decision.
func (s *AllowanceService) CheckAndConsume(ctx context.Context, userID string, game games.Type) (AllowanceDecision, error) {
	lock := s.keyLock(userID, game)
	lock.Lock()
	defer lock.Unlock()

	today := s.today()
	a, err := s.Repo.GetAllowance(ctx, s.DB, userID, game.String())
	if err != nil {
		return AllowanceDecision{}, err
	}
	if a == nil {
		a = &domain.PlayAllowance{
			UserID:         userID,
			Game:           game.String(),
			PlaysRemaining: s.DailyLimit,
			LastPlayDate:   today,
		}
	} else if a.LastPlayDate != today {
		// New day: reset before any decrement is applied.
		a.PlaysRemaining = s.DailyLimit
		a.LastPlayDate = today
	}

	if a.PlaysRemaining <= 0 {
		return AllowanceDecision{Allowed: false, Remaining: 0}, ErrAllowanceExhausted
	}

	a.PlaysRemaining--
	if err := s.Repo.SaveAllowance(ctx, s.DB, a); err != nil {
		return AllowanceDecision{}, err
	}
	return AllowanceDecision{Allowed: true, Remaining: a.PlaysRemaining}, nil
}

// Remaining reports the plays left today without consuming one. A user
// with no row, or a row from a previous day, has the full daily limit.
func (s *AllowanceService) Remaining(ctx context.Context, userID string, game games.Type) (int, error) {
	lock := s.keyLock(userID, game)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.Repo.GetAllowance(ctx, s.DB, userID, game.String())
	if err != nil {
		return 0, err
	}
	if a == nil || a.LastPlayDate != s.today() {
		return s.DailyLimit, nil
	}
	return a.PlaysRemaining, nil
}
