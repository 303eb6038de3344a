// Package services – PrizeService
//
// This file implements the reward ledger service: listing a user's won
// prizes, redeeming them (once), and the summary aggregate. It enforces
// the redemption rules the storefront relies on — a redeemed prize can
// never be un-redeemed, and an expired prize can no longer be redeemed.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/observability"
	"github.com/moonbrew/go-rewards-backend/internal/repo"
)

// PrizeRepo defines the repository contract required by PrizeService.
type PrizeRepo interface {
	// CreatePrizeEntry inserts a finalized ledger row.
	CreatePrizeEntry(ctx context.Context, db *gorm.DB, e *domain.PrizeEntry) error

	// CountPrizes returns the ledger size for pagination.
	CountPrizes(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time) (int64, error)

	// ListPrizesPage returns a page of the user's prizes, newest win first.
	ListPrizesPage(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time, offset, limit int) ([]domain.PrizeEntry, error)

	// GetPrize fetches one entry ensuring it belongs to the user.
	GetPrize(ctx context.Context, db *gorm.DB, id, userID string) (*domain.PrizeEntry, error)

	// MarkRedeemed stamps redeemed_at, affecting zero rows when already set.
	MarkRedeemed(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error

	// PrizesStats returns the won/redeemed/active/expired aggregate.
	PrizesStats(ctx context.Context, db *gorm.DB, userID string, now time.Time) (repo.PrizeStats, error)
}

// PrizeService provides ledger-level operations over awarded prizes.
type PrizeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the prize repository used by this service.
	Repo PrizeRepo

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewPrizeService constructs a PrizeService.
func NewPrizeService(db *gorm.DB, r PrizeRepo) *PrizeService {
	return &PrizeService{DB: db, Repo: r, now: time.Now}
}

// SavePrize persists a finalized ledger entry. It implements the
// PrizeLedger contract consumed by the game services.
func (s *PrizeService) SavePrize(ctx context.Context, e *domain.PrizeEntry) error {
	if err := s.Repo.CreatePrizeEntry(ctx, s.DB, e); err != nil {
		return err
	}
	observability.RecordPrizeAwarded(e.Game, e.PrizeType)
	return nil
}

// ListPage returns a page of the user's prizes and the total count.
// With activeOnly, only unredeemed, unexpired entries are returned.
// It applies defaults for invalid page/pageSize.
func (s *PrizeService) ListPage(ctx context.Context, userID string, activeOnly bool, page, pageSize int) ([]domain.PrizeEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	now := s.now().UTC()

	total, err := s.Repo.CountPrizes(ctx, s.DB, userID, activeOnly, now)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.PrizeEntry{}, 0, nil
	}

	items, err := s.Repo.ListPrizesPage(ctx, s.DB, userID, activeOnly, now, offset, pageSize)
	return items, total, err
}

// Redeem marks the prize as redeemed, exactly once. It returns
// ErrPrizeNotFound for a missing or foreign entry, ErrPrizeRedeemed
// when redeemed_at is already set, and ErrPrizeExpired past the expiry.
func (s *PrizeService) Redeem(ctx context.Context, userID, prizeID string) (*domain.PrizeEntry, error) {
	e, err := s.Repo.GetPrize(ctx, s.DB, prizeID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	if e.RedeemedAt != nil {
		return nil, ErrPrizeRedeemed
	}
	if !e.ExpiresAt.After(now) {
		return nil, ErrPrizeExpired
	}

	if err := s.Repo.MarkRedeemed(ctx, s.DB, prizeID, userID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race against another redeem of the same entry.
			return nil, ErrPrizeRedeemed
		}
		return nil, err
	}
	e.RedeemedAt = &now
	observability.RecordPrizeRedeemed(e.PrizeType)
	return e, nil
}

// Summary returns the user's ledger aggregate.
func (s *PrizeService) Summary(ctx context.Context, userID string) (repo.PrizeStats, error) {
	return s.Repo.PrizesStats(ctx, s.DB, userID, s.now().UTC())
}
