// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the reward
// ledger (PrizeEntry).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Redemption rules (already redeemed,
// expired) are enforced by the service layer; the repository only guards
// the immutability of redeemed_at at the SQL level.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePrizeEntry inserts a finalized ledger row. The caller supplies a
// fully stamped entry (ID, WonAt, ExpiresAt); the repository does not
// rewrite any award fields.
func CreatePrizeEntry(ctx context.Context, db *gorm.DB, e *domain.PrizeEntry) error {
	return db.WithContext(ctx).Create(e).Error
}

// prizeScope composes the per-user ledger query, optionally restricted
// to active (unredeemed, unexpired) entries as of now.
func prizeScope(db *gorm.DB, userID string, activeOnly bool, now time.Time) *gorm.DB {
	q := db.Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("redeemed_at IS NULL AND expires_at > ?", now)
	}
	return q
}

// CountPrizes returns the total number of ledger rows for userID,
// optionally counting only active entries. On DB error, it returns the error.
func CountPrizes(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time) (int64, error) {
	var total int64
	err := prizeScope(db.WithContext(ctx).Model(&domain.PrizeEntry{}), userID, activeOnly, now).
		Count(&total).Error
	return total, err
}

// ListPrizesPage returns a paginated slice of the user's prizes, most
// recent win first. Use CountPrizes to obtain the total for pagination
// metadata. On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListPrizesPage(ctx context.Context, db *gorm.DB, userID string, activeOnly bool, now time.Time, offset, limit int) ([]domain.PrizeEntry, error) {
	var out []domain.PrizeEntry
	err := prizeScope(db.WithContext(ctx), userID, activeOnly, now).
		Order("won_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPrize fetches a single ledger entry by its ID and owner (userID).
// If the record does not exist, it returns ErrNotFound. On other DB
// errors, the raw error is returned.
func GetPrize(ctx context.Context, db *gorm.DB, id, userID string) (*domain.PrizeEntry, error) {
	var e domain.PrizeEntry
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkRedeemed stamps redeemed_at on an entry owned by userID. The WHERE
// clause requires redeemed_at IS NULL so a concurrent double redeem
// affects zero rows; in that case (or when the entry is missing)
// ErrNotFound is returned and the caller decides which it was.
func MarkRedeemed(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PrizeEntry{}).
		Where("id = ? AND user_id = ? AND redeemed_at IS NULL", id, userID).
		Update("redeemed_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
