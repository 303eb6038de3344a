// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries over
// the reward ledger, used by the prize summary endpoint and for ETag-style
// conditional responses. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
)

// PrizeStats is an aggregate view of a user's reward ledger.
type PrizeStats struct {
	TotalWon int64 `json:"total_won"`
	Redeemed int64 `json:"redeemed"`
	Active   int64 `json:"active"`
	Expired  int64 `json:"expired"`
}

// PrizesStats returns counts of won/redeemed/active/expired prizes for
// userID as of now. Expired counts only unredeemed entries whose expiry
// has passed, so the three buckets partition TotalWon.
func PrizesStats(ctx context.Context, db *gorm.DB, userID string, now time.Time) (PrizeStats, error) {
	var s PrizeStats
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.PrizeEntry{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&s.TotalWon).Error; err != nil {
		return PrizeStats{}, err
	}
	if s.TotalWon == 0 {
		return s, nil
	}
	if err := base().Where("redeemed_at IS NOT NULL").Count(&s.Redeemed).Error; err != nil {
		return PrizeStats{}, err
	}
	if err := base().Where("redeemed_at IS NULL AND expires_at > ?", now).Count(&s.Active).Error; err != nil {
		return PrizeStats{}, err
	}
	s.Expired = s.TotalWon - s.Redeemed - s.Active
	return s, nil
}

// PrizesMaxUpdatedAt returns the greatest UpdatedAt among a user's ledger
// rows, or nil when the ledger is empty. Used for conditional responses.
func PrizesMaxUpdatedAt(ctx context.Context, db *gorm.DB, userID string) (*time.Time, error) {
	var count int64
	q := db.WithContext(ctx).Model(&domain.PrizeEntry{}).Where("user_id = ?", userID)
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row.UpdatedAt, nil
}
