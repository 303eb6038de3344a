// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the daily
// play allowance counters.
//
// The allowance row has a composite (user_id, game) primary key and is
// long-lived: the tracker resets it in place at day boundaries rather
// than deleting it. Concurrency control (single atomic check-and-consume
// per user) lives in the service layer; these functions are plain reads
// and upserts.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
)

// GetAllowance fetches the allowance row for (userID, game). A missing
// row is reported as (nil, nil): a user who has never played simply has
// no record yet. On DB error, it returns the error.
func GetAllowance(ctx context.Context, db *gorm.DB, userID, game string) (*domain.PlayAllowance, error) {
	var a domain.PlayAllowance
	err := db.WithContext(ctx).
		Where("user_id = ? AND game = ?", userID, game).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAllowance upserts the allowance row for its composite key,
// overwriting plays_remaining and last_play_date.
func SaveAllowance(ctx context.Context, db *gorm.DB, a *domain.PlayAllowance) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "game"}},
			DoUpdates: clause.AssignmentColumns([]string{"plays_remaining", "last_play_date", "updated_at"}),
		}).
		Create(a).Error
}
