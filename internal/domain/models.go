// Package domain defines the persistence models for the rewards
// backend: awarded prize entries (the reward ledger) and daily play
// allowances. These types are mapped with GORM and shared by the
// repository and service layers.
package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/moonbrew/go-rewards-backend/internal/games"
	"github.com/moonbrew/go-rewards-backend/internal/prize"
)

// PrizeEntry is one awarded prize persisted against a user record.
//
// Invariants:
//   - ExpiresAt is always WonAt plus the catalog expiry window (30 days).
//   - RedeemedAt starts NULL and, once set, is never cleared or changed.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: owner of the prize; indexed for per-user listing.
//   - Game: which mini-game awarded it ("plinko" or "mines").
//   - PrizeID/PrizeType/Label/Value: the catalog definition at win time,
//     denormalized so later catalog edits never rewrite history.
//   - Multiplier: final Mines multiplier (zero for Plinko wins).
//   - Slot: Plinko landing slot (NULL for Mines wins).
type PrizeEntry struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_prizes"`
	Game       string         `json:"game"        gorm:"type:varchar(16);not null;check:game IN ('plinko','mines')"`
	PrizeID    string         `json:"prize_id"    gorm:"type:varchar(64);not null"`
	PrizeType  string         `json:"prize_type"  gorm:"type:varchar(32);not null"`
	Label      string         `json:"label"       gorm:"type:varchar(64);not null"`
	Value      string         `json:"value"       gorm:"type:varchar(32);not null"`
	Multiplier float64        `json:"multiplier,omitempty"`
	Slot       *int           `json:"slot,omitempty"`
	WonAt      time.Time      `json:"won_at"      gorm:"not null;index"`
	ExpiresAt  time.Time      `json:"expires_at"  gorm:"not null;index"`
	RedeemedAt *time.Time     `json:"redeemed_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for PrizeEntry.
func (PrizeEntry) TableName() string { return "prize_entries" }

// Active reports whether the prize is still redeemable at now.
func (e *PrizeEntry) Active(now time.Time) bool {
	return e.RedeemedAt == nil && e.ExpiresAt.After(now)
}

// NewPrizeEntry builds a ledger row for prize p won in game at the
// stamped award time. Mines entries carry the final multiplier; Plinko
// entries carry the landing slot.
func NewPrizeEntry(id, userID string, game games.Type, p prize.Prize, a prize.Award, multiplier float64, slot *int) PrizeEntry {
	return PrizeEntry{
		ID:         id,
		UserID:     userID,
		Game:       game.String(),
		PrizeID:    p.ID,
		PrizeType:  p.Type,
		Label:      p.Label,
		Value:      p.Value,
		Multiplier: multiplier,
		Slot:       slot,
		WonAt:      a.WonAt,
		ExpiresAt:  a.ExpiresAt,
		RedeemedAt: nil,
	}
}

// PlayAllowance is the per-(user, game) daily play counter. The row is
// long-lived: it is reset in place on the first play of a new day and
// never deleted.
type PlayAllowance struct {
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);primaryKey"`
	Game           string    `json:"game"            gorm:"type:varchar(16);primaryKey"`
	PlaysRemaining int       `json:"plays_remaining" gorm:"not null;check:plays_remaining >= 0"`
	LastPlayDate   string    `json:"last_play_date"  gorm:"type:varchar(10);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for PlayAllowance.
func (PlayAllowance) TableName() string { return "play_allowances" }
