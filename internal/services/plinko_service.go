// Package services – PlinkoService
//
// This file runs Plinko drops: spend one play, simulate the ball to a
// landing slot, map the slot to a prize, and persist the win (if any)
// to the reward ledger. A drop is a single request/response operation
// with no session to keep between calls.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/games"
	"github.com/moonbrew/go-rewards-backend/internal/games/plinko"
	"github.com/moonbrew/go-rewards-backend/internal/observability"
	"github.com/moonbrew/go-rewards-backend/internal/prize"
)

// PlinkoDropResult is the client-facing outcome of one drop.
type PlinkoDropResult struct {
	Slot           int          `json:"slot"`
	PegHits        int          `json:"peg_hits"`
	PlaysRemaining int          `json:"plays_remaining"`
	Prize          *prize.Prize `json:"prize,omitempty"`
	PrizeEntryID   string       `json:"prize_entry_id,omitempty"`
}

// PlinkoService orchestrates Plinko gameplay. Safe for concurrent use;
// the shared randomness source must be a locked one (see games.LockedSource).
type PlinkoService struct {
	// Ledger persists won prizes.
	Ledger PrizeLedger
	// Allowance guards drops.
	Allowance AllowanceChecker
	// Board is the fixed peg field shared by all drops.
	Board *plinko.Board
	// RNG randomizes release offset and deflection.
	RNG games.Source

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewPlinkoService constructs a PlinkoService over the given
// collaborators. A nil rng falls back to a time-seeded source.
func NewPlinkoService(ledger PrizeLedger, allowance AllowanceChecker, rng games.Source) *PlinkoService {
	if rng == nil {
		// Drops run concurrently across requests; the shared source
		// must be serialized.
		rng = games.NewLockedSource(games.NewTimeSource())
	}
	return &PlinkoService{
		Ledger:    ledger,
		Allowance: allowance,
		Board:     plinko.NewBoard(),
		RNG:       rng,
		now:       time.Now,
	}
}

// Drop consumes one play and simulates a single ball to exactly one
// terminal slot. A slot backed by a prize is stamped and written to the
// ledger; the no-prize center slots return a nil Prize, which is a
// normal outcome, not an error.
func (s *PlinkoService) Drop(ctx context.Context, userID string) (*PlinkoDropResult, error) {
	dec, err := s.Allowance.CheckAndConsume(ctx, userID, games.Plinko)
	if err != nil {
		return nil, err
	}

	out := s.Board.Drop(s.RNG)
	observability.RecordPlay(games.Plinko.String(), "drop")
	res := &PlinkoDropResult{
		Slot:           out.Slot,
		PegHits:        out.PegHits,
		PlaysRemaining: dec.Remaining,
	}

	won, err := plinko.SlotPrize(out.Slot)
	if err != nil {
		return nil, err
	}
	if won == nil {
		return res, nil
	}

	slot := out.Slot
	entry := domain.NewPrizeEntry(
		uuid.NewString(), userID, games.Plinko,
		*won, prize.Stamp(s.now().UTC()),
		0, &slot,
	)
	if err := s.Ledger.SavePrize(ctx, &entry); err != nil {
		return nil, err
	}
	res.Prize = won
	res.PrizeEntryID = entry.ID
	return res, nil
}
