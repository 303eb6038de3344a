// Package services – MinesService
//
// This file manages Mines play sessions: one in-progress board per
// user, created after an allowance check, mutated only by reveal and
// cash-out, and finalized through the prize resolver into the reward
// ledger. All mutations of a given board run under that session's
// mutex, so a mine-triggering reveal can never race a safe reveal into
// an inconsistent terminal state.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moonbrew/go-rewards-backend/internal/domain"
	"github.com/moonbrew/go-rewards-backend/internal/games"
	"github.com/moonbrew/go-rewards-backend/internal/games/mines"
	"github.com/moonbrew/go-rewards-backend/internal/observability"
	"github.com/moonbrew/go-rewards-backend/internal/prize"
)

// PrizeLedger is the outbound contract for persisting awarded prizes.
// The concrete implementation wraps the prize repository; tests inject
// a fake to observe saved entries.
type PrizeLedger interface {
	// SavePrize persists a finalized ledger entry keyed by its user.
	SavePrize(ctx context.Context, e *domain.PrizeEntry) error
}

// AllowanceChecker is the inbound guard every play start passes through.
type AllowanceChecker interface {
	// CheckAndConsume atomically spends one play or returns
	// ErrAllowanceExhausted.
	CheckAndConsume(ctx context.Context, userID string, game games.Type) (AllowanceDecision, error)
}

// TileView is the client-facing projection of one board tile. IsMine is
// only populated once the board is terminal.
type TileView struct {
	ID     int    `json:"id"`
	State  string `json:"state"`
	IsMine bool   `json:"is_mine,omitempty"`
}

// MinesSessionState is the client-facing projection of a session,
// returned by every operation. Prize and PrizeEntryID are set only on
// the transition into won.
type MinesSessionState struct {
	Status         string       `json:"status"`
	MinesCount     int          `json:"mines_count"`
	RevealedCount  int          `json:"revealed_count"`
	Multiplier     float64      `json:"multiplier"`
	Tiles          []TileView   `json:"tiles"`
	StartedAt      time.Time    `json:"started_at"`
	PlaysRemaining int          `json:"plays_remaining"`
	Prize          *prize.Prize `json:"prize,omitempty"`
	PrizeEntryID   string       `json:"prize_entry_id,omitempty"`
}

// minesSession is one user's in-progress board.
type minesSession struct {
	mu        sync.Mutex
	board     *mines.Board
	startedAt time.Time
	remaining int
	finalized bool
}

// MinesService orchestrates Mines gameplay. It is safe for concurrent
// use: the session map has its own lock and each board is serialized by
// its session mutex.
type MinesService struct {
	// Ledger persists won prizes.
	Ledger PrizeLedger
	// Allowance guards play starts.
	Allowance AllowanceChecker
	// Catalog resolves final multipliers to prizes.
	Catalog *prize.Catalog
	// RNG places mines; inject a seeded source for deterministic tests.
	RNG games.Source

	// now is a test seam; defaults to time.Now.
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*minesSession
}

// NewMinesService constructs a MinesService over the given
// collaborators. A nil rng falls back to a time-seeded source.
func NewMinesService(ledger PrizeLedger, allowance AllowanceChecker, rng games.Source) *MinesService {
	if rng == nil {
		rng = games.NewTimeSource()
	}
	return &MinesService{
		Ledger:    ledger,
		Allowance: allowance,
		Catalog:   mines.Catalog,
		RNG:       rng,
		now:       time.Now,
		sessions:  make(map[string]*minesSession),
	}
}

// Start consumes one play and opens a fresh board for userID. An
// abandoned in-progress board for the same user is discarded without a
// prize, preserving the one-active-session-per-user invariant. Returns
// ErrAllowanceExhausted when no plays remain and mines.ErrMinesCount
// for an out-of-range mine count (checked before any allowance spend).
func (s *MinesService) Start(ctx context.Context, userID string, minesCount int) (*MinesSessionState, error) {
	if minesCount < mines.MinMines || minesCount > mines.MaxMines {
		return nil, mines.ErrMinesCount
	}

	dec, err := s.Allowance.CheckAndConsume(ctx, userID, games.Mines)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	board, err := mines.NewBoard(minesCount, s.RNG)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess := &minesSession{
		board:     board,
		startedAt: s.now(),
		remaining: dec.Remaining,
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	return s.view(sess, nil, ""), nil
}

// Reveal uncovers a tile on the user's active board. On the winning
// reveal (all safe tiles cleared) the prize is finalized at the maximal
// multiplier and written to the ledger. Rejected reveals leave the
// session unchanged: ErrNoSession without a board, ErrSessionOver after
// a terminal transition, and the board's tile errors otherwise.
func (s *MinesService) Reveal(ctx context.Context, userID string, tileID int) (*MinesSessionState, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.board.Status().Terminal() {
		return nil, ErrSessionOver
	}
	if err := sess.board.Reveal(tileID); err != nil {
		return nil, err
	}
	switch sess.board.Status() {
	case mines.StatusWon:
		observability.RecordPlay(games.Mines.String(), "won")
		return s.finalize(ctx, userID, sess)
	case mines.StatusLost:
		observability.RecordPlay(games.Mines.String(), "lost")
	}
	return s.view(sess, nil, ""), nil
}

// CashOut ends the user's active board immediately at its current
// multiplier and finalizes the prize, letting the player bank progress
// without risking a mine.
func (s *MinesService) CashOut(ctx context.Context, userID string) (*MinesSessionState, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.board.Status().Terminal() {
		return nil, ErrSessionOver
	}
	if err := sess.board.CashOut(); err != nil {
		return nil, err
	}
	observability.RecordPlay(games.Mines.String(), "cashout")
	return s.finalize(ctx, userID, sess)
}

// State returns the current session view without mutating anything.
func (s *MinesService) State(ctx context.Context, userID string) (*MinesSessionState, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess, nil, ""), nil
}

// session looks up the user's live session.
func (s *MinesService) session(userID string) (*minesSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// finalize resolves the terminal board into a prize decision and, when
// a prize qualifies, stamps and persists the ledger entry. Called with
// the session mutex held, exactly once per board: a lost board awards
// nothing and a won board awards at its final multiplier.
func (s *MinesService) finalize(ctx context.Context, userID string, sess *minesSession) (*MinesSessionState, error) {
	if sess.finalized {
		return s.view(sess, nil, ""), nil
	}
	sess.finalized = true

	if sess.board.Status() != mines.StatusWon {
		return s.view(sess, nil, ""), nil
	}

	won := s.Catalog.Resolve(sess.board.Multiplier())
	if won == nil {
		return s.view(sess, nil, ""), nil
	}

	entry := domain.NewPrizeEntry(
		uuid.NewString(), userID, games.Mines,
		*won, prize.Stamp(s.now().UTC()),
		sess.board.Multiplier(), nil,
	)
	if err := s.Ledger.SavePrize(ctx, &entry); err != nil {
		return nil, err
	}
	return s.view(sess, won, entry.ID), nil
}

// view projects a session into its client-facing state.
func (s *MinesService) view(sess *minesSession, won *prize.Prize, entryID string) *MinesSessionState {
	tiles := sess.board.Tiles()
	views := make([]TileView, len(tiles))
	for i, t := range tiles {
		views[i] = TileView{ID: t.ID, State: t.State.String(), IsMine: t.IsMine}
	}
	return &MinesSessionState{
		Status:         sess.board.Status().String(),
		MinesCount:     sess.board.MinesCount(),
		RevealedCount:  sess.board.RevealedCount(),
		Multiplier:     sess.board.Multiplier(),
		Tiles:          views,
		StartedAt:      sess.startedAt,
		PlaysRemaining: sess.remaining,
		Prize:          won,
		PrizeEntryID:   entryID,
	}
}
