// Package mines implements the Mines mini-game: a 25-tile board with a
// configurable number of hidden mines, a reveal-by-reveal payout
// multiplier, and a cash-out escape hatch.
//
// The board is a small state machine (playing → won|lost) with no I/O
// and no ambient state; randomness is injected at construction so tests
// can fix the mine layout. A Board is not safe for concurrent use — the
// owning session must serialize reveals (see services.MinesService).
package mines

import (
	"errors"
	"fmt"
)

// TileState is the lifecycle of a single board tile.
type TileState uint8

const (
	// TileHidden is the initial state of every tile.
	TileHidden TileState = iota
	// TileRevealedSafe marks a revealed tile that held no mine.
	TileRevealedSafe
	// TileRevealedMine marks the mine reveal that ended the board.
	TileRevealedMine
)

// String returns the wire representation of the tile state.
func (s TileState) String() string {
	switch s {
	case TileRevealedSafe:
		return "revealed-safe"
	case TileRevealedMine:
		return "revealed-mine"
	default:
		return "hidden"
	}
}

// Status is the lifecycle of a board.
type Status uint8

const (
	// StatusPlaying accepts reveals and cash-outs.
	StatusPlaying Status = iota
	// StatusWon is terminal: the player cleared or cashed out.
	StatusWon
	// StatusLost is terminal: the player revealed a mine.
	StatusLost
)

// String returns the wire representation of the board status.
func (s Status) String() string {
	switch s {
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	default:
		return "playing"
	}
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool { return s != StatusPlaying }

// Board errors. All are ordinary gameplay rejections, never faults;
// losing is a legal transition, not an error.
var (
	// ErrMinesCount rejects construction with an out-of-range mine count.
	ErrMinesCount = fmt.Errorf("mines count must be between %d and %d", MinMines, MaxMines)
	// ErrNotPlaying rejects actions against a terminal board.
	ErrNotPlaying = errors.New("board is not in play")
	// ErrNoSuchTile rejects a reveal targeting a tile id outside the board.
	ErrNoSuchTile = errors.New("tile does not exist")
	// ErrTileRevealed rejects revealing a tile twice.
	ErrTileRevealed = errors.New("tile already revealed")
)

// Tile is one cell of the board.
type Tile struct {
	ID     int
	State  TileState
	IsMine bool
}

// mineLayout is the randomness contract the board needs; *rand.Rand and
// games.Source both satisfy it.
type mineLayout interface {
	Perm(n int) []int
}

// Board is one in-progress Mines game. Mine positions are fixed at
// construction and never mutated afterwards; revealedCount only grows;
// a mine reveal is terminal.
type Board struct {
	tiles      [TotalTiles]Tile
	minesCount int
	revealed   int
	status     Status
	multiplier float64
}

// NewBoard creates a playing board with minesCount mines placed
// uniformly at random via rng. It fails with ErrMinesCount when the
// count is outside [MinMines, MaxMines].
func NewBoard(minesCount int, rng mineLayout) (*Board, error) {
	if minesCount < MinMines || minesCount > MaxMines {
		return nil, ErrMinesCount
	}
	b := &Board{
		minesCount: minesCount,
		status:     StatusPlaying,
		multiplier: 1.0,
	}
	for i := range b.tiles {
		b.tiles[i] = Tile{ID: i, State: TileHidden}
	}
	for _, pos := range rng.Perm(TotalTiles)[:minesCount] {
		b.tiles[pos].IsMine = true
	}
	return b, nil
}

// Reveal uncovers tile id.
//
// On a safe tile the multiplier is recomputed and, when every safe tile
// is revealed, the board transitions to won at the maximal multiplier.
// On a mine the board transitions to lost with the multiplier frozen at
// its pre-reveal value. Invalid reveals leave the board unchanged.
func (b *Board) Reveal(id int) error {
	if b.status.Terminal() {
		return ErrNotPlaying
	}
	if id < 0 || id >= TotalTiles {
		return ErrNoSuchTile
	}
	t := &b.tiles[id]
	if t.State != TileHidden {
		return ErrTileRevealed
	}

	if t.IsMine {
		t.State = TileRevealedMine
		b.status = StatusLost
		// multiplier keeps the value it had before this reveal
		return nil
	}

	t.State = TileRevealedSafe
	b.revealed++
	b.multiplier = Multiplier(b.revealed, b.minesCount)
	if b.revealed == TotalTiles-b.minesCount {
		b.status = StatusWon
	}
	return nil
}

// CashOut ends the board immediately at the current multiplier,
// transitioning to won. Only legal while playing.
func (b *Board) CashOut() error {
	if b.status.Terminal() {
		return ErrNotPlaying
	}
	b.status = StatusWon
	return nil
}

// Status returns the board lifecycle state.
func (b *Board) Status() Status { return b.status }

// MinesCount returns the configured number of mines.
func (b *Board) MinesCount() int { return b.minesCount }

// RevealedCount returns how many safe tiles have been revealed.
func (b *Board) RevealedCount() int { return b.revealed }

// Multiplier returns the current payout multiplier.
func (b *Board) Multiplier() float64 { return b.multiplier }

// Tiles returns a copy of the board. While the board is in play, mine
// positions under hidden tiles are masked so the view can be returned
// to the client without leaking the layout; terminal boards expose the
// full layout.
func (b *Board) Tiles() []Tile {
	out := make([]Tile, TotalTiles)
	copy(out, b.tiles[:])
	if !b.status.Terminal() {
		for i := range out {
			if out[i].State == TileHidden {
				out[i].IsMine = false
			}
		}
	}
	return out
}
