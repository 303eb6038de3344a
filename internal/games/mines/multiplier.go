package mines

import "math"

// Multiplier growth constants. These are fixed product inputs, not
// runtime configuration: changing them changes every payout.
const (
	// TotalTiles is the board size.
	TotalTiles = 25
	// MinMines and MaxMines bound the configurable mine count; at least
	// one tile must stay safe.
	MinMines = 1
	MaxMines = TotalTiles - 1

	// growthExponent > 1 makes early reveals cheap and late reveals
	// expensive, so the multiplier accelerates toward the end of a run.
	growthExponent = 1.8
	// minesFactorCoef scales how much a denser minefield boosts payout.
	minesFactorCoef = 0.5
)

// Multiplier computes the payout multiplier after revealed safe tiles
// on a board with mines mines:
//
//	progress    = revealed / (25 - mines)
//	growth      = progress ^ 1.8
//	minesFactor = 1 + (mines / 25) * 0.5
//	result      = round(1 + growth * 2 * minesFactor, 2 dp)
//
// It is exactly 1.0 at zero reveals and non-decreasing in revealed for
// a fixed mine count. The rounding (half away from zero, two decimal
// places) is part of the contract; downstream prize thresholds compare
// against the rounded value.
func Multiplier(revealed, mines int) float64 {
	if revealed == 0 {
		return 1.0
	}
	safeTiles := TotalTiles - mines
	progress := float64(revealed) / float64(safeTiles)
	growth := math.Pow(progress, growthExponent)
	minesFactor := 1 + float64(mines)/float64(TotalTiles)*minesFactorCoef
	m := 1 + growth*2*minesFactor
	return math.Round(m*100) / 100
}

// MaxMultiplier is the multiplier for a fully cleared board.
func MaxMultiplier(mines int) float64 {
	return Multiplier(TotalTiles-mines, mines)
}
