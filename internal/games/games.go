// Package games defines shared primitives for the reward mini-games:
// the game type tags used to key allowances and prize entries, and the
// injectable randomness source consumed by the Mines board and the
// Plinko drop simulation.
package games

// Type identifies one of the promotional mini-games.
type Type string

const (
	// Plinko is the ball-drop game.
	Plinko Type = "plinko"
	// Mines is the tile-reveal game.
	Mines Type = "mines"
)

// Valid reports whether t names a known game.
func (t Type) Valid() bool {
	return t == Plinko || t == Mines
}

// String returns the wire representation of the game type.
func (t Type) String() string { return string(t) }

// Parse converts a route/request value into a Type. The boolean is
// false for unknown values.
func Parse(s string) (Type, bool) {
	t := Type(s)
	return t, t.Valid()
}
