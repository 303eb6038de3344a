// Package plinko implements the Plinko mini-game: a single ball dropped
// through a staggered peg pyramid into one of 13 prize slots. Edge
// slots are hardest to reach and carry the best prizes; the three
// center slots award nothing.
//
// The simulation is pure arithmetic over an injected randomness source:
// no I/O, deterministic distribution under a fixed seed, and a bounded
// step count so every drop terminates.
package plinko

import (
	"fmt"

	"github.com/moonbrew/go-rewards-backend/internal/prize"
)

// SlotCount is the number of landing slots at the bottom of the board.
const SlotCount = 13

// Slots maps each landing slot, left to right, to its prize. The layout
// is symmetric: rare edges pay best, the common center pays nothing.
var Slots = [SlotCount]prize.Prize{
	{ID: "free_drink_left", Type: prize.TypeFreeDrink, Label: "Free Drink", Value: "drink"},
	{ID: "discount_20_left", Type: prize.TypeDiscount20, Label: "20% Off", Value: "20"},
	{ID: "discount_15_left", Type: prize.TypeDiscount15, Label: "15% Off", Value: "15"},
	{ID: "discount_10_left", Type: prize.TypeDiscount10, Label: "10% Off", Value: "10"},
	{ID: "discount_5_left", Type: prize.TypeDiscount5, Label: "5% Off", Value: "5"},
	{ID: "better_luck_left", Type: prize.TypeBetterLuck, Label: "Better Luck", Value: "0"},
	{ID: "better_luck_center", Type: prize.TypeBetterLuck, Label: "Better Luck", Value: "0"},
	{ID: "better_luck_right", Type: prize.TypeBetterLuck, Label: "Better Luck", Value: "0"},
	{ID: "discount_5_right", Type: prize.TypeDiscount5, Label: "5% Off", Value: "5"},
	{ID: "discount_10_right", Type: prize.TypeDiscount10, Label: "10% Off", Value: "10"},
	{ID: "discount_15_right", Type: prize.TypeDiscount15, Label: "15% Off", Value: "15"},
	{ID: "discount_20_right", Type: prize.TypeDiscount20, Label: "20% Off", Value: "20"},
	{ID: "free_drink_right", Type: prize.TypeFreeDrink, Label: "Free Drink", Value: "drink"},
}

// SlotPrize returns the prize behind slot, or nil for the no-prize
// center slots. It errors on an out-of-range slot.
func SlotPrize(slot int) (*prize.Prize, error) {
	if slot < 0 || slot >= SlotCount {
		return nil, fmt.Errorf("slot %d out of range [0,%d)", slot, SlotCount)
	}
	p := Slots[slot]
	if !p.Awardable() {
		return nil, nil
	}
	return &p, nil
}
