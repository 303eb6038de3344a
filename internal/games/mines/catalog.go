package mines

import "github.com/moonbrew/go-rewards-backend/internal/prize"

// Catalog is the Mines prize ladder: higher multipliers qualify for
// better prizes. Resolution picks the best entry whose threshold the
// final multiplier meets; below 1.2 the run awards nothing.
var Catalog = prize.MustCatalog([]prize.Prize{
	{ID: "mines_free_drink", Type: prize.TypeFreeDrink, Label: "Free Drink", Value: "drink", Threshold: 3.0},
	{ID: "mines_discount_20", Type: prize.TypeDiscount20, Label: "20% Off", Value: "20", Threshold: 2.5},
	{ID: "mines_discount_15", Type: prize.TypeDiscount15, Label: "15% Off", Value: "15", Threshold: 2.0},
	{ID: "mines_discount_10", Type: prize.TypeDiscount10, Label: "10% Off", Value: "10", Threshold: 1.5},
	{ID: "mines_discount_5", Type: prize.TypeDiscount5, Label: "5% Off", Value: "5", Threshold: 1.2},
})
