// Package prize implements the reward catalog shared by both
// mini-games: the prize definitions, the threshold-based resolver used
// by Mines, and award stamping (won/expiry timestamps).
//
// Resolution is a pure function over a fixed catalog: the same achieved
// multiplier always yields the same prize decision. Timestamp stamping
// is deliberately separated from selection so both halves stay testable
// in isolation.
package prize

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ExpiryWindow is how long an awarded prize stays redeemable.
const ExpiryWindow = 30 * 24 * time.Hour

// Prize types shared across catalogs. The "better luck" type marks a
// Plinko slot that awards nothing.
const (
	TypeFreeDrink  = "free_drink"
	TypeDiscount20 = "discount_20"
	TypeDiscount15 = "discount_15"
	TypeDiscount10 = "discount_10"
	TypeDiscount5  = "discount_5"
	TypeBetterLuck = "better_luck"
)

// Prize is a single awardable reward definition.
//
// Threshold is the qualifying multiplier for threshold-resolved
// catalogs (Mines). Slot-mapped catalogs (Plinko) leave it at zero and
// select by position instead.
type Prize struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	Value     string  `json:"value"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Awardable reports whether winning this prize produces a ledger entry.
// "Better luck" placeholders award nothing.
func (p Prize) Awardable() bool { return p.Type != TypeBetterLuck }

// Catalog is a fixed, ordered set of prize definitions resolved by
// qualifying multiplier. It is immutable after construction and safe
// for concurrent use.
type Catalog struct {
	entries []Prize
	// ranked holds the entries sorted by threshold descending. The sort
	// is stable so that equal thresholds keep declaration order, which
	// is the documented tie-break.
	ranked []Prize
}

// NewCatalog validates and builds a threshold catalog. Construction
// fails on an empty catalog, duplicate IDs, or non-positive thresholds:
// a misconfigured catalog is a programming error that must surface at
// startup, not at play time.
func NewCatalog(entries []Prize) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("prize catalog must not be empty")
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New("prize catalog entry missing id")
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate prize id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Threshold <= 0 {
			return nil, fmt.Errorf("prize %q has non-positive threshold %v", e.ID, e.Threshold)
		}
	}

	c := &Catalog{
		entries: append([]Prize(nil), entries...),
		ranked:  append([]Prize(nil), entries...),
	}
	sort.SliceStable(c.ranked, func(i, j int) bool {
		return c.ranked[i].Threshold > c.ranked[j].Threshold
	})
	return c, nil
}

// MustCatalog is NewCatalog that panics on error. Intended for package
// level catalog construction where a bad catalog should abort startup.
func MustCatalog(entries []Prize) *Catalog {
	c, err := NewCatalog(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns the catalog in declaration order (a copy).
func (c *Catalog) Entries() []Prize {
	return append([]Prize(nil), c.entries...)
}

// Resolve returns the best prize whose threshold is less than or equal
// to the achieved multiplier, or nil when no entry qualifies. Ties at
// equal thresholds are broken by catalog declaration order.
func (c *Catalog) Resolve(multiplier float64) *Prize {
	for i := range c.ranked {
		if multiplier >= c.ranked[i].Threshold {
			p := c.ranked[i]
			return &p
		}
	}
	return nil
}
