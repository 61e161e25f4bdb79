// Package tier models the three subscription levels and the visibility rules
// that depend on them.
package tier

import (
	"fmt"
	"strings"
)

type Tier string

const (
	Free     Tier = "free"
	Standard Tier = "standard"
	Premium  Tier = "premium"
)

// FreeListItems is how many entries of each profile list a free result shows.
const FreeListItems = 2

// Parse accepts the tier name in any case. An empty string is Free.
func Parse(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return Free, nil
	case Free, Standard, Premium:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q: want free, standard or premium", s)
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank orders tiers; unknown tiers rank below Free.
func (t Tier) Rank() int {
	switch t {
	case Free:
		return 0
	case Standard:
		return 1
	case Premium:
		return 2
	}
	return -1
}

// AtLeast reports whether t unlocks everything want does.
func (t Tier) AtLeast(want Tier) bool {
	return t.Rank() >= want.Rank()
}

// Paid reports whether t is a purchased tier.
func (t Tier) Paid() bool { return t.AtLeast(Standard) }

// Max returns the higher of a and b. Purchases never downgrade a lead.
func Max(a, b Tier) Tier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Label is the human name printed on reports.
func (t Tier) Label() string {
	switch t {
	case Premium:
		return "Premium"
	case Standard:
		return "Standard"
	}
	return "Free (Starter)"
}

func (t Tier) String() string { return string(t) }

// VisibleItems returns the part of items that t may see. Free sees the first
// FreeListItems entries; paid tiers see everything. The result never aliases
// items.
func VisibleItems(items []string, t Tier) []string {
	if len(items) == 0 {
		return []string{}
	}
	n := len(items)
	if !t.Paid() && n > FreeListItems {
		n = FreeListItems
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}
