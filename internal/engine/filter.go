package engine

import (
	"github.com/ramonehamilton/commander-crafter/internal/cards"
)

// LegalityFilter enforces the hard constraints a recommendation must
// satisfy regardless of score: color-identity containment, commander
// self-exclusion, format legality, and an optional price ceiling.
// It is applied after scoring but before top-K truncation so illegal
// cards never consume a ranking slot.
type LegalityFilter struct {
	CommanderName   string
	CommanderColors []string

	// MaxPrice excludes candidates priced above the ceiling. Cards with
	// unknown price pass the filter.
	MaxPrice *float64
}

// Allows reports whether the candidate may appear in the output.
func (f *LegalityFilter) Allows(card *cards.Card) bool {
	if card.Name == f.CommanderName {
		return false
	}
	if !card.CommanderLegal {
		return false
	}
	if !cards.ColorsWithin(card.ColorIdentity, f.CommanderColors) {
		return false
	}
	if f.MaxPrice != nil && card.PriceUSD != nil && *card.PriceUSD > *f.MaxPrice {
		return false
	}
	return true
}
