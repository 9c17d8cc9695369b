// Package cards defines the card data model and the immutable in-memory
// catalog the recommendation engine queries.
package cards

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// WUBRG is the canonical ordering of the five color symbols.
const WUBRG = "WUBRG"

// Stat represents a creature's power or toughness. Variable stats
// ("*", "X", "1+*") carry no numeric value and are bucketed separately
// from fixed values during pattern matching.
type Stat struct {
	Value    int
	Variable bool
}

// ParseStat parses a raw power/toughness string.
// Returns an error for values that are neither numeric nor variable.
func ParseStat(raw string) (Stat, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Stat{}, fmt.Errorf("empty stat value")
	}
	if strings.ContainsAny(s, "*Xx?∞") {
		return Stat{Variable: true}, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Stat{}, fmt.Errorf("unparseable stat value %q", raw)
	}
	return Stat{Value: v}, nil
}

// String renders the stat the way it appears on a card.
func (s Stat) String() string {
	if s.Variable {
		return "*"
	}
	return strconv.Itoa(s.Value)
}

// Card represents a creature known to the engine. Immutable once loaded.
type Card struct {
	// Name is the unique identifier within the catalog.
	Name string

	// OracleText is the canonical rules text. May be empty.
	OracleText string

	// ColorIdentity is the card's color identity in canonical WUBRG
	// order. Empty means colorless.
	ColorIdentity []string

	// Types are the creature subtypes from the type line ("Elf", "Wizard").
	Types []string

	// Keywords are the card's keyword abilities as provided by the data
	// pipeline. May be empty, in which case they are derived from the
	// oracle text at query time.
	Keywords []string

	Power     Stat
	Toughness Stat

	// PriceUSD is the market price, nil when unknown.
	PriceUSD *float64

	// CommanderLegal reports whether the card is legal in the Commander
	// format at all. Illegal cards are never recommended.
	CommanderLegal bool
}

// NormalizeColors validates and canonicalizes a color identity.
// Symbols outside WUBRG are rejected; duplicates are collapsed; the
// result is ordered W, U, B, R, G. An empty identity (colorless) is valid.
func NormalizeColors(colors []string) ([]string, error) {
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		sym := strings.ToUpper(strings.TrimSpace(c))
		if sym == "" {
			continue
		}
		if !strings.Contains(WUBRG, sym) || len(sym) != 1 {
			return nil, fmt.Errorf("invalid color symbol %q", c)
		}
		seen[sym] = true
	}
	result := make([]string, 0, len(seen))
	for _, sym := range []string{"W", "U", "B", "R", "G"} {
		if seen[sym] {
			result = append(result, sym)
		}
	}
	return result, nil
}

// ColorsWithin reports whether candidate's color identity is a subset of
// commander's. A colorless candidate fits any commander; a colorless
// commander admits only colorless candidates.
func ColorsWithin(candidate, commander []string) bool {
	if len(candidate) == 0 {
		return true
	}
	if len(commander) == 0 {
		return false
	}
	allowed := make(map[string]bool, len(commander))
	for _, c := range commander {
		allowed[c] = true
	}
	for _, c := range candidate {
		if !allowed[c] {
			return false
		}
	}
	return true
}

// ShortTextThreshold is the oracle-text length below which the
// similarity signal is considered unreliable.
const ShortTextThreshold = 40

// HasShortText reports whether the card's oracle text is too short to
// trust its text-similarity score.
func (c *Card) HasShortText() bool {
	return len(strings.TrimSpace(c.OracleText)) < ShortTextThreshold
}

// Validate checks the invariants a card must satisfy before entering
// the catalog.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("card has no name")
	}
	normalized, err := NormalizeColors(c.ColorIdentity)
	if err != nil {
		return fmt.Errorf("card %q: %w", c.Name, err)
	}
	c.ColorIdentity = normalized
	if c.PriceUSD != nil && *c.PriceUSD < 0 {
		return fmt.Errorf("card %q: negative price", c.Name)
	}
	return nil
}

// SortNames sorts card names lexicographically in place. Used wherever
// deterministic iteration order matters.
func SortNames(names []string) {
	sort.Strings(names)
}
