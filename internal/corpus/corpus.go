// Package corpus holds the historical commander→creature co-occurrence
// data the engine learns synergy patterns from.
package corpus

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// PairRecord is one observed commander→creature pairing with its
// co-occurrence count.
type PairRecord struct {
	Commander string
	Creature  string
	Count     int
}

// Validate checks the invariants a pair record must satisfy.
func (p PairRecord) Validate() error {
	if strings.TrimSpace(p.Commander) == "" {
		return fmt.Errorf("pair record has no commander")
	}
	if strings.TrimSpace(p.Creature) == "" {
		return fmt.Errorf("pair record for %q has no creature", p.Commander)
	}
	if p.Count < 0 {
		return fmt.Errorf("pair (%s, %s) has negative count %d", p.Commander, p.Creature, p.Count)
	}
	return nil
}

// PairCorpus is an immutable index of pair records, keyed on
// (commander, creature). Construct once at load time and share
// read-only across queries.
type PairCorpus struct {
	partners   map[string]map[string]int // commander -> creature -> count
	commanders []string
	total      int
}

// NewPairCorpus builds a corpus from pair records. Invalid records are
// skipped with a logged warning; duplicate (commander, creature) keys
// accumulate their counts.
func NewPairCorpus(records []PairRecord) *PairCorpus {
	partners := make(map[string]map[string]int)
	total := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			log.Printf("[PairCorpus] Skipping invalid record: %v", err)
			continue
		}
		m, ok := partners[rec.Commander]
		if !ok {
			m = make(map[string]int)
			partners[rec.Commander] = m
		}
		m[rec.Creature] += rec.Count
		total++
	}

	commanders := make([]string, 0, len(partners))
	for name := range partners {
		commanders = append(commanders, name)
	}
	sort.Strings(commanders)

	return &PairCorpus{partners: partners, commanders: commanders, total: total}
}

// IsKnownPair reports whether the creature is a recorded partner of the
// commander.
func (c *PairCorpus) IsKnownPair(commander, creature string) bool {
	m, ok := c.partners[commander]
	if !ok {
		return false
	}
	_, ok = m[creature]
	return ok
}

// Partners returns the commander's known partner creatures in
// lexicographic order. Returns nil for commanders with no recorded
// pairings.
func (c *PairCorpus) Partners(commander string) []string {
	m, ok := c.partners[commander]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the co-occurrence count for a pair, zero when the pair
// is not recorded.
func (c *PairCorpus) Count(commander, creature string) int {
	return c.partners[commander][creature]
}

// Commanders returns all commanders with at least one recorded partner,
// in lexicographic order.
func (c *PairCorpus) Commanders() []string {
	return c.commanders
}

// Len returns the number of valid records loaded.
func (c *PairCorpus) Len() int {
	return c.total
}
