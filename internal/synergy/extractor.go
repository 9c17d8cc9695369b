// Package synergy derives consensus synergy profiles for commanders
// from their historical partner creatures, and matches candidate cards
// against those profiles.
package synergy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ramonehamilton/commander-crafter/internal/cards"
	"github.com/ramonehamilton/commander-crafter/internal/corpus"
)

// Thresholds control when a signal counts as consensus across a
// commander's known partners.
type Thresholds struct {
	// Consensus is the fraction of partners that must share a keyword
	// or creature type for it to enter the profile.
	Consensus float64

	// PowerQuorum is the fraction of fixed-stat partners that must sit
	// in a power bucket for the power pattern to hold.
	PowerQuorum float64

	// ToughnessQuorum is the fraction of fixed-stat partners with
	// toughness greater than power for the toughness pattern to hold.
	ToughnessQuorum float64

	// HighPower and LowPower bound the power buckets.
	HighPower int
	LowPower  int
}

// DefaultThresholds returns the documented consensus defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Consensus:       0.80,
		PowerQuorum:     0.75,
		ToughnessQuorum: 0.80,
		HighPower:       4,
		LowPower:        2,
	}
}

// Profile is the consensus synergy profile of one commander, built
// fresh from the pair corpus at query time.
type Profile struct {
	Commander    string
	PartnerCount int

	// Keywords and Types are the consensus sets, sorted.
	Keywords []string
	Types    []string

	// KeywordFreq and TypeFreq record how many partners carried each
	// consensus signal, for explainability.
	KeywordFreq map[string]int
	TypeFreq    map[string]int

	// Power/toughness patterns across fixed-stat partners. Variable
	// stats form their own bucket and never match numerically.
	HighPower     bool
	LowPower      bool
	VariablePower bool
	HighToughness bool
}

// Signals are the per-candidate pattern match results against a profile.
type Signals struct {
	KeywordMatch   bool
	TypeMatch      bool
	PowerMatch     bool
	ToughnessMatch bool

	// MatchedKeyword and MatchedType name the first signal that
	// matched, for explanation strings.
	MatchedKeyword string
	MatchedType    string
}

// Extractor builds synergy profiles over an immutable catalog/corpus
// snapshot. All methods are pure and safe for concurrent use.
type Extractor struct {
	catalog    *cards.Catalog
	corpus     *corpus.PairCorpus
	thresholds Thresholds
}

// NewExtractor creates a pattern extractor over the given snapshot.
func NewExtractor(catalog *cards.Catalog, pairs *corpus.PairCorpus, thresholds Thresholds) *Extractor {
	return &Extractor{catalog: catalog, corpus: pairs, thresholds: thresholds}
}

// Profile computes the consensus profile for a commander. A commander
// with no recorded partners (or none resolvable in the catalog) gets an
// empty profile: no keywords, no types, no patterns.
func (e *Extractor) Profile(commander string) *Profile {
	p := &Profile{
		Commander:   commander,
		KeywordFreq: make(map[string]int),
		TypeFreq:    make(map[string]int),
	}

	keywordCounts := make(map[string]int)
	typeCounts := make(map[string]int)
	var fixedPowers, fixedToughPairs int
	var highPower, lowPower, variablePower, highToughness int

	for _, name := range e.corpus.Partners(commander) {
		card, ok := e.catalog.Get(name)
		if !ok {
			continue
		}
		p.PartnerCount++

		seen := make(map[string]bool)
		for _, kw := range CardKeywords(card) {
			if !seen[kw] {
				seen[kw] = true
				keywordCounts[kw]++
			}
		}
		seenType := make(map[string]bool)
		for _, t := range card.Types {
			if t != "" && !seenType[t] {
				seenType[t] = true
				typeCounts[t]++
			}
		}

		if card.Power.Variable {
			variablePower++
		} else {
			fixedPowers++
			if card.Power.Value >= e.thresholds.HighPower {
				highPower++
			}
			if card.Power.Value <= e.thresholds.LowPower {
				lowPower++
			}
		}
		if !card.Power.Variable && !card.Toughness.Variable {
			fixedToughPairs++
			if card.Toughness.Value > card.Power.Value {
				highToughness++
			}
		}
	}

	if p.PartnerCount == 0 {
		return p
	}

	quorum := func(count, total int, threshold float64) bool {
		return total > 0 && float64(count)/float64(total) >= threshold
	}

	for kw, count := range keywordCounts {
		if quorum(count, p.PartnerCount, e.thresholds.Consensus) {
			p.Keywords = append(p.Keywords, kw)
			p.KeywordFreq[kw] = count
		}
	}
	sort.Strings(p.Keywords)

	for t, count := range typeCounts {
		if quorum(count, p.PartnerCount, e.thresholds.Consensus) {
			p.Types = append(p.Types, t)
			p.TypeFreq[t] = count
		}
	}
	sort.Strings(p.Types)

	p.HighPower = quorum(highPower, fixedPowers, e.thresholds.PowerQuorum)
	p.LowPower = quorum(lowPower, fixedPowers, e.thresholds.PowerQuorum)
	p.VariablePower = quorum(variablePower, p.PartnerCount, e.thresholds.PowerQuorum)
	p.HighToughness = quorum(highToughness, fixedToughPairs, e.thresholds.ToughnessQuorum)

	return p
}

// Match evaluates a candidate card against a commander's profile.
func (e *Extractor) Match(card *cards.Card, p *Profile) Signals {
	var s Signals

	candidateKeywords := CardKeywords(card)
	for _, kw := range p.Keywords {
		for _, ckw := range candidateKeywords {
			if kw == ckw {
				s.KeywordMatch = true
				s.MatchedKeyword = kw
				break
			}
		}
		if s.KeywordMatch {
			break
		}
	}

	for _, t := range p.Types {
		for _, ct := range card.Types {
			if t == ct {
				s.TypeMatch = true
				s.MatchedType = t
				break
			}
		}
		if s.TypeMatch {
			break
		}
	}

	if card.Power.Variable {
		s.PowerMatch = p.VariablePower
	} else {
		if p.HighPower && card.Power.Value >= e.thresholds.HighPower {
			s.PowerMatch = true
		}
		if p.LowPower && card.Power.Value <= e.thresholds.LowPower {
			s.PowerMatch = true
		}
	}

	if p.HighToughness && !card.Power.Variable && !card.Toughness.Variable &&
		card.Toughness.Value > card.Power.Value {
		s.ToughnessMatch = true
	}

	return s
}

// keywordPattern matches the common evergreen keyword abilities in
// oracle text.
var keywordPattern = regexp.MustCompile(`\b(flying|trample|haste|vigilance|lifelink|deathtouch|first strike|double strike|menace|reach|flash|hexproof|indestructible|defender|protection|ward|prowess)\b`)

// CardKeywords returns the card's keyword abilities, lower-cased.
// Cards loaded without explicit keyword data fall back to extraction
// from the oracle text.
func CardKeywords(card *cards.Card) []string {
	if len(card.Keywords) > 0 {
		out := make([]string, 0, len(card.Keywords))
		for _, kw := range card.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				out = append(out, kw)
			}
		}
		return out
	}
	return ExtractKeywords(card.OracleText)
}

// ExtractKeywords extracts keyword abilities from oracle text.
func ExtractKeywords(oracleText string) []string {
	lower := strings.ToLower(oracleText)

	matches := keywordPattern.FindAllString(lower, -1)
	var found []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m] {
			found = append(found, m)
			seen[m] = true
		}
	}
	return found
}
