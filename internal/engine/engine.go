// Package engine orchestrates the commander recommendation pipeline:
// text similarity, pattern boosting, score fusion, and legality
// filtering over an immutable data snapshot.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"github.com/ramonehamilton/commander-crafter/internal/cards"
	"github.com/ramonehamilton/commander-crafter/internal/corpus"
	"github.com/ramonehamilton/commander-crafter/internal/scoring"
	"github.com/ramonehamilton/commander-crafter/internal/synergy"
	"github.com/ramonehamilton/commander-crafter/internal/textindex"
)

// snapshot bundles everything a query reads. Queries load it once and
// never see a half-updated state; Reload swaps the whole snapshot.
type snapshot struct {
	catalog   *cards.Catalog
	pairs     *corpus.PairCorpus
	index     *textindex.Index
	extractor *synergy.Extractor
}

// Options configure an engine instance.
type Options struct {
	Weights    scoring.Weights
	Thresholds synergy.Thresholds
}

// DefaultOptions returns the documented default weights and thresholds.
func DefaultOptions() Options {
	return Options{
		Weights:    scoring.DefaultWeights(),
		Thresholds: synergy.DefaultThresholds(),
	}
}

// Engine produces ranked, filtered, explainable creature
// recommendations for a commander. Safe for concurrent queries; Reload
// is the only mutating operation.
type Engine struct {
	snap       atomic.Pointer[snapshot]
	weights    scoring.Weights
	thresholds synergy.Thresholds
}

// New builds an engine over the loaded catalog and pair corpus. The
// TF-IDF index is fitted once here and held read-only.
func New(catalog *cards.Catalog, pairs *corpus.PairCorpus, opts Options) (*Engine, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}
	e := &Engine{
		weights:    opts.Weights,
		thresholds: opts.Thresholds,
	}
	if err := e.Reload(catalog, pairs); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload replaces the engine's data snapshot. It fits a fresh TF-IDF
// index over the new catalog and swaps atomically: in-flight queries
// complete against the prior snapshot, new queries see the new one.
func (e *Engine) Reload(catalog *cards.Catalog, pairs *corpus.PairCorpus) error {
	if catalog == nil || catalog.Len() == 0 {
		return fmt.Errorf("cannot load engine: catalog is empty")
	}
	if pairs == nil {
		pairs = corpus.NewPairCorpus(nil)
	}

	docs := make([]textindex.Document, 0, catalog.Len())
	for _, name := range catalog.Names() {
		card, _ := catalog.Get(name)
		docs = append(docs, textindex.Document{Name: name, Text: card.OracleText})
	}
	index := textindex.Fit(docs)

	log.Printf("[Engine] Loaded %d cards, %d pair records, %d text dimensions",
		catalog.Len(), pairs.Len(), index.Dimensions())

	e.snap.Store(&snapshot{
		catalog:   catalog,
		pairs:     pairs,
		index:     index,
		extractor: synergy.NewExtractor(catalog, pairs, e.thresholds),
	})
	return nil
}

// Query holds the per-request options for Recommend.
type Query struct {
	// TopK caps the number of results. Zero or negative means the
	// default of 100.
	TopK int

	// MaxPrice excludes candidates priced above the ceiling when set.
	MaxPrice *float64

	// ExcludeKnown drops already-recorded pairs entirely instead of
	// penalizing them.
	ExcludeKnown bool
}

// DefaultTopK is the result cap applied when a query does not set one.
const DefaultTopK = 100

// Recommendation is one scored candidate with the component scores that
// produced it.
type Recommendation struct {
	Name           string   `json:"creature_name"`
	ColorIdentity  []string `json:"color_identity"`
	PowerToughness string   `json:"power_toughness"`
	PriceUSD       *float64 `json:"price_usd,omitempty"`
	IsKnown        bool     `json:"is_known"`
	scoring.Breakdown
}

// Recommend returns up to TopK candidates for the commander, ranked by
// fused score, ties broken by name. Every returned candidate satisfies
// the legality constraints; a malformed candidate is skipped with a
// logged warning rather than aborting the query.
func (e *Engine) Recommend(ctx context.Context, commanderName string, q Query) ([]Recommendation, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, textindex.ErrNotFitted
	}

	commander, ok := snap.catalog.Get(commanderName)
	if !ok || !commander.CommanderLegal {
		return nil, &UnknownCommanderError{Name: commanderName}
	}

	profile := snap.extractor.Profile(commanderName)
	target, err := e.targetVector(snap, commander)
	if err != nil {
		return nil, err
	}

	filter := &LegalityFilter{
		CommanderName:   commanderName,
		CommanderColors: commander.ColorIdentity,
		MaxPrice:        q.MaxPrice,
	}

	results := make([]Recommendation, 0, 256)
	for i, name := range snap.catalog.Names() {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if name == commanderName {
			continue
		}
		card, _ := snap.catalog.Get(name)

		isKnown := snap.pairs.IsKnownPair(commanderName, name)
		if q.ExcludeKnown && isKnown {
			continue
		}

		rec, err := e.scoreCandidate(snap, card, target, profile, isKnown)
		if err != nil {
			log.Printf("[Engine] Skipping candidate %q: %v", name, err)
			continue
		}
		if !filter.Allows(card) {
			continue
		}
		results = append(results, rec)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Final != results[j].Final {
			return results[i].Final > results[j].Final
		}
		return results[i].Name < results[j].Name
	})

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// targetVector computes the vector candidates are compared against:
// the centroid of the commander's known partners, or the commander's
// own text vector when no partner has usable text (cold start).
func (e *Engine) targetVector(snap *snapshot, commander *cards.Card) (textindex.Vector, error) {
	var vectors []textindex.Vector
	for _, partner := range snap.pairs.Partners(commander.Name) {
		if _, ok := snap.catalog.Get(partner); !ok {
			continue
		}
		vec, err := snap.index.Vector(partner)
		if err != nil {
			return nil, err
		}
		if len(vec) > 0 {
			vectors = append(vectors, vec)
		}
	}
	if len(vectors) > 0 {
		return textindex.Mean(vectors), nil
	}
	return snap.index.Vector(commander.Name)
}

// scoreCandidate computes the fused score for one candidate.
func (e *Engine) scoreCandidate(snap *snapshot, card *cards.Card, target textindex.Vector, profile *synergy.Profile, isKnown bool) (Recommendation, error) {
	if card == nil {
		return Recommendation{}, fmt.Errorf("missing card record")
	}
	vec, err := snap.index.Vector(card.Name)
	if err != nil {
		return Recommendation{}, err
	}

	base := textindex.Cosine(target, vec)
	signals := snap.extractor.Match(card, profile)
	breakdown := scoring.Fuse(base, signals, isKnown, card.HasShortText(), e.weights)

	return Recommendation{
		Name:           card.Name,
		ColorIdentity:  card.ColorIdentity,
		PowerToughness: card.Power.String() + "/" + card.Toughness.String(),
		PriceUSD:       card.PriceUSD,
		IsKnown:        isKnown,
		Breakdown:      breakdown,
	}, nil
}

// CommanderInfo summarizes the consensus patterns learned for a
// commander, for display alongside its recommendations.
type CommanderInfo struct {
	Name              string         `json:"name"`
	ColorIdentity     []string       `json:"color_identity"`
	PartnerCount      int            `json:"partner_count"`
	ConsensusKeywords map[string]int `json:"consensus_keywords"`
	ConsensusTypes    map[string]int `json:"consensus_types"`
	HighPower         bool           `json:"high_power"`
	LowPower          bool           `json:"low_power"`
	HighToughness     bool           `json:"high_toughness"`
}

// Info returns the commander's synergy profile summary.
func (e *Engine) Info(commanderName string) (*CommanderInfo, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, textindex.ErrNotFitted
	}
	commander, ok := snap.catalog.Get(commanderName)
	if !ok || !commander.CommanderLegal {
		return nil, &UnknownCommanderError{Name: commanderName}
	}
	profile := snap.extractor.Profile(commanderName)
	return &CommanderInfo{
		Name:              commanderName,
		ColorIdentity:     commander.ColorIdentity,
		PartnerCount:      profile.PartnerCount,
		ConsensusKeywords: profile.KeywordFreq,
		ConsensusTypes:    profile.TypeFreq,
		HighPower:         profile.HighPower,
		LowPower:          profile.LowPower,
		HighToughness:     profile.HighToughness,
	}, nil
}

// Commanders lists the commanders with recorded pair data that resolve
// to commander-legal catalog cards, in lexicographic order.
func (e *Engine) Commanders() []string {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	var names []string
	for _, name := range snap.pairs.Commanders() {
		if card, ok := snap.catalog.Get(name); ok && card.CommanderLegal {
			names = append(names, name)
		}
	}
	return names
}

// CatalogSize reports the number of loaded cards, for health reporting.
func (e *Engine) CatalogSize() int {
	snap := e.snap.Load()
	if snap == nil {
		return 0
	}
	return snap.catalog.Len()
}
