package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ramonehamilton/commander-crafter/internal/cards"
	"github.com/ramonehamilton/commander-crafter/internal/corpus"
	"github.com/ramonehamilton/commander-crafter/internal/scoring"
)

func fptr(v float64) *float64 { return &v }

// testCards is a small catalog around a red-green trample commander with
// three recorded partners, plus edge cases: an off-color powerhouse, a
// priced-out card, a known/unknown twin pair, a format-illegal card, and
// a cold-start white commander.
func testCards() []*cards.Card {
	return []*cards.Card{
		{
			Name:           "Torvash, Wild Chief",
			OracleText:     "Whenever a creature you control with power 4 or greater attacks, it gains trample until end of turn.",
			ColorIdentity:  []string{"R", "G"},
			Types:          []string{"Elemental", "Shaman"},
			Power:          cards.Stat{Value: 4},
			Toughness:      cards.Stat{Value: 4},
			CommanderLegal: true,
		},
		{
			Name:           "Ridgeback Crusher",
			OracleText:     "Trample. When Ridgeback Crusher enters the battlefield, it fights target creature you don't control.",
			ColorIdentity:  []string{"G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 5},
			Toughness:      cards.Stat{Value: 4},
			CommanderLegal: true,
		},
		{
			Name:           "Cinder Maw",
			OracleText:     "Trample, haste. Whenever Cinder Maw attacks, it deals 1 damage to each opponent.",
			ColorIdentity:  []string{"R"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample", "Haste"},
			Power:          cards.Stat{Value: 4},
			Toughness:      cards.Stat{Value: 3},
			CommanderLegal: true,
		},
		{
			Name:           "Emberhorn Alpha",
			OracleText:     "Trample. Whenever this creature attacks, other creatures you control get +1/+0 until end of turn.",
			ColorIdentity:  []string{"R", "G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 6},
			Toughness:      cards.Stat{Value: 5},
			CommanderLegal: true,
		},
		{
			Name:           "Emberhorn Omega",
			OracleText:     "Trample. Whenever this creature attacks, other creatures you control get +1/+0 until end of turn.",
			ColorIdentity:  []string{"R", "G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 6},
			Toughness:      cards.Stat{Value: 5},
			CommanderLegal: true,
		},
		{
			Name:           "Sunscale Trickster",
			OracleText:     "Trample. Whenever Sunscale Trickster attacks, you may return target creature to its owner's hand.",
			ColorIdentity:  []string{"U", "R", "G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 5},
			Toughness:      cards.Stat{Value: 5},
			CommanderLegal: true,
		},
		{
			Name:           "Gilded Behemoth",
			OracleText:     "Trample. Whenever Gilded Behemoth attacks, create a Treasure token for each opponent it is attacking.",
			ColorIdentity:  []string{"G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 7},
			Toughness:      cards.Stat{Value: 6},
			PriceUSD:       fptr(25.00),
			CommanderLegal: true,
		},
		{
			Name:           "Banned Tyrant",
			OracleText:     "Trample. At the beginning of your upkeep, each opponent sacrifices a creature of their choice.",
			ColorIdentity:  []string{"G"},
			Types:          []string{"Beast"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 8},
			Toughness:      cards.Stat{Value: 8},
			CommanderLegal: false,
		},
		{
			Name:           "Chrome Strider",
			OracleText:     "Trample. Chrome Strider gets +1/+1 for each artifact you control beyond the first one.",
			Types:          []string{"Construct"},
			Keywords:       []string{"Trample"},
			Power:          cards.Stat{Value: 3},
			Toughness:      cards.Stat{Value: 3},
			CommanderLegal: true,
		},
		{
			Name:           "Lonely Hermit",
			OracleText:     "When Lonely Hermit enters the battlefield, you gain 2 life for each creature you control.",
			ColorIdentity:  []string{"W"},
			Types:          []string{"Human", "Monk"},
			Power:          cards.Stat{Value: 1},
			Toughness:      cards.Stat{Value: 3},
			CommanderLegal: true,
		},
		{
			Name:           "Chapel Guardian",
			OracleText:     "Vigilance. Whenever Chapel Guardian blocks, you gain 2 life and scry 1 at end of combat.",
			ColorIdentity:  []string{"W"},
			Types:          []string{"Spirit"},
			Keywords:       []string{"Vigilance"},
			Power:          cards.Stat{Value: 2},
			Toughness:      cards.Stat{Value: 4},
			CommanderLegal: true,
		},
	}
}

func testPairs() []corpus.PairRecord {
	return []corpus.PairRecord{
		{Commander: "Torvash, Wild Chief", Creature: "Ridgeback Crusher", Count: 4},
		{Commander: "Torvash, Wild Chief", Creature: "Cinder Maw", Count: 3},
		{Commander: "Torvash, Wild Chief", Creature: "Emberhorn Alpha", Count: 2},
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := cards.NewCatalog(testCards())
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	eng, err := New(catalog, corpus.NewPairCorpus(testPairs()), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return eng
}

func findRec(recs []Recommendation, name string) (Recommendation, bool) {
	for _, r := range recs {
		if r.Name == name {
			return r, true
		}
	}
	return Recommendation{}, false
}

func TestRecommendLegality(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}

	commander := []string{"R", "G"}
	for _, r := range recs {
		if r.Name == "Torvash, Wild Chief" {
			t.Error("commander recommended to itself")
		}
		if r.Name == "Sunscale Trickster" {
			t.Error("off-color card in results")
		}
		if r.Name == "Banned Tyrant" {
			t.Error("format-illegal card in results")
		}
		if !cards.ColorsWithin(r.ColorIdentity, commander) {
			t.Errorf("%s color identity %v escapes commander colors", r.Name, r.ColorIdentity)
		}
	}

	// The colorless construct is always within color identity.
	if _, ok := findRec(recs, "Chrome Strider"); !ok {
		t.Error("colorless card missing from results")
	}
}

func TestRecommendRankingOrder(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if prev.Final < cur.Final {
			t.Fatalf("results not sorted by score: %s (%v) before %s (%v)",
				prev.Name, prev.Final, cur.Name, cur.Final)
		}
		if prev.Final == cur.Final && prev.Name > cur.Name {
			t.Fatalf("tie not broken by name: %s before %s", prev.Name, cur.Name)
		}
	}
}

func TestRecommendKnownPairDiscount(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// Alpha and Omega are identical cards except that only Alpha is a
	// recorded partner, so Omega must outrank it.
	alpha, ok := findRec(recs, "Emberhorn Alpha")
	if !ok {
		t.Fatal("Emberhorn Alpha missing from results")
	}
	omega, ok := findRec(recs, "Emberhorn Omega")
	if !ok {
		t.Fatal("Emberhorn Omega missing from results")
	}

	if !alpha.IsKnown {
		t.Error("Emberhorn Alpha should be flagged as known")
	}
	if omega.IsKnown {
		t.Error("Emberhorn Omega should not be flagged as known")
	}
	if omega.Final <= alpha.Final {
		t.Errorf("known pair not discounted: omega %v <= alpha %v", omega.Final, alpha.Final)
	}
	if alpha.Base != omega.Base {
		t.Errorf("identical texts should share base similarity: %v vs %v", alpha.Base, omega.Base)
	}
	want := omega.Final * scoring.DefaultWeights().KnownPenalty
	if math.Abs(alpha.Final-want) > 1e-9 {
		t.Errorf("alpha final = %v, want %v", alpha.Final, want)
	}
}

func TestRecommendBoostsApplied(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// All partners share trample, the Beast type, and power >= 4, so the
	// matching twin should carry all three boosts.
	omega, ok := findRec(recs, "Emberhorn Omega")
	if !ok {
		t.Fatal("Emberhorn Omega missing from results")
	}
	if len(omega.Boosts) != 3 {
		t.Errorf("Boosts = %v, want keyword, type, and power boosts", omega.Boosts)
	}
	if omega.Final <= omega.Base {
		t.Errorf("boosted final %v not above base %v", omega.Final, omega.Base)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	eng := testEngine(t)
	first, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical queries produced different results")
	}
}

func TestRecommendTopKPrefix(t *testing.T) {
	eng := testEngine(t)
	full, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{TopK: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	short, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{TopK: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(short) != 2 {
		t.Fatalf("len(short) = %d, want 2", len(short))
	}
	if !reflect.DeepEqual(short, full[:2]) {
		t.Error("smaller topK is not a strict prefix of the larger ranking")
	}
}

func TestRecommendMaxPrice(t *testing.T) {
	eng := testEngine(t)

	unfiltered, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if _, ok := findRec(unfiltered, "Gilded Behemoth"); !ok {
		t.Fatal("expected Gilded Behemoth without a price ceiling")
	}

	capped, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{MaxPrice: fptr(5.00)})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if _, ok := findRec(capped, "Gilded Behemoth"); ok {
		t.Error("Gilded Behemoth exceeds the price ceiling")
	}
	// Cards without price data pass the ceiling.
	if _, ok := findRec(capped, "Emberhorn Omega"); !ok {
		t.Error("unpriced card dropped by the price filter")
	}
}

func TestRecommendExcludeKnown(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Torvash, Wild Chief", Query{ExcludeKnown: true})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, name := range []string{"Ridgeback Crusher", "Cinder Maw", "Emberhorn Alpha"} {
		if _, ok := findRec(recs, name); ok {
			t.Errorf("known partner %s present with ExcludeKnown", name)
		}
	}
	if _, ok := findRec(recs, "Emberhorn Omega"); !ok {
		t.Error("novel card missing with ExcludeKnown")
	}
}

func TestRecommendColdStart(t *testing.T) {
	eng := testEngine(t)
	recs, err := eng.Recommend(context.Background(), "Lonely Hermit", Query{})
	if err != nil {
		t.Fatalf("Recommend() on commander without pair data error = %v", err)
	}
	for _, r := range recs {
		if !cards.ColorsWithin(r.ColorIdentity, []string{"W"}) {
			t.Errorf("%s escapes the white color identity", r.Name)
		}
	}
	// Lifegain text overlap should surface the white spirit.
	if _, ok := findRec(recs, "Chapel Guardian"); !ok {
		t.Error("expected Chapel Guardian for the cold-start commander")
	}
}

func TestRecommendUnknownCommander(t *testing.T) {
	eng := testEngine(t)
	for _, name := range []string{"Nobody At All", "Banned Tyrant"} {
		_, err := eng.Recommend(context.Background(), name, Query{})
		var unknownErr *UnknownCommanderError
		if !errors.As(err, &unknownErr) {
			t.Errorf("Recommend(%q) error = %v, want UnknownCommanderError", name, err)
		}
	}
}

func TestRecommendContextCanceled(t *testing.T) {
	eng := testEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Recommend(ctx, "Torvash, Wild Chief", Query{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Recommend() error = %v, want context.Canceled", err)
	}
}

func TestInfo(t *testing.T) {
	eng := testEngine(t)
	info, err := eng.Info("Torvash, Wild Chief")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.PartnerCount != 3 {
		t.Errorf("PartnerCount = %d, want 3", info.PartnerCount)
	}
	if info.ConsensusKeywords["trample"] != 3 {
		t.Errorf("ConsensusKeywords = %v, want trample carried by all 3 partners", info.ConsensusKeywords)
	}
	if info.ConsensusTypes["Beast"] != 3 {
		t.Errorf("ConsensusTypes = %v, want Beast carried by all 3 partners", info.ConsensusTypes)
	}
	if !info.HighPower {
		t.Error("expected HighPower pattern")
	}

	var unknownErr *UnknownCommanderError
	if _, err := eng.Info("Nobody At All"); !errors.As(err, &unknownErr) {
		t.Errorf("Info(unknown) error = %v, want UnknownCommanderError", err)
	}
}

func TestCommanders(t *testing.T) {
	eng := testEngine(t)
	got := eng.Commanders()
	want := []string{"Torvash, Wild Chief"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Commanders() = %v, want %v", got, want)
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	eng := testEngine(t)
	if eng.CatalogSize() != len(testCards()) {
		t.Fatalf("CatalogSize() = %d, want %d", eng.CatalogSize(), len(testCards()))
	}

	smaller, err := cards.NewCatalog(testCards()[:4])
	if err != nil {
		t.Fatalf("failed to build replacement catalog: %v", err)
	}
	if err := eng.Reload(smaller, nil); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if eng.CatalogSize() != 4 {
		t.Errorf("CatalogSize() after reload = %d, want 4", eng.CatalogSize())
	}

	if err := eng.Reload(nil, nil); err == nil {
		t.Error("expected error reloading with an empty catalog")
	}
	// A failed reload keeps the previous snapshot.
	if eng.CatalogSize() != 4 {
		t.Errorf("CatalogSize() after failed reload = %d, want 4", eng.CatalogSize())
	}
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	catalog, err := cards.NewCatalog(testCards())
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	opts := DefaultOptions()
	opts.Weights.KeywordBoost = 2.0
	if _, err := New(catalog, corpus.NewPairCorpus(nil), opts); err == nil {
		t.Error("expected error for out-of-range weights")
	}
}
