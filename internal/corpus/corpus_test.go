package corpus

import (
	"reflect"
	"testing"
)

func TestNewPairCorpus(t *testing.T) {
	c := NewPairCorpus([]PairRecord{
		{Commander: "Alpha", Creature: "Bear", Count: 3},
		{Commander: "Alpha", Creature: "Wolf", Count: 1},
		{Commander: "Beta", Creature: "Bear", Count: 2},
		{Commander: "", Creature: "Ghost", Count: 1},   // invalid: no commander
		{Commander: "Alpha", Creature: "", Count: 1},   // invalid: no creature
		{Commander: "Alpha", Creature: "Imp", Count: -1}, // invalid: negative count
	})

	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	if !c.IsKnownPair("Alpha", "Bear") {
		t.Error("expected (Alpha, Bear) to be a known pair")
	}
	if c.IsKnownPair("Alpha", "Dragon") {
		t.Error("did not expect (Alpha, Dragon) to be known")
	}
	if c.IsKnownPair("Gamma", "Bear") {
		t.Error("did not expect unknown commander to have pairs")
	}

	if got := c.Count("Alpha", "Bear"); got != 3 {
		t.Errorf("Count(Alpha, Bear) = %d, want 3", got)
	}
	if got := c.Count("Alpha", "Dragon"); got != 0 {
		t.Errorf("Count(Alpha, Dragon) = %d, want 0", got)
	}
}

func TestPairCorpusDuplicatesAccumulate(t *testing.T) {
	c := NewPairCorpus([]PairRecord{
		{Commander: "Alpha", Creature: "Bear", Count: 2},
		{Commander: "Alpha", Creature: "Bear", Count: 5},
	})
	if got := c.Count("Alpha", "Bear"); got != 7 {
		t.Errorf("Count(Alpha, Bear) = %d, want 7", got)
	}
}

func TestPartnersSorted(t *testing.T) {
	c := NewPairCorpus([]PairRecord{
		{Commander: "Alpha", Creature: "Wolf", Count: 1},
		{Commander: "Alpha", Creature: "Bear", Count: 1},
		{Commander: "Alpha", Creature: "Crane", Count: 1},
	})
	got := c.Partners("Alpha")
	want := []string{"Bear", "Crane", "Wolf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Partners(Alpha) = %v, want %v", got, want)
	}

	if c.Partners("Nobody") != nil {
		t.Error("expected nil partners for unknown commander")
	}
}

func TestCommandersSorted(t *testing.T) {
	c := NewPairCorpus([]PairRecord{
		{Commander: "Zed", Creature: "Bear", Count: 1},
		{Commander: "Amy", Creature: "Bear", Count: 1},
	})
	got := c.Commanders()
	want := []string{"Amy", "Zed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Commanders() = %v, want %v", got, want)
	}
}
