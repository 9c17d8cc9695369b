// Package scoring fuses the text-similarity score with pattern-match
// boosts and bias penalties into a single ranking score.
package scoring

import (
	"fmt"

	"github.com/ramonehamilton/commander-crafter/internal/synergy"
)

// Weights are the tunable scoring parameters. Boosts are additive,
// penalties are multiplicative (they discount, never invert, the base
// ranking).
type Weights struct {
	KeywordBoost   float64 `toml:"keyword_boost"`
	TypeBoost      float64 `toml:"type_boost"`
	PowerBoost     float64 `toml:"power_boost"`
	ToughnessBoost float64 `toml:"toughness_boost"`

	// KnownPenalty discounts cards already recorded as partners of the
	// commander, so novel recommendations surface.
	KnownPenalty float64 `toml:"known_penalty"`

	// ShortTextPenalty discounts cards whose oracle text is too short
	// to trust the similarity signal.
	ShortTextPenalty float64 `toml:"short_text_penalty"`
}

// DefaultWeights returns the documented default scoring parameters.
func DefaultWeights() Weights {
	return Weights{
		KeywordBoost:     0.10,
		TypeBoost:        0.10,
		PowerBoost:       0.05,
		ToughnessBoost:   0.05,
		KnownPenalty:     0.85,
		ShortTextPenalty: 0.90,
	}
}

// Validate checks that every weight is in [0, 1]. Penalties of 1 are
// allowed (no discount); penalties of 0 would zero out a candidate.
func (w Weights) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("weight %s = %v out of range [0, 1]", name, v)
		}
		return nil
	}
	if err := check("keyword_boost", w.KeywordBoost); err != nil {
		return err
	}
	if err := check("type_boost", w.TypeBoost); err != nil {
		return err
	}
	if err := check("power_boost", w.PowerBoost); err != nil {
		return err
	}
	if err := check("toughness_boost", w.ToughnessBoost); err != nil {
		return err
	}
	if err := check("known_penalty", w.KnownPenalty); err != nil {
		return err
	}
	return check("short_text_penalty", w.ShortTextPenalty)
}

// Breakdown records how a candidate's final score was produced, for
// explainability in consuming UIs.
type Breakdown struct {
	Base      float64  `json:"base_similarity"`
	Boosts    []string `json:"boosts,omitempty"`
	Penalties []string `json:"penalties,omitempty"`
	Final     float64  `json:"final_score"`
}

// Fuse combines the base similarity with match signals and penalties.
// Boosts reward independent corroborating signals additively; the
// known-pair and short-text penalties then scale the total down.
func Fuse(base float64, sig synergy.Signals, isKnown, shortText bool, w Weights) Breakdown {
	b := Breakdown{Base: base}
	score := base

	if sig.KeywordMatch {
		score += w.KeywordBoost
		b.Boosts = append(b.Boosts, fmt.Sprintf("Keyword(%s) +%.2f", sig.MatchedKeyword, w.KeywordBoost))
	}
	if sig.TypeMatch {
		score += w.TypeBoost
		b.Boosts = append(b.Boosts, fmt.Sprintf("Type(%s) +%.2f", sig.MatchedType, w.TypeBoost))
	}
	if sig.PowerMatch {
		score += w.PowerBoost
		b.Boosts = append(b.Boosts, fmt.Sprintf("Power +%.2f", w.PowerBoost))
	}
	if sig.ToughnessMatch {
		score += w.ToughnessBoost
		b.Boosts = append(b.Boosts, fmt.Sprintf("Toughness +%.2f", w.ToughnessBoost))
	}

	if isKnown {
		score *= w.KnownPenalty
		b.Penalties = append(b.Penalties, fmt.Sprintf("Known -%.0f%%", (1-w.KnownPenalty)*100))
	}
	if shortText {
		score *= w.ShortTextPenalty
		b.Penalties = append(b.Penalties, fmt.Sprintf("ShortText -%.0f%%", (1-w.ShortTextPenalty)*100))
	}

	b.Final = score
	return b
}
