package assembler

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// Tier maps difficulty labels onto one of the section count fields. A
// question belongs to the tier when its label contains any keyword.
type Tier struct {
	Level    model.Level `yaml:"level"`
	Keywords []string    `yaml:"keywords"`
}

// TierTable lists tiers in the order their questions are concatenated.
type TierTable []Tier

// DefaultTiers keys tiers on substrings, so "Vận dụng cao" joins the
// "vận dụng" tier and "Nhận biết" joins "biết".
func DefaultTiers() TierTable {
	return TierTable{
		{Level: model.LevelRecall, Keywords: []string{"biết"}},
		{Level: model.LevelUnderstand, Keywords: []string{"hiểu"}},
		{Level: model.LevelApplication, Keywords: []string{"vận dụng"}},
	}
}

// Validate checks that every tier names a known level and has a keyword.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	seen := make(map[model.Level]bool)
	for i, tier := range t {
		switch tier.Level {
		case model.LevelRecall, model.LevelUnderstand, model.LevelApplication:
		default:
			return fmt.Errorf("tier %d: unknown level %q", i, tier.Level)
		}
		if seen[tier.Level] {
			return fmt.Errorf("tier %d: duplicate level %q", i, tier.Level)
		}
		seen[tier.Level] = true
		empty := true
		for _, kw := range tier.Keywords {
			if strings.TrimSpace(kw) != "" {
				empty = false
			}
		}
		if empty {
			return fmt.Errorf("tier %d (%s): no keywords", i, tier.Level)
		}
	}
	return nil
}

// Matches reports whether a difficulty label belongs to the tier.
func (tier Tier) Matches(difficulty string) bool {
	label := textnorm.Fold(difficulty)
	if label == "" {
		return false
	}
	for _, kw := range tier.Keywords {
		k := textnorm.Fold(kw)
		if k != "" && strings.Contains(label, k) {
			return true
		}
	}
	return false
}

type tierFile struct {
	Tiers TierTable `yaml:"tiers"`
}

// LoadTierTable reads a tier table from YAML:
//
//	tiers:
//	  - level: biet
//	    keywords: ["nhận biết", "biết"]
//	  - level: hieu
//	    keywords: ["thông hiểu", "hiểu"]
//	  - level: vandung
//	    keywords: ["vận dụng"]
func LoadTierTable(r io.Reader) (TierTable, error) {
	var f tierFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode tier table: %w", err)
	}
	if err := f.Tiers.Validate(); err != nil {
		return nil, err
	}
	return f.Tiers, nil
}
