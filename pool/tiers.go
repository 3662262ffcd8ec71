// Package pool builds, inspects and resets the pre-generated sign pool.
//
// None of this runs on the draw path: seeding and resetting are out-of-band
// administrative operations and must not overlap with live draws.
package pool

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/padraicbc/luckydraw/models"
)

// MaxPerLevel is the largest tier size the S<level>-<index> id format can hold.
const MaxPerLevel = 9999

// Tier describes one prize level and how many signs of it the pool holds.
// Title, Description and Image are display-only.
type Tier struct {
	Level       int    `yaml:"level" json:"level"`
	Type        string `yaml:"type" json:"type"`
	RewardCode  string `yaml:"reward_code" json:"reward_code"`
	Count       int    `yaml:"count" json:"count"`
	Title       string `yaml:"title" json:"title,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
	Image       string `yaml:"image" json:"image,omitempty"`
}

// Tiers is an ordered tier catalog. Generation follows this order.
type Tiers []Tier

// DefaultTiers is the 10,000 sign pool used in production.
var DefaultTiers = Tiers{
	{Level: 1, Type: "Top-Top", RewardCode: "R01", Count: 40, Title: "Supreme Fortune", Description: "The rarest sign in the pool.", Image: "/images/signs/level-1.png"},
	{Level: 2, Type: "Top", RewardCode: "R02", Count: 200, Title: "Great Fortune", Description: "A top-tier sign.", Image: "/images/signs/level-2.png"},
	{Level: 3, Type: "Special", RewardCode: "R03", Count: 150, Title: "Special Fortune", Description: "A special reward sign.", Image: "/images/signs/level-3.png"},
	{Level: 0, Type: "Empty", RewardCode: "EMPTY", Count: 9610, Title: "Better Luck Next Time", Description: "No reward this time.", Image: "/images/signs/level-0.png"},
}

// Total is the number of signs the catalog generates.
func (ts Tiers) Total() int {
	n := 0
	for _, t := range ts {
		n += t.Count
	}
	return n
}

// ByLevel returns the tier for level.
func (ts Tiers) ByLevel(level int) (Tier, bool) {
	for _, t := range ts {
		if t.Level == level {
			return t, true
		}
	}
	return Tier{}, false
}

// Validate checks that the catalog can be turned into a pool.
func (ts Tiers) Validate() error {
	if len(ts) == 0 {
		return errors.New("pool: no tiers defined")
	}
	var errs []error
	seen := make(map[int]bool, len(ts))
	for _, t := range ts {
		switch {
		case seen[t.Level]:
			errs = append(errs, fmt.Errorf("level %d: defined twice", t.Level))
		case t.Level < 0 || t.Level > 99:
			errs = append(errs, fmt.Errorf("level %d: must be between 0 and 99", t.Level))
		case t.Type == "":
			errs = append(errs, fmt.Errorf("level %d: type is required", t.Level))
		case t.RewardCode == "":
			errs = append(errs, fmt.Errorf("level %d: reward_code is required", t.Level))
		case len(t.Type) > 20 || len(t.RewardCode) > 20:
			errs = append(errs, fmt.Errorf("level %d: type and reward_code are limited to 20 characters", t.Level))
		case t.Count < 0 || t.Count > MaxPerLevel:
			errs = append(errs, fmt.Errorf("level %d: count %d outside 0..%d", t.Level, t.Count, MaxPerLevel))
		}
		seen[t.Level] = true
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("pool: invalid tiers: %w", err)
	}
	return nil
}

type tierFile struct {
	Tiers Tiers `yaml:"tiers"`
}

// ParseTiers decodes a YAML catalog of the form `tiers: [{level: 1, ...}]`.
func ParseTiers(data []byte) (Tiers, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pool: parse tiers: %w", err)
	}
	if err := f.Tiers.Validate(); err != nil {
		return nil, err
	}
	return f.Tiers, nil
}

// LoadTiers reads a YAML catalog from path. An empty path yields DefaultTiers.
func LoadTiers(path string) (Tiers, error) {
	if path == "" {
		return DefaultTiers, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pool: read tiers: %w", err)
	}
	return ParseTiers(data)
}

// SignID formats the id of the index-th (1-based) sign of a level.
func SignID(level, index int) string {
	return fmt.Sprintf("S%02d-%04d", level, index)
}

// Generate expands the catalog into undrawn rows, tier by tier.
func Generate(tiers Tiers) []models.Sign {
	rows := make([]models.Sign, 0, tiers.Total())
	for _, t := range tiers {
		for i := 1; i <= t.Count; i++ {
			rows = append(rows, models.Sign{
				ID:         SignID(t.Level, i),
				Level:      t.Level,
				Type:       t.Type,
				RewardCode: t.RewardCode,
			})
		}
	}
	return rows
}
