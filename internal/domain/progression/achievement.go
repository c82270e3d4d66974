package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/immersionlab/backend/pkg/xcontext"
)

// Rarity is ordered from the most common to the rarest.
type Rarity int

const (
	RarityC Rarity = iota
	RarityB
	RarityA
	RarityS
	RaritySS
	RaritySSR
)

var rarityNames = []string{"C", "B", "A", "S", "SS", "SSR"}

func (r Rarity) String() string {
	if r < 0 || int(r) >= len(rarityNames) {
		return fmt.Sprintf("Rarity(%d)", int(r))
	}

	return rarityNames[r]
}

func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if name == s {
			return Rarity(i), nil
		}
	}

	return 0, fmt.Errorf("invalid rarity %q", s)
}

type Definition struct {
	Key         string
	Name        string
	Description string
	Category    string
	Rarity      Rarity
	Criteria    Criteria
	Points      int
	Hidden      bool
}

// Unlock is an achievement newly crossed by a user.
type Unlock struct {
	Definition Definition
	Points     int
}

// EvaluateAchievements returns the definitions of the catalog whose criteria
// is met by the snapshot and which are not in unlocked yet, in catalog order.
// A definition which cannot be evaluated is logged and skipped, the others are
// still evaluated.
func EvaluateAchievements(
	ctx context.Context,
	snapshot *Snapshot,
	catalog *Catalog,
	unlocked map[string]struct{},
) []Unlock {
	var result []Unlock
	for _, def := range catalog.Definitions() {
		if _, ok := unlocked[def.Key]; ok {
			continue
		}

		value, err := def.Criteria.Measure(snapshot)
		if err != nil {
			var unknownErr *UnknownCriteriaTypeError
			if errors.As(err, &unknownErr) {
				unknownErr.Key = def.Key
			}

			xcontext.Logger(ctx).Warnf("Skip achievement %s: %v", def.Key, err)
			continue
		}

		if value >= def.Criteria.Threshold() {
			result = append(result, Unlock{Definition: def, Points: def.Points})
		}
	}

	return result
}
