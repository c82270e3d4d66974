package progression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustCriteria(t *testing.T, data map[string]any) Criteria {
	c, err := NewCriteria(data)
	require.NoError(t, err)
	return c
}

func testCatalog(t *testing.T) *Catalog {
	catalog, err := NewCatalog(1,
		Definition{
			Key:      "first_log",
			Rarity:   RarityC,
			Points:   10,
			Criteria: mustCriteria(t, map[string]any{"type": "total_logs", "threshold": 1}),
		},
		Definition{
			Key:      "moon",
			Rarity:   RarityB,
			Points:   20,
			Criteria: mustCriteria(t, map[string]any{"type": "moon_phase", "threshold": 1}),
		},
		Definition{
			Key:      "streak_3",
			Rarity:   RarityA,
			Points:   30,
			Criteria: mustCriteria(t, map[string]any{"type": "streak_days", "threshold": 3}),
		},
		Definition{
			Key:      "listener_2",
			Rarity:   RarityS,
			Points:   40,
			Criteria: mustCriteria(t, map[string]any{"type": "category_level", "threshold": 2, "category": "listening"}),
		},
	)
	require.NoError(t, err)
	return catalog
}

func unlockKeys(unlocks []Unlock) []string {
	keys := []string{}
	for _, u := range unlocks {
		keys = append(keys, u.Definition.Key)
	}

	return keys
}

func TestEvaluateAchievements(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog(t)

	snapshot := &Snapshot{
		Stats: Stats{TotalLogs: 1, ListeningLevel: 2},
		State: State{Streak: Streak{Current: 1, Longest: 3, HasActivity: true}},
	}

	unlocks := EvaluateAchievements(ctx, snapshot, catalog, map[string]struct{}{})
	require.Equal(t, []string{"first_log", "streak_3", "listener_2"}, unlockKeys(unlocks))
	require.Equal(t, 10, unlocks[0].Points)

	// Already unlocked achievements are never returned again.
	unlocked := map[string]struct{}{"first_log": {}, "listener_2": {}}
	unlocks = EvaluateAchievements(ctx, snapshot, catalog, unlocked)
	require.Equal(t, []string{"streak_3"}, unlockKeys(unlocks))
}

func TestEvaluateAchievements_StreakPolicy(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog(t)
	unlocked := map[string]struct{}{"first_log": {}, "listener_2": {}}

	snapshot := &Snapshot{
		State:        State{Streak: Streak{Current: 1, Longest: 3, HasActivity: true}},
		StreakPolicy: CurrentStreakPolicy,
	}
	require.Empty(t, EvaluateAchievements(ctx, snapshot, catalog, unlocked))

	snapshot.State.Streak.Current = 3
	require.Equal(t, []string{"streak_3"}, unlockKeys(EvaluateAchievements(ctx, snapshot, catalog, unlocked)))
}

func TestRarity(t *testing.T) {
	for _, name := range []string{"C", "B", "A", "S", "SS", "SSR"} {
		r, err := ParseRarity(name)
		require.NoError(t, err)
		require.Equal(t, name, r.String())
	}

	require.Less(t, RarityC, RaritySSR)

	_, err := ParseRarity("X")
	require.Error(t, err)
}
