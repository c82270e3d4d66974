package progression

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/immersionlab/backend/config"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	return NewEngine(NewLevelCurve(config.Default().Progression.Level), catalog, LongestStreakPolicy)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func TestEngine_Recompute(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Recompute(context.Background(), Input{
		Logs: []entity.ImmersionLog{
			newLog("1", entity.Reading, day(1), withChars(350000)),
		},
		Location: time.UTC,
	})

	require.Equal(t, uint64(5000), result.State.CumulativeXP)
	require.Equal(t, 6, result.State.Level.Level)
	require.Equal(t, 1, result.State.Streak.Current)
	require.Equal(t, int64(1), result.Stats.TotalLogs)
	require.Equal(t, int64(350000), result.Stats.CharsRead)
	require.Equal(t, uint64(5000), result.Stats.ReadingXP)
	require.Equal(t, 6, result.Stats.ReadingLevel)
	require.Equal(t, 1, result.Stats.ListeningLevel)
	require.ElementsMatch(t, []string{"first_log", "reader_5", "chars_100k"}, unlockKeys(result.NewUnlocks))

	p := result.State.ToEntity("user1")
	require.Equal(t, "2024-03-01", p.LastActiveDay)
	require.Equal(t, 6, p.Level)
}

func TestEngine_Recompute_DeletedDayBreaksStreak(t *testing.T) {
	engine := newTestEngine(t)
	logs := []entity.ImmersionLog{
		newLog("1", entity.Anime, day(1), withTime(10)),
		newLog("2", entity.Anime, day(2), withTime(10)),
		newLog("3", entity.Anime, day(3), withTime(10)),
	}

	before := engine.Recompute(context.Background(), Input{Logs: logs, Location: time.UTC})
	require.Equal(t, 3, before.State.Streak.Current)

	after := engine.Recompute(context.Background(), Input{
		Logs:     []entity.ImmersionLog{logs[0], logs[2]},
		Location: time.UTC,
	})
	require.Equal(t, 1, after.State.Streak.Current)
	require.Equal(t, 1, after.State.Streak.Longest)
	require.Equal(t, uint64(100), after.State.CumulativeXP)
}

func TestEngine_Recompute_Timezone(t *testing.T) {
	engine := newTestEngine(t)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// Different days in UTC, the same day in Tokyo.
	logs := []entity.ImmersionLog{
		newLog("1", entity.Audio, time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), withTime(30)),
		newLog("2", entity.Audio, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), withTime(30)),
	}

	utc := engine.Recompute(context.Background(), Input{Logs: logs, Location: time.UTC})
	require.Equal(t, 2, utc.State.Streak.Current)

	local := engine.Recompute(context.Background(), Input{Logs: logs, Location: tokyo})
	require.Equal(t, 1, local.State.Streak.Current)
	require.Equal(t, "2024-03-02", local.State.Streak.LastActiveDay.String())

	// A missing location counts in UTC.
	missing := engine.Recompute(context.Background(), Input{Logs: logs})
	require.Equal(t, utc.State, missing.State)
}

func TestEngine_Recompute_IsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	logs := []entity.ImmersionLog{
		newLog("1", entity.Anime, day(1), withTime(24), withEpisodes(1)),
		newLog("2", entity.Reading, day(2), withChars(20000), withPages(5)),
		newLog("3", entity.Manga, day(2), withPages(40)),
		newLog("4", entity.Other, day(4), withTime(15)),
		newLog("5", entity.TVShow, day(5), withTime(50), withEpisodes(2)),
		newLog("6", entity.Movie, day(6), withTime(120)),
	}
	input := Input{Logs: logs, Location: time.UTC, ClubMemberships: 1}

	want := engine.Recompute(context.Background(), input)
	require.Equal(t, want, engine.Recompute(context.Background(), input))

	shuffled := append([]entity.ImmersionLog(nil), logs...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	got := engine.Recompute(context.Background(), Input{Logs: shuffled, Location: time.UTC, ClubMemberships: 1})
	require.Equal(t, want, got)
	require.Contains(t, unlockKeys(got.NewUnlocks), "club_member")
}

func TestEngine_Recompute_SkipsUnlocked(t *testing.T) {
	engine := newTestEngine(t)
	input := Input{
		Logs:     []entity.ImmersionLog{newLog("1", entity.Anime, day(1), withTime(45))},
		Location: time.UTC,
		Unlocked: map[string]struct{}{},
	}

	result := engine.Recompute(context.Background(), input)
	require.Equal(t, []string{"first_log"}, unlockKeys(result.NewUnlocks))

	input.Unlocked["first_log"] = struct{}{}
	for i := 2; i <= 11; i++ {
		input.Logs = append(input.Logs, newLog(string(rune('a'+i)), entity.Anime, day(i), withTime(45)))
	}

	result = engine.Recompute(context.Background(), input)
	require.NotContains(t, unlockKeys(result.NewUnlocks), "first_log")
	require.Contains(t, unlockKeys(result.NewUnlocks), "streak_7")
}

func TestEngine_Recompute_IgnoresInvalidLogs(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Recompute(context.Background(), Input{
		Logs: []entity.ImmersionLog{
			newLog("1", entity.Video, day(1)),
			newLog("2", entity.Video, day(2), withTime(10)),
		},
		Location: time.UTC,
	})

	require.Equal(t, []string{"1"}, result.InvalidLogs)
	require.Equal(t, int64(1), result.Stats.TotalLogs)
	require.Equal(t, uint64(50), result.State.CumulativeXP)
	require.Equal(t, "2024-03-02", result.State.ToEntity("user1").LastActiveDay)
}

func TestEngine_Recompute_NoLogs(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.Recompute(context.Background(), Input{Location: time.UTC})

	require.Zero(t, result.State.CumulativeXP)
	require.Equal(t, 1, result.State.Level.Level)
	require.Empty(t, result.NewUnlocks)
	require.Empty(t, result.State.ToEntity("user1").LastActiveDay)
}
