package progression

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/dateutil"
	"github.com/immersionlab/backend/pkg/xcontext"
)

// State is the progression state of a user derived from the surviving logs.
type State struct {
	CumulativeXP uint64
	Level        Level
	Streak       Streak
}

func (s State) ToEntity(userID string) *entity.Progression {
	p := &entity.Progression{
		UserID:        userID,
		CumulativeXP:  s.CumulativeXP,
		Level:         s.Level.Level,
		CurrentStreak: s.Streak.Current,
		LongestStreak: s.Streak.Longest,
	}

	if s.Streak.HasActivity {
		p.LastActiveDay = s.Streak.LastActiveDay.String()
	}

	return p
}

// Input is everything recompute depends on.
type Input struct {
	// Logs are the surviving logs of the user, in any order.
	Logs []entity.ImmersionLog

	// Location decides the calendar day of each log.
	Location *time.Location

	ClubMemberships int64

	// Unlocked is the set of achievement keys the user already has. They are
	// never unlocked again.
	Unlocked map[string]struct{}
}

type Result struct {
	State      State
	Stats      Stats
	NewUnlocks []Unlock

	// InvalidLogs are the IDs of stored logs without any measurable quantity.
	// They are ignored by every computation.
	InvalidLogs []string
}

// Engine derives progression from scratch. It keeps no state between calls,
// the same input always gives the same result.
type Engine struct {
	curve        LevelCurve
	catalog      *Catalog
	streakPolicy StreakPolicy
}

func NewEngine(curve LevelCurve, catalog *Catalog, streakPolicy StreakPolicy) *Engine {
	if streakPolicy == "" {
		streakPolicy = LongestStreakPolicy
	}

	return &Engine{curve: curve, catalog: catalog, streakPolicy: streakPolicy}
}

func (e *Engine) Curve() LevelCurve {
	return e.curve
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) StreakPolicy() StreakPolicy {
	return e.streakPolicy
}

// Recompute folds the whole surviving log set of a user into its progression
// state, aggregate statistics and newly unlocked achievements.
func (e *Engine) Recompute(ctx context.Context, in Input) *Result {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	logs := append([]entity.ImmersionLog(nil), in.Logs...)
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Date.Equal(logs[j].Date) {
			return logs[i].Date.Before(logs[j].Date)
		}
		return logs[i].ID < logs[j].ID
	})

	result := &Result{}
	days := make([]dateutil.Day, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		metrics, err := Normalize(log)
		if err != nil {
			var invalidErr *InvalidMetricError
			if !errors.As(err, &invalidErr) {
				xcontext.Logger(ctx).Errorf("Cannot normalize log %s: %v", log.ID, err)
			}

			result.InvalidLogs = append(result.InvalidLogs, log.ID)
			continue
		}

		xp := XP(log.Type, metrics)
		result.State.CumulativeXP = addXP(result.State.CumulativeXP, xp)
		result.Stats.add(log.Type, metrics, xp)
		days = append(days, dateutil.DayOf(log.Date, loc))
	}

	result.State.Level = e.curve.Resolve(result.State.CumulativeXP)
	result.State.Streak = ComputeStreak(days)
	result.Stats.ReadingLevel = e.curve.Resolve(result.Stats.ReadingXP).Level
	result.Stats.ListeningLevel = e.curve.Resolve(result.Stats.ListeningXP).Level
	result.Stats.ClubMemberships = in.ClubMemberships

	result.NewUnlocks = EvaluateAchievements(ctx, &Snapshot{
		Stats:        result.Stats,
		State:        result.State,
		StreakPolicy: e.streakPolicy,
	}, e.catalog, in.Unlocked)

	if len(result.InvalidLogs) > 0 {
		xcontext.Logger(ctx).Warnf("Ignored %d logs without measurable quantity", len(result.InvalidLogs))
	}

	return result
}
