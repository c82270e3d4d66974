package progression

import (
	"sort"

	"github.com/immersionlab/backend/pkg/dateutil"
)

// Streak is the result of folding the activity days of a user.
type Streak struct {
	Current       int
	Longest       int
	LastActiveDay dateutil.Day

	// HasActivity is false when no day was observed, LastActiveDay is
	// meaningless in that case.
	HasActivity bool
}

// StreakTracker folds activity days in ascending order. It holds no state
// besides the fold, so a tracker must be rebuilt from all surviving days after
// any deletion or edit.
type StreakTracker struct {
	streak Streak
}

// Observe folds the next activity day. Days must be observed in ascending
// order, repeated days are ignored.
func (t *StreakTracker) Observe(day dateutil.Day) {
	s := &t.streak
	switch {
	case !s.HasActivity:
		s.Current = 1
		s.HasActivity = true

	case day == s.LastActiveDay:
		return

	case day == s.LastActiveDay+1:
		s.Current++

	case day < s.LastActiveDay:
		// Out of order days are a caller bug, they must not extend a run.
		return

	default:
		s.Current = 1
	}

	s.LastActiveDay = day
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
}

func (t *StreakTracker) Streak() Streak {
	return t.streak
}

// ComputeStreak sorts the days and folds them from scratch. The input slice is
// not modified.
func ComputeStreak(days []dateutil.Day) Streak {
	sorted := append([]dateutil.Day(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var tracker StreakTracker
	for _, d := range sorted {
		tracker.Observe(d)
	}

	return tracker.Streak()
}
