package progression

import (
	"math"

	"github.com/immersionlab/backend/internal/entity"
)

const (
	TimeFactor    = 5
	CharsFactor   = 5
	EpisodeFactor = TimeFactor * 24

	// charsPerUnit is the number of characters worth CharsFactor XP.
	charsPerUnit = 350

	// PagesFactor is 1.23, kept as a ratio so XP stays exact.
	pagesFactorNumerator   = 123
	pagesFactorDenominator = 100
)

// bounded clamps v into [0, limit], so no product below overflows.
func bounded(v, limit int64) int64 {
	return min(max(v, 0), limit)
}

func timeXP(m Metrics) uint64 {
	return uint64(bounded(m.Minutes, MaxMinutes) * TimeFactor)
}

func charsXP(m Metrics) uint64 {
	return uint64(bounded(m.Chars, MaxChars) * CharsFactor / charsPerUnit)
}

func pagesXP(m Metrics) uint64 {
	return uint64(bounded(m.Pages, MaxPages) * pagesFactorNumerator / pagesFactorDenominator)
}

func episodeXP(m Metrics) uint64 {
	return uint64(bounded(m.Episodes, MaxEpisodes) * EpisodeFactor)
}

// addXP is a saturating sum.
func addXP(total, xp uint64) uint64 {
	if total > math.MaxUint64-xp {
		return math.MaxUint64
	}

	return total + xp
}

// XP returns the experience points of a normalized log. Every component is
// rounded down and stops growing at the bounds of a single log. Alternative measures of the same activity (time and episodes,
// or time and text) are never added together, the larger one wins.
func XP(t entity.ImmersionType, m Metrics) uint64 {
	switch {
	case tracksText(t):
		return max(charsXP(m)+pagesXP(m), timeXP(m))
	case tracksEpisodes(t):
		return max(timeXP(m), episodeXP(m))
	default:
		return timeXP(m)
	}
}
