package progression

import (
	"sort"

	"github.com/immersionlab/backend/config"
)

// Level is the position of an XP value on the level curve. XPCeiling is zero
// when Level is the maximum level, which has no upper bound.
type Level struct {
	Level     int
	XPFloor   uint64
	XPCeiling uint64
	IsMax     bool
}

// Progress returns the fraction of the current level already earned by xp, in
// the range [0, 1].
func (l Level) Progress(xp uint64) float64 {
	if l.IsMax || l.XPCeiling <= l.XPFloor {
		return 1
	}

	if xp <= l.XPFloor {
		return 0
	}

	return float64(xp-l.XPFloor) / float64(l.XPCeiling-l.XPFloor)
}

// LevelCurve maps cumulative XP to levels. Going from level L to L+1 costs
// BaseXP + (L-1)*GrowthXP.
type LevelCurve struct {
	baseXP   uint64
	growthXP uint64
	maxLevel int
}

func NewLevelCurve(cfg config.LevelConfigs) LevelCurve {
	def := config.Default().Progression.Level
	if cfg.BaseXP == 0 {
		cfg.BaseXP = def.BaseXP
	}

	if cfg.MaxLevel <= 0 {
		cfg.MaxLevel = def.MaxLevel
	}

	return LevelCurve{baseXP: cfg.BaseXP, growthXP: cfg.GrowthXP, maxLevel: cfg.MaxLevel}
}

func (c LevelCurve) MaxLevel() int {
	return c.maxLevel
}

// Floor returns the XP required to reach the level.
func (c LevelCurve) Floor(level int) uint64 {
	if level <= 1 {
		return 0
	}

	n := uint64(level - 1)
	return n*c.baseXP + c.growthXP*n*(n-1)/2
}

// Resolve returns the level of the cumulative XP.
func (c LevelCurve) Resolve(xp uint64) Level {
	// Floors are strictly increasing, so the level is the last one whose floor
	// does not exceed xp.
	level := sort.Search(c.maxLevel-1, func(i int) bool {
		return c.Floor(i+2) > xp
	}) + 1

	if level >= c.maxLevel {
		return Level{Level: c.maxLevel, XPFloor: c.Floor(c.maxLevel), IsMax: true}
	}

	return Level{Level: level, XPFloor: c.Floor(level), XPCeiling: c.Floor(level + 1)}
}
