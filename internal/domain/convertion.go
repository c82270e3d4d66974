package domain

import (
	"database/sql"
	"time"

	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/model"
)

const defaultTimeLayout string = time.RFC3339Nano

func convertLevel(level progression.Level, xp uint64) model.Level {
	return model.Level{
		Level:     level.Level,
		XPFloor:   level.XPFloor,
		XPCeiling: level.XPCeiling,
		IsMax:     level.IsMax,
		Progress:  level.Progress(xp),
	}
}

func convertStats(stats progression.Stats) model.Stats {
	return model.Stats{
		TotalLogs:       stats.TotalLogs,
		CharsRead:       stats.CharsRead,
		PagesRead:       stats.PagesRead,
		HoursListened:   stats.HoursListened(),
		EpisodesWatched: stats.EpisodesWatched,
		ClubMemberships: stats.ClubMemberships,
		ReadingXP:       stats.ReadingXP,
		ReadingLevel:    stats.ReadingLevel,
		ListeningXP:     stats.ListeningXP,
		ListeningLevel:  stats.ListeningLevel,
	}
}

func convertProgression(
	p *entity.Progression, stats progression.Stats, curve progression.LevelCurve,
) model.Progression {
	if p == nil {
		return model.Progression{
			Level: convertLevel(curve.Resolve(0), 0),
			Stats: convertStats(stats),
		}
	}

	updatedAt := ""
	if !p.UpdatedAt.IsZero() {
		updatedAt = p.UpdatedAt.Format(defaultTimeLayout)
	}

	return model.Progression{
		UserID:        p.UserID,
		CumulativeXP:  p.CumulativeXP,
		Level:         convertLevel(curve.Resolve(p.CumulativeXP), p.CumulativeXP),
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		LastActiveDay: p.LastActiveDay,
		Stats:         convertStats(stats),
		UpdatedAt:     updatedAt,
	}
}

func convertAchievement(def progression.Definition, unlocked *entity.UnlockedAchievement) model.Achievement {
	a := model.Achievement{
		Key:         def.Key,
		Name:        def.Name,
		Description: def.Description,
		Category:    def.Category,
		Rarity:      def.Rarity.String(),
		Points:      def.Points,
		Hidden:      def.Hidden,
		Criteria:    progression.CriteriaData(def.Criteria),
	}

	if unlocked != nil {
		a.Unlocked = true
		a.UnlockedAt = unlocked.UnlockedAt.Format(defaultTimeLayout)
	}

	return a
}

func convertEvents(events []progression.Event) []model.ProgressionEvent {
	result := []model.ProgressionEvent{}
	for _, e := range events {
		result = append(result, model.ProgressionEvent{
			ID:             e.ID,
			Type:           string(e.Type),
			UserID:         e.UserID,
			OccurredAt:     e.OccurredAt.Format(defaultTimeLayout),
			OldLevel:       e.OldLevel,
			NewLevel:       e.NewLevel,
			AchievementKey: e.AchievementKey,
			Rarity:         e.Rarity,
			Points:         e.Points,
		})
	}

	return result
}

func convertImmersionLog(log *entity.ImmersionLog, xp uint64) model.ImmersionLog {
	return model.ImmersionLog{
		ID:       log.ID,
		UserID:   log.UserID,
		Type:     string(log.Type),
		Title:    log.Title,
		Time:     convertNullInt64(log.Time),
		Chars:    convertNullInt64(log.Chars),
		Pages:    convertNullInt64(log.Pages),
		Episodes: convertNullInt64(log.Episodes),
		Date:     log.Date.Format(defaultTimeLayout),
		Timezone: log.Timezone,
		XP:       xp,
	}
}

func convertNullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}

	return &v.Int64
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: *v, Valid: true}
}
