package progression

import (
	"time"

	"github.com/immersionlab/backend/pkg/enum"
)

type EventType string

var (
	LevelUpEvent             = enum.New(EventType("level_up"))
	AchievementUnlockedEvent = enum.New(EventType("achievement_unlocked"))
)

// Event is emitted for the presentation layer after a recompute is committed.
// The engine never renders anything itself.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`

	OldLevel int `json:"old_level,omitempty"`
	NewLevel int `json:"new_level,omitempty"`

	AchievementKey  string `json:"achievement_key,omitempty"`
	AchievementName string `json:"achievement_name,omitempty"`
	Rarity          string `json:"rarity,omitempty"`
	Points          int    `json:"points,omitempty"`
	Hidden          bool   `json:"hidden,omitempty"`
}

// BuildEvents returns a level up event when newLevel is above oldLevel, then
// one event per unlocked achievement.
func BuildEvents(userID string, oldLevel, newLevel int, unlocks []Unlock, at time.Time) []Event {
	var events []Event
	if newLevel > oldLevel {
		events = append(events, Event{
			Type:       LevelUpEvent,
			UserID:     userID,
			OccurredAt: at,
			OldLevel:   oldLevel,
			NewLevel:   newLevel,
		})
	}

	for _, u := range unlocks {
		events = append(events, Event{
			Type:            AchievementUnlockedEvent,
			UserID:          userID,
			OccurredAt:      at,
			AchievementKey:  u.Definition.Key,
			AchievementName: u.Definition.Name,
			Rarity:          u.Definition.Rarity.String(),
			Points:          u.Points,
			Hidden:          u.Definition.Hidden,
		})
	}

	return events
}
