package model

type Level struct {
	Level     int     `json:"level"`
	XPFloor   uint64  `json:"xp_floor"`
	XPCeiling uint64  `json:"xp_ceiling,omitempty"`
	IsMax     bool    `json:"is_max"`
	Progress  float64 `json:"progress"`
}

type Stats struct {
	TotalLogs       int64   `json:"total_logs"`
	CharsRead       int64   `json:"chars_read"`
	PagesRead       int64   `json:"pages_read"`
	HoursListened   float64 `json:"hours_listened"`
	EpisodesWatched int64   `json:"episodes_watched"`
	ClubMemberships int64   `json:"club_memberships"`

	ReadingXP      uint64 `json:"reading_xp"`
	ReadingLevel   int    `json:"reading_level"`
	ListeningXP    uint64 `json:"listening_xp"`
	ListeningLevel int    `json:"listening_level"`
}

type Progression struct {
	UserID        string `json:"user_id"`
	CumulativeXP  uint64 `json:"cumulative_xp"`
	Level         Level  `json:"level"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	LastActiveDay string `json:"last_active_day,omitempty"`
	Stats         Stats  `json:"stats"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type Achievement struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Rarity      string         `json:"rarity"`
	Points      int            `json:"points"`
	Hidden      bool           `json:"hidden"`
	Criteria    map[string]any `json:"criteria"`
	Unlocked    bool           `json:"unlocked"`
	UnlockedAt  string         `json:"unlocked_at,omitempty"`
}

type ProgressionEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	OccurredAt string `json:"occurred_at"`

	OldLevel int `json:"old_level,omitempty"`
	NewLevel int `json:"new_level,omitempty"`

	AchievementKey string `json:"achievement_key,omitempty"`
	Rarity         string `json:"rarity,omitempty"`
	Points         int    `json:"points,omitempty"`
}

type ImmersionLog struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Time     *int64 `json:"time,omitempty"`
	Chars    *int64 `json:"chars,omitempty"`
	Pages    *int64 `json:"pages,omitempty"`
	Episodes *int64 `json:"episodes,omitempty"`
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
	XP       uint64 `json:"xp"`
}

type RecalculateFailure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}
