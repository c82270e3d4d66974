package entity

import "time"

// UserStats is the aggregate statistics of a user, recomputed together with
// Progression. They are the input of achievement rules.
type UserStats struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	TotalLogs        int64
	CharsRead        int64
	PagesRead        int64
	ListeningMinutes int64
	EpisodesWatched  int64
	ClubMemberships  int64

	ReadingXP      uint64
	ReadingLevel   int
	ListeningXP    uint64
	ListeningLevel int

	UpdatedAt time.Time
}
