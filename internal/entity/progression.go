package entity

import (
	"time"
)

// Progression is the derived progression state of a user. It is a pure
// function of the surviving logs of the user and must never be edited by
// hand.
type Progression struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	CumulativeXP  uint64
	Level         int
	CurrentStreak int
	LongestStreak int

	// LastActiveDay has the format 2006-01-02, empty if the user has no
	// surviving log.
	LastActiveDay string

	// Version is increased by one on every write. A writer only succeeds if
	// the version it read is still the stored one.
	Version uint64

	UpdatedAt time.Time
}
