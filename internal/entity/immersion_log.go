package entity

import (
	"database/sql"
	"time"

	"github.com/immersionlab/backend/pkg/enum"
)

type ImmersionType string

var (
	Anime   = enum.New(ImmersionType("anime"))
	Manga   = enum.New(ImmersionType("manga"))
	Reading = enum.New(ImmersionType("reading"))
	VN      = enum.New(ImmersionType("vn"))
	Video   = enum.New(ImmersionType("video"))
	Movie   = enum.New(ImmersionType("movie"))
	TVShow  = enum.New(ImmersionType("tv show"))
	Audio   = enum.New(ImmersionType("audio"))
	Other   = enum.New(ImmersionType("other"))
)

// ImmersionLog is a unit of immersion logged by a user. A soft deleted log is
// not a surviving log and is ignored by all progression computations.
type ImmersionLog struct {
	Base

	UserID string `gorm:"index:idx_immersion_logs_user_date,priority:1"`
	User   User   `gorm:"foreignKey:UserID"`

	Type  ImmersionType
	Title string

	// Time is in minutes.
	Time     sql.NullInt64
	Chars    sql.NullInt64
	Pages    sql.NullInt64
	Episodes sql.NullInt64

	Date time.Time `gorm:"index:idx_immersion_logs_user_date,priority:2"`

	// Timezone is the IANA location the log was submitted from. It is kept for
	// display, calendar days are always derived from the user's timezone.
	Timezone string
}
