package progression

import (
	"database/sql"
	"fmt"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/enum"
)

// Metrics is the canonical measurable quantities of a log. Fields which are
// meaningless for the log type are always zero.
type Metrics struct {
	Minutes  int64
	Chars    int64
	Pages    int64
	Episodes int64
}

func (m Metrics) IsZero() bool {
	return m.Minutes == 0 && m.Chars == 0 && m.Pages == 0 && m.Episodes == 0
}

// Upper bounds of a single log. Larger quantities are rejected, and XP never
// grows past them.
const (
	MaxMinutes  = 100_000
	MaxChars    = 1_000_000_000
	MaxPages    = 1_000_000
	MaxEpisodes = 100_000
)

type InvalidMetricError struct {
	Type   entity.ImmersionType
	Reason string
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("invalid metric of %s log: %s", e.Type, e.Reason)
}

// Category groups log types into the skills which own a level.
type Category string

var (
	ReadingCategory   = enum.New(Category("reading"))
	ListeningCategory = enum.New(Category("listening"))
)

// CategoryOf returns the category of the log type, or false if the type
// counts only toward the total XP.
func CategoryOf(t entity.ImmersionType) (Category, bool) {
	switch t {
	case entity.Reading, entity.Manga, entity.VN:
		return ReadingCategory, true
	case entity.Anime, entity.Video, entity.Movie, entity.TVShow, entity.Audio:
		return ListeningCategory, true
	}

	return "", false
}

func tracksText(t entity.ImmersionType) bool {
	return t == entity.Reading || t == entity.Manga || t == entity.VN
}

func tracksEpisodes(t entity.ImmersionType) bool {
	return t == entity.Anime || t == entity.TVShow
}

// Normalize converts a log into its canonical metrics. Absent fields become
// zero, episodes are only kept for episodic types and characters or pages only
// for text types.
func Normalize(log *entity.ImmersionLog) (Metrics, error) {
	if _, err := enum.ToEnum[entity.ImmersionType](string(log.Type)); err != nil {
		return Metrics{}, &InvalidMetricError{Type: log.Type, Reason: "unknown log type"}
	}

	fields := []struct {
		name  string
		value sql.NullInt64
		limit int64
	}{
		{"time", log.Time, MaxMinutes},
		{"chars", log.Chars, MaxChars},
		{"pages", log.Pages, MaxPages},
		{"episodes", log.Episodes, MaxEpisodes},
	}
	for _, f := range fields {
		if !f.value.Valid {
			continue
		}

		if f.value.Int64 < 0 {
			return Metrics{}, &InvalidMetricError{Type: log.Type, Reason: f.name + " must not be negative"}
		}

		if f.value.Int64 > f.limit {
			return Metrics{}, &InvalidMetricError{
				Type:   log.Type,
				Reason: fmt.Sprintf("%s must not exceed %d", f.name, f.limit),
			}
		}
	}

	m := Metrics{Minutes: valueOf(log.Time)}
	if tracksText(log.Type) {
		m.Chars = valueOf(log.Chars)
		m.Pages = valueOf(log.Pages)
	}

	if tracksEpisodes(log.Type) {
		m.Episodes = valueOf(log.Episodes)
	}

	if m.IsZero() {
		return Metrics{}, &InvalidMetricError{Type: log.Type, Reason: "no measurable quantity"}
	}

	return m, nil
}

func valueOf(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}

	return v.Int64
}
