package progression

import (
	"github.com/immersionlab/backend/internal/entity"
)

// Stats is the aggregate statistics snapshot which achievement rules are
// evaluated against.
type Stats struct {
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
}

func (s Stats) HoursListened() float64 {
	return float64(s.ListeningMinutes) / 60
}

// CategoryLevel returns the level of the category, false if the category
// doesn't own a level.
func (s Stats) CategoryLevel(c Category) (int, bool) {
	switch c {
	case ReadingCategory:
		return s.ReadingLevel, true
	case ListeningCategory:
		return s.ListeningLevel, true
	}

	return 0, false
}

// add accumulates one normalized log. Levels are resolved once all logs are
// accumulated.
func (s *Stats) add(t entity.ImmersionType, m Metrics, xp uint64) {
	s.TotalLogs++
	s.CharsRead += m.Chars
	s.PagesRead += m.Pages
	s.EpisodesWatched += m.Episodes

	category, ok := CategoryOf(t)
	if !ok {
		return
	}

	switch category {
	case ReadingCategory:
		s.ReadingXP = addXP(s.ReadingXP, xp)
	case ListeningCategory:
		s.ListeningXP = addXP(s.ListeningXP, xp)
		s.ListeningMinutes += m.Minutes
	}
}

func (s Stats) ToEntity(userID string) *entity.UserStats {
	return &entity.UserStats{
		UserID:           userID,
		TotalLogs:        s.TotalLogs,
		CharsRead:        s.CharsRead,
		PagesRead:        s.PagesRead,
		ListeningMinutes: s.ListeningMinutes,
		EpisodesWatched:  s.EpisodesWatched,
		ClubMemberships:  s.ClubMemberships,
		ReadingXP:        s.ReadingXP,
		ReadingLevel:     s.ReadingLevel,
		ListeningXP:      s.ListeningXP,
		ListeningLevel:   s.ListeningLevel,
	}
}

func StatsFromEntity(e *entity.UserStats) Stats {
	return Stats{
		TotalLogs:        e.TotalLogs,
		CharsRead:        e.CharsRead,
		PagesRead:        e.PagesRead,
		ListeningMinutes: e.ListeningMinutes,
		EpisodesWatched:  e.EpisodesWatched,
		ClubMemberships:  e.ClubMemberships,
		ReadingXP:        e.ReadingXP,
		ReadingLevel:     e.ReadingLevel,
		ListeningXP:      e.ListeningXP,
		ListeningLevel:   e.ListeningLevel,
	}
}
