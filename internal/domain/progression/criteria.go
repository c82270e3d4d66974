package progression

import (
	"errors"
	"fmt"

	"github.com/fatih/structs"
	"github.com/immersionlab/backend/pkg/enum"
	"github.com/mitchellh/mapstructure"
)

type CriteriaType string

var (
	TotalLogsCriteriaType       = enum.New(CriteriaType("total_logs"))
	LevelReachedCriteriaType    = enum.New(CriteriaType("level_reached"))
	StreakDaysCriteriaType      = enum.New(CriteriaType("streak_days"))
	CategoryLevelCriteriaType   = enum.New(CriteriaType("category_level"))
	CharsReadCriteriaType       = enum.New(CriteriaType("chars_read"))
	PagesReadCriteriaType       = enum.New(CriteriaType("pages_read"))
	HoursListenedCriteriaType   = enum.New(CriteriaType("hours_listened"))
	EpisodesWatchedCriteriaType = enum.New(CriteriaType("episodes_watched"))
	ClubMemberCriteriaType      = enum.New(CriteriaType("club_member"))
	TotalXPCriteriaType         = enum.New(CriteriaType("total_xp"))
)

type StreakPolicy string

var (
	LongestStreakPolicy = enum.New(StreakPolicy("longest"))
	CurrentStreakPolicy = enum.New(StreakPolicy("current"))
)

// Snapshot is everything a criteria can be measured against.
type Snapshot struct {
	Stats        Stats
	State        State
	StreakPolicy StreakPolicy
}

// Criteria is the closed set of achievement rules. Every variant measures its
// own stat, so adding a variant without a measure doesn't compile.
type Criteria interface {
	Type() CriteriaType
	Threshold() float64

	// Measure returns the current value of the stat this criteria compares
	// with its threshold.
	Measure(s *Snapshot) (float64, error)

	isCriteria()
}

// Bound is the threshold shared by all criteria variants. An achievement
// unlocks when the measured stat is greater than or equal to it.
type Bound struct {
	Value float64 `mapstructure:"threshold" structs:"threshold"`
}

func (b Bound) Threshold() float64 { return b.Value }
func (Bound) isCriteria()          {}

type TotalLogsCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (TotalLogsCriteria) Type() CriteriaType { return TotalLogsCriteriaType }
func (TotalLogsCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.Stats.TotalLogs), nil
}

type LevelReachedCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (LevelReachedCriteria) Type() CriteriaType { return LevelReachedCriteriaType }
func (LevelReachedCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.State.Level.Level), nil
}

type StreakDaysCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (StreakDaysCriteria) Type() CriteriaType { return StreakDaysCriteriaType }
func (StreakDaysCriteria) Measure(s *Snapshot) (float64, error) {
	if s.StreakPolicy == CurrentStreakPolicy {
		return float64(s.State.Streak.Current), nil
	}

	return float64(s.State.Streak.Longest), nil
}

type CategoryLevelCriteria struct {
	Bound    `mapstructure:",squash" structs:",flatten"`
	Category string `mapstructure:"category" structs:"category"`
}

func (CategoryLevelCriteria) Type() CriteriaType { return CategoryLevelCriteriaType }
func (c CategoryLevelCriteria) Measure(s *Snapshot) (float64, error) {
	level, ok := s.Stats.CategoryLevel(Category(c.Category))
	if !ok {
		return 0, fmt.Errorf("category %q has no level", c.Category)
	}

	return float64(level), nil
}

type CharsReadCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (CharsReadCriteria) Type() CriteriaType { return CharsReadCriteriaType }
func (CharsReadCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.Stats.CharsRead), nil
}

type PagesReadCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (PagesReadCriteria) Type() CriteriaType { return PagesReadCriteriaType }
func (PagesReadCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.Stats.PagesRead), nil
}

type HoursListenedCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (HoursListenedCriteria) Type() CriteriaType { return HoursListenedCriteriaType }
func (HoursListenedCriteria) Measure(s *Snapshot) (float64, error) {
	return s.Stats.HoursListened(), nil
}

type EpisodesWatchedCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (EpisodesWatchedCriteria) Type() CriteriaType { return EpisodesWatchedCriteriaType }
func (EpisodesWatchedCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.Stats.EpisodesWatched), nil
}

type ClubMemberCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (ClubMemberCriteria) Type() CriteriaType { return ClubMemberCriteriaType }
func (ClubMemberCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.Stats.ClubMemberships), nil
}

type TotalXPCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
}

func (TotalXPCriteria) Type() CriteriaType { return TotalXPCriteriaType }
func (TotalXPCriteria) Measure(s *Snapshot) (float64, error) {
	return float64(s.State.CumulativeXP), nil
}

// UnknownCriteria keeps a definition whose type this engine doesn't know. It
// never unlocks.
type UnknownCriteria struct {
	Bound `mapstructure:",squash" structs:",flatten"`
	Name  string `mapstructure:"type" structs:"type"`
}

func (c UnknownCriteria) Type() CriteriaType { return CriteriaType(c.Name) }
func (c UnknownCriteria) Measure(*Snapshot) (float64, error) {
	return 0, &UnknownCriteriaTypeError{Type: c.Name}
}

// NewCriteria decodes the criteria data of a catalog entry, e.g.
// {type: "category_level", threshold: 10, category: "reading"}. An unknown
// type is not an error, it yields UnknownCriteria.
func NewCriteria(data map[string]any) (Criteria, error) {
	rawType, ok := data["type"].(string)
	if !ok {
		return nil, errors.New("criteria type is required")
	}

	if _, ok := data["threshold"]; !ok {
		return nil, errors.New("criteria threshold is required")
	}

	var criteria Criteria
	var err error
	switch t, _ := enum.ToEnum[CriteriaType](rawType); t {
	case TotalLogsCriteriaType:
		criteria, err = decodeCriteria[TotalLogsCriteria](data)
	case LevelReachedCriteriaType:
		criteria, err = decodeCriteria[LevelReachedCriteria](data)
	case StreakDaysCriteriaType:
		criteria, err = decodeCriteria[StreakDaysCriteria](data)
	case CategoryLevelCriteriaType:
		var c *CategoryLevelCriteria
		c, err = decodeCriteria[CategoryLevelCriteria](data)
		if err == nil {
			if _, cerr := enum.ToEnum[Category](c.Category); cerr != nil {
				return nil, fmt.Errorf("invalid criteria category %q", c.Category)
			}
		}
		criteria = c
	case CharsReadCriteriaType:
		criteria, err = decodeCriteria[CharsReadCriteria](data)
	case PagesReadCriteriaType:
		criteria, err = decodeCriteria[PagesReadCriteria](data)
	case HoursListenedCriteriaType:
		criteria, err = decodeCriteria[HoursListenedCriteria](data)
	case EpisodesWatchedCriteriaType:
		criteria, err = decodeCriteria[EpisodesWatchedCriteria](data)
	case ClubMemberCriteriaType:
		criteria, err = decodeCriteria[ClubMemberCriteria](data)
	case TotalXPCriteriaType:
		criteria, err = decodeCriteria[TotalXPCriteria](data)
	default:
		criteria, err = decodeCriteria[UnknownCriteria](data)
	}

	if err != nil {
		return nil, err
	}

	if criteria.Threshold() < 0 {
		return nil, errors.New("criteria threshold must not be negative")
	}

	return criteria, nil
}

func decodeCriteria[T any](data map[string]any) (*T, error) {
	var c T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &c,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("cannot decode criteria: %w", err)
	}

	return &c, nil
}

// CriteriaData is the inverse of NewCriteria.
func CriteriaData(c Criteria) map[string]any {
	data := structs.Map(c)
	data["type"] = string(c.Type())
	return data
}
