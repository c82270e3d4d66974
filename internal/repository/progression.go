package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion is returned by Save when the stored progression was written
// by someone else after it was read.
var ErrStaleVersion = errors.New("stale progression version")

type ProgressionRepository interface {
	Get(ctx context.Context, userID string) (*entity.Progression, error)
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]entity.Progression, error)
	Save(ctx context.Context, data *entity.Progression, readVersion uint64) error
}

type progressionRepository struct{}

func NewProgressionRepository() *progressionRepository {
	return &progressionRepository{}
}

func (r *progressionRepository) Get(ctx context.Context, userID string) (*entity.Progression, error) {
	var result entity.Progression
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// GetByUserIDs returns the stored progression of every user having one.
func (r *progressionRepository) GetByUserIDs(
	ctx context.Context, userIDs []string,
) (map[string]entity.Progression, error) {
	var records []entity.Progression
	if err := xcontext.DB(ctx).Where("user_id IN (?)", userIDs).Find(&records).Error; err != nil {
		return nil, err
	}

	result := make(map[string]entity.Progression, len(records))
	for _, r := range records {
		result[r.UserID] = r
	}

	return result, nil
}

// Save writes the progression only if the stored version is still readVersion,
// a zero readVersion means no progression existed. On success data.Version is
// readVersion+1.
func (r *progressionRepository) Save(ctx context.Context, data *entity.Progression, readVersion uint64) error {
	data.Version = readVersion + 1

	if readVersion == 0 {
		tx := xcontext.DB(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(data)
		if tx.Error != nil {
			return tx.Error
		}

		if tx.RowsAffected == 0 {
			return ErrStaleVersion
		}

		return nil
	}

	data.UpdatedAt = time.Now()
	tx := xcontext.DB(ctx).Model(&entity.Progression{}).
		Where("user_id=? AND version=?", data.UserID, readVersion).
		Updates(map[string]any{
			"cumulative_xp":   data.CumulativeXP,
			"level":           data.Level,
			"current_streak":  data.CurrentStreak,
			"longest_streak":  data.LongestStreak,
			"last_active_day": data.LastActiveDay,
			"version":         data.Version,
			"updated_at":      data.UpdatedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrStaleVersion
	}

	return nil
}
