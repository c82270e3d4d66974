package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserStatsRepository interface {
	Get(ctx context.Context, userID string) (*entity.UserStats, error)
	Upsert(ctx context.Context, data *entity.UserStats) error
}

type userStatsRepository struct{}

func NewUserStatsRepository() *userStatsRepository {
	return &userStatsRepository{}
}

func (r *userStatsRepository) Get(ctx context.Context, userID string) (*entity.UserStats, error) {
	var result entity.UserStats
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userStatsRepository) Upsert(ctx context.Context, data *entity.UserStats) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(data).Error
}
