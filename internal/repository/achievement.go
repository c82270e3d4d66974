package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	Upsert(ctx context.Context, data ...entity.Achievement) error
	GetAll(ctx context.Context) ([]entity.Achievement, error)
}

type achievementRepository struct{}

func NewAchievementRepository() *achievementRepository {
	return &achievementRepository{}
}

// Upsert inserts new definitions and overwrites existing ones with the same
// key.
func (r *achievementRepository) Upsert(ctx context.Context, data ...entity.Achievement) error {
	if len(data) == 0 {
		return nil
	}

	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"description",
				"category",
				"rarity",
				"points",
				"hidden",
				"criteria_type",
				"criteria_category",
				"threshold",
				"catalog_version",
				"updated_at",
			}),
		}).
		Create(&data).Error
}

func (r *achievementRepository) GetAll(ctx context.Context) ([]entity.Achievement, error) {
	var result []entity.Achievement
	if err := xcontext.DB(ctx).Order("`key` ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
