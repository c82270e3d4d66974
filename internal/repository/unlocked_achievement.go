package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UnlockedAchievementRepository interface {
	GetByUserID(ctx context.Context, userID string) ([]entity.UnlockedAchievement, error)
	GetKeysByUserIDs(ctx context.Context, userIDs []string) (map[string]map[string]struct{}, error)
	CreateIfNotExists(ctx context.Context, data *entity.UnlockedAchievement) (bool, error)
}

type unlockedAchievementRepository struct{}

func NewUnlockedAchievementRepository() *unlockedAchievementRepository {
	return &unlockedAchievementRepository{}
}

func (r *unlockedAchievementRepository) GetByUserID(
	ctx context.Context, userID string,
) ([]entity.UnlockedAchievement, error) {
	var result []entity.UnlockedAchievement
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("unlocked_at ASC, achievement_key ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *unlockedAchievementRepository) GetKeysByUserIDs(
	ctx context.Context, userIDs []string,
) (map[string]map[string]struct{}, error) {
	var records []entity.UnlockedAchievement
	err := xcontext.DB(ctx).
		Select("user_id", "achievement_key").
		Where("user_id IN (?)", userIDs).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := map[string]map[string]struct{}{}
	for _, r := range records {
		if _, ok := result[r.UserID]; !ok {
			result[r.UserID] = map[string]struct{}{}
		}
		result[r.UserID][r.AchievementKey] = struct{}{}
	}

	return result, nil
}

// CreateIfNotExists returns false if the user already had the achievement.
func (r *unlockedAchievementRepository) CreateIfNotExists(
	ctx context.Context, data *entity.UnlockedAchievement,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(data)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}
