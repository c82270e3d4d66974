package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ImmersionLogRepository interface {
	Create(ctx context.Context, data *entity.ImmersionLog) error
	GetByID(ctx context.Context, id string) (*entity.ImmersionLog, error)
	Update(ctx context.Context, data *entity.ImmersionLog) error
	Delete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	GetByUserID(ctx context.Context, userID string) ([]entity.ImmersionLog, error)
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string][]entity.ImmersionLog, error)
}

type immersionLogRepository struct{}

func NewImmersionLogRepository() *immersionLogRepository {
	return &immersionLogRepository{}
}

func (r *immersionLogRepository) Create(ctx context.Context, data *entity.ImmersionLog) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *immersionLogRepository) GetByID(ctx context.Context, id string) (*entity.ImmersionLog, error) {
	var result entity.ImmersionLog
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *immersionLogRepository) Update(ctx context.Context, data *entity.ImmersionLog) error {
	tx := xcontext.DB(ctx).Model(&entity.ImmersionLog{}).
		Where("id=?", data.ID).
		Updates(map[string]any{
			"type":     data.Type,
			"title":    data.Title,
			"time":     data.Time,
			"chars":    data.Chars,
			"pages":    data.Pages,
			"episodes": data.Episodes,
			"date":     data.Date,
			"timezone": data.Timezone,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete soft deletes the log. A soft deleted log no longer counts toward
// progression.
func (r *immersionLogRepository) Delete(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Where("id=?", id).Delete(&entity.ImmersionLog{})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *immersionLogRepository) HardDelete(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Unscoped().Where("id=?", id).Delete(&entity.ImmersionLog{})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetByUserID returns the surviving logs of the user.
func (r *immersionLogRepository) GetByUserID(ctx context.Context, userID string) ([]entity.ImmersionLog, error) {
	var result []entity.ImmersionLog
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("date ASC, id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *immersionLogRepository) GetByUserIDs(
	ctx context.Context, userIDs []string,
) (map[string][]entity.ImmersionLog, error) {
	var records []entity.ImmersionLog
	err := xcontext.DB(ctx).
		Where("user_id IN (?)", userIDs).
		Order("user_id ASC, date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := map[string][]entity.ImmersionLog{}
	for _, r := range records {
		result[r.UserID] = append(result[r.UserID], r)
	}

	return result, nil
}
