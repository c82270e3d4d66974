package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
)

type UserRepository interface {
	Create(ctx context.Context, data *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdateTimezone(ctx context.Context, id, timezone string) error
	GetTimezones(ctx context.Context, ids []string) (map[string]string, error)
	GetIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, data *entity.User) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var record entity.User
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&record).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *userRepository) UpdateTimezone(ctx context.Context, id, timezone string) error {
	return xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", id).
		Update("timezone", timezone).Error
}

// GetTimezones returns the timezone of every found user, keyed by user id.
func (r *userRepository) GetTimezones(ctx context.Context, ids []string) (map[string]string, error) {
	var records []entity.User
	err := xcontext.DB(ctx).Select("id", "timezone").Where("id IN (?)", ids).Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(records))
	for _, r := range records {
		result[r.ID] = r.Timezone
	}

	return result, nil
}

// GetIDsAfter pages through all users ordered by id. An empty afterID starts
// from the first user.
func (r *userRepository) GetIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
