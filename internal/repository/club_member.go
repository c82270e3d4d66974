package repository

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
)

type ClubMemberRepository interface {
	Create(ctx context.Context, data *entity.ClubMember) error
	Leave(ctx context.Context, clubID, userID string) error
	CountByUserID(ctx context.Context, userID string) (int64, error)
	CountByUserIDs(ctx context.Context, userIDs []string) (map[string]int64, error)
}

type clubMemberRepository struct{}

func NewClubMemberRepository() *clubMemberRepository {
	return &clubMemberRepository{}
}

func (r *clubMemberRepository) Create(ctx context.Context, data *entity.ClubMember) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *clubMemberRepository) Leave(ctx context.Context, clubID, userID string) error {
	return xcontext.DB(ctx).
		Where("club_id=? AND user_id=?", clubID, userID).
		Delete(&entity.ClubMember{}).Error
}

func (r *clubMemberRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.ClubMember{}).
		Where("user_id=?", userID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *clubMemberRepository) CountByUserIDs(ctx context.Context, userIDs []string) (map[string]int64, error) {
	type row struct {
		UserID string
		Total  int64
	}

	var rows []row
	err := xcontext.DB(ctx).Model(&entity.ClubMember{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN (?)", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.UserID] = r.Total
	}

	return result, nil
}
