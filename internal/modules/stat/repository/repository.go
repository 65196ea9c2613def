package repository

import (
	"context"
	"time"

	"anoa.com/skillquest/internal/entity"
	"gorm.io/gorm"
)

type ActivitySummary struct {
	Activities int64
	XP         int64
	Students   int64
}

type StatRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	SummarizeSince(ctx context.Context, since time.Time) (ActivitySummary, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error
	return count, err
}

func (r *statRepository) SummarizeSince(ctx context.Context, since time.Time) (ActivitySummary, error) {
	var summary ActivitySummary
	err := r.db.WithContext(ctx).
		Model(&entity.UserActivity{}).
		Select("COUNT(*) AS activities, COALESCE(SUM(xp_earned), 0) AS xp, COUNT(DISTINCT user_id) AS students").
		Where("created_at >= ?", since).
		Scan(&summary).Error
	return summary, err
}
