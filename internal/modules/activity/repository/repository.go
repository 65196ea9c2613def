package repository

import (
	"context"
	"time"

	"anoa.com/skillquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MoverTotal struct {
	UserID     uuid.UUID `gorm:"column:user_id"`
	XP         int       `gorm:"column:xp"`
	Activities int       `gorm:"column:activities"`
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.UserActivity) error
	// ListRecent returns the newest entries first.
	ListRecent(ctx context.Context, limit int) ([]entity.UserActivity, error)
	// MoversSince totals XP per author over entries created at or after since,
	// highest first. Ties go to the author who posted most recently.
	MoversSince(ctx context.Context, since time.Time, limit int) ([]MoverTotal, error)
	// ListPage walks the whole log oldest first.
	ListPage(ctx context.Context, offset, limit int) ([]entity.UserActivity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *entity.UserActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]entity.UserActivity, error) {
	var activities []entity.UserActivity
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) MoversSince(ctx context.Context, since time.Time, limit int) ([]MoverTotal, error) {
	var totals []MoverTotal
	err := r.db.WithContext(ctx).
		Model(&entity.UserActivity{}).
		Select("user_id, SUM(xp_earned) AS xp, COUNT(*) AS activities").
		Where("created_at >= ?", since).
		Group("user_id").
		Order("xp desc").
		Order("MAX(created_at) desc").
		Order("user_id").
		Limit(limit).
		Scan(&totals).Error
	return totals, err
}

func (r *activityRepository) ListPage(ctx context.Context, offset, limit int) ([]entity.UserActivity, error) {
	var activities []entity.UserActivity
	err := r.db.WithContext(ctx).
		Order("created_at asc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
