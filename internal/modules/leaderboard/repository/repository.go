package repository

import (
	"context"
	"time"

	"anoa.com/skillquest/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Earning is the XP a user collected in the activity log over a window.
type Earning struct {
	UserID uuid.UUID
	XP     int
}

type LeaderboardRepository interface {
	// TopAllTime ranks profiles by total XP.
	TopAllTime(ctx context.Context, limit int) ([]entity.Profile, error)
	// TopEarnedSince ranks users by XP logged in activities since the given time.
	TopEarnedSince(ctx context.Context, since time.Time, limit int) ([]Earning, error)
	EarnedSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	ProfilesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) TopAllTime(ctx context.Context, limit int) ([]entity.Profile, error) {
	var profiles []entity.Profile
	err := r.db.WithContext(ctx).
		Order("xp desc").
		Order("updated_at asc").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *leaderboardRepository) TopEarnedSince(ctx context.Context, since time.Time, limit int) ([]Earning, error) {
	var earnings []Earning
	err := r.db.WithContext(ctx).
		Model(&entity.UserActivity{}).
		Select("user_id, SUM(xp_earned) AS xp").
		Where("created_at >= ?", since).
		Group("user_id").
		Having("SUM(xp_earned) > 0").
		Order("xp desc").
		Limit(limit).
		Scan(&earnings).Error
	return earnings, err
}

func (r *leaderboardRepository) EarnedSince(ctx context.Context, userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	result := make(map[uuid.UUID]int, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var earnings []Earning
	err := r.db.WithContext(ctx).
		Model(&entity.UserActivity{}).
		Select("user_id, SUM(xp_earned) AS xp").
		Where("user_id IN ? AND created_at >= ?", userIDs, since).
		Group("user_id").
		Scan(&earnings).Error
	if err != nil {
		return nil, err
	}
	for _, e := range earnings {
		result[e.UserID] = e.XP
	}
	return result, nil
}

func (r *leaderboardRepository) ProfilesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Profile, error) {
	result := make(map[uuid.UUID]entity.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []entity.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}
