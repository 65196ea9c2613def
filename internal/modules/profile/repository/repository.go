package repository

import (
	"context"
	"errors"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// displayColumns are the profile fields other users may see next to an activity.
var displayColumns = []string{"id", "username", "full_name", "avatar_url"}

type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindByUsername(ctx context.Context, username string) (*entity.Profile, error)
	// FindDisplayProfiles resolves many authors in one query. Unknown ids are absent from the map.
	FindDisplayProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Profile, error)
	// FindDisplayProfile returns nil, nil when the author has no profile.
	FindDisplayProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *profileRepository) FindByUsername(ctx context.Context, username string) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *profileRepository) FindDisplayProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Profile, error) {
	result := make(map[uuid.UUID]*entity.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []entity.Profile
	err := r.db.WithContext(ctx).
		Select(displayColumns).
		Where("id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	for i := range profiles {
		result[profiles[i].ID] = &profiles[i]
	}
	return result, nil
}

func (r *profileRepository) FindDisplayProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var profiles []entity.Profile
	err := r.db.WithContext(ctx).
		Select(displayColumns).
		Where("id = ?", id).
		Limit(1).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return &profiles[0], nil
}

func (r *profileRepository) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Profile{}).
		Where("username = ? AND id <> ?", username, except).
		Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&entity.Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
