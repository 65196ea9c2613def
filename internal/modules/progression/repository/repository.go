package repository

import (
	"context"
	"errors"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	// GetOrCreate lazily inserts a profile with xp=0, level=1.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	// CompareAndSwap writes xp/level only if the stored xp still equals expectedXP.
	CompareAndSwap(ctx context.Context, userID uuid.UUID, expectedXP, newXP, newLevel int) (bool, error)
	// IncrementAndRelevel adds amount and re-derives the level in a single statement.
	IncrementAndRelevel(ctx context.Context, userID uuid.UUID, amount, step int) (*entity.Profile, error)
	SetProgress(ctx context.Context, userID uuid.UUID, xp, level int) (*entity.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return find(r.db.WithContext(ctx), userID)
}

func (r *profileRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	db := r.db.WithContext(ctx)
	if err := createIfMissing(db, userID); err != nil {
		return nil, err
	}
	return find(db, userID)
}

func (r *profileRepository) CompareAndSwap(ctx context.Context, userID uuid.UUID, expectedXP, newXP, newLevel int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Profile{}).
		Where("id = ? AND xp = ?", userID, expectedXP).
		Updates(map[string]any{"xp": newXP, "level": newLevel})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *profileRepository) IncrementAndRelevel(ctx context.Context, userID uuid.UUID, amount, step int) (*entity.Profile, error) {
	var profile *entity.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createIfMissing(tx, userID); err != nil {
			return err
		}

		// Both expressions see the pre-update xp. Like Levels.Advance, the
		// level only moves up, so a hand-set higher level survives.
		res := tx.Model(&entity.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"xp": gorm.Expr("xp + ?", amount),
				"level": gorm.Expr("CASE WHEN level > (xp + ?) / ? + 1 THEN level ELSE (xp + ?) / ? + 1 END",
					amount, step, amount, step),
			})
		if res.Error != nil {
			return res.Error
		}

		var err error
		profile, err = find(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) SetProgress(ctx context.Context, userID uuid.UUID, xp, level int) (*entity.Profile, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"xp", "level", "updated_at"}),
	}).Create(&entity.Profile{ID: userID, XP: xp, Level: level}).Error
	if err != nil {
		return nil, err
	}
	return find(db, userID)
}

func createIfMissing(db *gorm.DB, userID uuid.UUID) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Profile{ID: userID, XP: 0, Level: 1}).Error
}

func find(db *gorm.DB, userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}
