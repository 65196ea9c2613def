package bootstrap

import (
	"errors"

	"anoa.com/skillquest/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	devAdminEmail    = "admin@skillquest.dev"
	devAdminPassword = "admin123"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.UserActivity{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Super administrator"},
		{Name: entity.RoleStudent, Description: "Student"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates the development administrator once.
func SeedAdminUser(db *gorm.DB, log *zap.Logger) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var existing entity.User
	err := db.Where("email = ?", devAdminEmail).First(&existing).Error
	if err == nil {
		log.Debug("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(devAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		admin := entity.User{
			Email:        devAdminEmail,
			PasswordHash: string(hashed),
			RoleID:       &adminRole.ID,
		}
		if err := tx.Omit("Role").Create(&admin).Error; err != nil {
			return err
		}

		profile := entity.Profile{
			ID:       admin.ID,
			Username: stringPtr("admin"),
			FullName: stringPtr("Administrator"),
			Level:    1,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return err
	}

	log.Info("admin user seeded", zap.String("email", devAdminEmail), zap.String("password", devAdminPassword))
	return nil
}

func stringPtr(s string) *string {
	return &s
}
