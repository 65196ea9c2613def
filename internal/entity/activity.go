package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity categories. The set is open: unknown tags are stored as given.
const (
	ActivitySkillSwap = "skill_swap"
	ActivityChallenge = "challenge"
	ActivityAIUsage   = "ai_usage"
	ActivityWellness  = "wellness"
	ActivityForum     = "forum"
	ActivityOther     = "other"
)

// UserActivity is immutable once written. XPEarned is informational only;
// profiles.xp stays the source of truth.
type UserActivity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ActivityType string    `gorm:"size:50;not null" json:"activity_type"`
	Description  string    `gorm:"column:activity_description;type:text;not null" json:"activity_description"`
	XPEarned     int       `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}

func (a *UserActivity) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}
