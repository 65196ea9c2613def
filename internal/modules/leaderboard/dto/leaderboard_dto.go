package dto

import "github.com/google/uuid"

type LeaderboardQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,gte=1,lte=50"`
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=all_time weekly"`
}

// LeaderboardEntry is one ranked user. Position is 1-based.
type LeaderboardEntry struct {
	Position    int       `json:"position"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Level       int       `json:"level"`
	XP          int       `json:"xp"`
	Progress    float64   `json:"progress"` // percent toward the next level
	WeeklyXP    int       `json:"weekly_xp"`
	WeeklyLabel string    `json:"weekly_label"`
}
