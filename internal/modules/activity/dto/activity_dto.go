package dto

import activityService "anoa.com/skillquest/internal/modules/activity/service"

type LogActivityInput struct {
	ActivityType string `json:"activity_type" binding:"omitempty,max=50"`
	Description  string `json:"activity_description" binding:"required,max=2000"`
	XPEarned     int    `json:"xp_earned" binding:"gte=0,lte=100000"`
}

type TopMoversQuery struct {
	Limit    int    `form:"limit" binding:"omitempty,gte=1,lte=20"`
	Timezone string `form:"tz" binding:"omitempty,timezone"`
}

type SearchQuery struct {
	Query        string `form:"q" binding:"max=200"`
	UserID       string `form:"user_id" binding:"omitempty,uuid"`
	ActivityType string `form:"activity_type" binding:"omitempty,max=50"`
	Limit        int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

// FeedEvent is a frame on the activity websocket.
type FeedEvent struct {
	Type      string                  `json:"type"` // "snapshot" or "insert"
	Entries   []activityService.Entry `json:"entries"`
	TopMovers []activityService.Mover `json:"top_movers"`
}

type FeedQuery struct {
	Timezone string `form:"tz" binding:"omitempty,timezone"`
}
