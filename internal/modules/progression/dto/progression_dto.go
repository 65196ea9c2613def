package dto

import "anoa.com/skillquest/internal/entity"

type AwardInput struct {
	Amount int    `json:"amount" binding:"gte=0,lte=100000"`
	Reason string `json:"reason" binding:"omitempty,max=200"`
}

type CreditInput struct {
	Amount int `json:"amount" binding:"gte=0,lte=100000"`
}

type CreditResponse struct {
	Success bool `json:"success"`
	XP      int  `json:"xp"`
	Level   int  `json:"level"`
}

type SetProgressInput struct {
	XP    int `json:"xp" binding:"gte=0"`
	Level int `json:"level" binding:"required,gte=1"`
}

// ProgressEvent is a frame on the progress websocket.
type ProgressEvent struct {
	Type    string          `json:"type"` // "snapshot", "profile_changed", "awarded", "award_dropped" or "error"
	Profile *entity.Profile `json:"profile"`
	Status  any             `json:"status"`
	Error   string          `json:"error,omitempty"`
}

// ProgressCommand is a client frame on the progress websocket.
type ProgressCommand struct {
	Type   string `json:"type"` // "award"
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}
