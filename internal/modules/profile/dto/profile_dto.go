package dto

import (
	"io"
	"time"

	"anoa.com/skillquest/internal/entity"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
)

// AvatarFile is an uploaded avatar image.
type AvatarFile struct {
	Reader   io.Reader
	FileName string
}

// UpdateProfileInput is bound from JSON or multipart form. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Username     *string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	FullName     *string `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	RemoveAvatar bool    `json:"remove_avatar" form:"remove_avatar"`
}

type ProfileResponse struct {
	Profile *entity.Profile                `json:"profile"`
	Status  progressionService.LevelStatus `json:"status"`
}

type PublicProfileResponse struct {
	Username  string                         `json:"username"`
	FullName  *string                        `json:"full_name,omitempty"`
	AvatarURL *string                        `json:"avatar_url,omitempty"`
	CreatedAt time.Time                      `json:"created_at"`
	Status    progressionService.LevelStatus `json:"status"`
}
