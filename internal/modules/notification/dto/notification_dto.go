package dto

import "anoa.com/skillquest/internal/entity"

type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type ListResponse struct {
	Data  []entity.Notification `json:"data"`
	Limit int                   `json:"limit"`
}
