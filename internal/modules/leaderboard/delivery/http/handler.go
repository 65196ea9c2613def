package http

import (
	"net/http"

	leaderboardDto "anoa.com/skillquest/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/skillquest/internal/modules/leaderboard/service"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var query leaderboardDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), query.Limit, query.Timeframe)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
