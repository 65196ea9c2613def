package http

import (
	"net/http"
	"time"

	statService "anoa.com/skillquest/internal/modules/stat/service"
	"anoa.com/skillquest/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{
		statService: statService,
	}
}

func (h *StatHandler) GetCommunityStats(c *gin.Context) {
	loc := time.Local
	if tz := c.Query("tz"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	stats, err := h.statService.GetCommunityStats(c.Request.Context(), loc)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
