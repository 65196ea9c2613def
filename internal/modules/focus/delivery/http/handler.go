package http

import (
	"net/http"

	"anoa.com/skillquest/internal/modules/focus/dto"
	focusService "anoa.com/skillquest/internal/modules/focus/service"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
)

type FocusHandler struct {
	service focusService.FocusService
	levels  progressionService.Levels
}

func NewFocusHandler(service focusService.FocusService, levels progressionService.Levels) *FocusHandler {
	return &FocusHandler{service: service, levels: levels}
}

func (h *FocusHandler) CompleteSession(c *gin.Context) {
	caller := response.GetCaller(c)
	if !caller.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	var input dto.CompleteSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	result, err := h.service.CompleteSession(c.Request.Context(), caller, input.Minutes, input.Label, input.Kind)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	body := gin.H{"data": result}
	if p := result.Award.Profile; p != nil {
		body["status"] = h.levels.Status(p.XP, p.Level)
	}
	c.JSON(http.StatusOK, body)
}
