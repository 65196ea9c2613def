package http

import (
	"net/http"

	contentService "anoa.com/skillquest/internal/modules/content/service"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	service contentService.ContentService
}

func NewContentHandler(service contentService.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Generate returns the handler for one content kind. The body shape depends on kind.
func (h *ContentHandler) Generate(kind contentService.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := response.GetCaller(c)
		if kind.RequiresAuth() && !caller.Authenticated() {
			response.ResponseError(c, apperror.ErrUnauthenticated)
			return
		}

		input, ok := kind.NewInput()
		if !ok {
			response.ResponseError(c, apperror.ErrNotFound)
			return
		}
		if err := c.ShouldBindJSON(input); err != nil {
			response.ResponseError(c, validator.BindingError(err))
			return
		}

		out, err := h.service.Generate(c.Request.Context(), caller, kind, input)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	}
}
