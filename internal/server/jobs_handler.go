package server

import (
	"net/http"

	"anoa.com/skillquest/internal/scheduler"
	"anoa.com/skillquest/pkg/response"
	"github.com/gin-gonic/gin"
)

// jobsHandler lets admins inspect and trigger background jobs.
type jobsHandler struct {
	scheduler *scheduler.Scheduler
}

func (h *jobsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.scheduler.Jobs()})
}

// Run blocks until the job finishes.
func (h *jobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	if err := h.scheduler.RunByName(c.Request.Context(), name); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job completed", "job": name})
}
