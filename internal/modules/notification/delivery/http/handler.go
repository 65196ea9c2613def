package http

import (
	"net/http"

	notifDto "anoa.com/skillquest/internal/modules/notification/dto"
	notifService "anoa.com/skillquest/internal/modules/notification/service"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultPageSize = 20

type NotificationHandler struct {
	service  notifService.NotificationService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewNotificationHandler(service notifService.NotificationService, upgrader websocket.Upgrader, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:  service,
		upgrader: upgrader,
		log:      log,
	}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q notifDto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	}

	notifications, err := h.service.GetNotifications(c.Request.Context(), userID, q.Limit, q.Offset)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifDto.ListResponse{Data: notifications, Limit: q.Limit})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.Validation("invalid notification id", map[string]string{"id": "must be a UUID"}))
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), userID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// HandleWebSocket forwards the caller's notification channel to the socket.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	sub, err := h.service.Subscribe(ctx, userID)
	if err != nil {
		h.log.Error("failed to subscribe to notifications", zap.String("user_id", userID.String()), zap.Error(err))
		response.ResponseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		_ = sub.Close()
		h.log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	realtime.Pump(ctx, conn, sub, h.log)
}
