package http

import (
	"net/http"
	"time"

	"anoa.com/skillquest/internal/modules/activity/dto"
	activityService "anoa.com/skillquest/internal/modules/activity/service"
	searchService "anoa.com/skillquest/internal/modules/search/service"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	service  activityService.ActivityService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewActivityHandler(service activityService.ActivityService, upgrader websocket.Upgrader, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:  service,
		upgrader: upgrader,
		log:      log,
	}
}

func (h *ActivityHandler) GetRecent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.LoadRecent(c.Request.Context())})
}

func (h *ActivityHandler) GetTopMovers(c *gin.Context) {
	var query dto.TopMoversQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	movers, err := h.service.TopMoversToday(c.Request.Context(), location(query.Timezone), query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": movers})
}

// location falls back to the server's zone for empty or unknown names.
func location(name string) *time.Location {
	if name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			return l
		}
	}
	return time.Local
}

// LogActivity answers 202 without writing anything for anonymous callers.
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	var input dto.LogActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	activity, err := h.service.LogActivity(c.Request.Context(), response.GetCaller(c), input.ActivityType, input.Description, input.XPEarned)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if activity == nil {
		c.JSON(http.StatusAccepted, gin.H{"logged": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"logged": true, "data": activity})
}

func (h *ActivityHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	hits, err := h.service.Search(query.Query, searchService.ActivityFilter{
		UserID:       query.UserID,
		ActivityType: query.ActivityType,
	}, query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": hits})
}

// HandleWebSocket sends the current feed, then each enriched insert. Every
// frame carries today's top movers over the feed, in the ?tz= zone.
func (h *ActivityHandler) HandleWebSocket(c *gin.Context) {
	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}
	loc := location(query.Timezone)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	live := activityService.StartLiveFeed(c.Request.Context(), h.service, h.log)
	defer live.Close()

	frame := func(kind string, entries []activityService.Entry) dto.FeedEvent {
		return dto.FeedEvent{Type: kind, Entries: entries, TopMovers: live.TopMovers(time.Now().In(loc))}
	}

	if err := realtime.WriteJSON(conn, frame("snapshot", live.Entries())); err != nil {
		return
	}

	clientClosed := realtime.WatchClosed(conn)
	realtime.KeepAlive(conn, clientClosed)

	for {
		select {
		case <-clientClosed:
			return
		case entry, ok := <-live.Updates():
			if !ok {
				return
			}
			if err := realtime.WriteJSON(conn, frame("insert", []activityService.Entry{entry})); err != nil {
				h.log.Debug("activity websocket closed", zap.Error(err))
				return
			}
		}
	}
}
