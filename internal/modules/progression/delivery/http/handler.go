package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"anoa.com/skillquest/internal/modules/progression/dto"
	progressionService "anoa.com/skillquest/internal/modules/progression/service"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/session"
	"anoa.com/skillquest/pkg/apperror"
	"anoa.com/skillquest/pkg/response"
	"anoa.com/skillquest/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ProgressionHandler struct {
	ledger   progressionService.LedgerService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewProgressionHandler(ledger progressionService.LedgerService, upgrader websocket.Upgrader, log *zap.Logger) *ProgressionHandler {
	return &ProgressionHandler{
		ledger:   ledger,
		upgrader: upgrader,
		log:      log,
	}
}

func (h *ProgressionHandler) GetMyProgress(c *gin.Context) {
	profile, err := h.ledger.LoadProfile(c.Request.Context(), response.GetCaller(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"status":  h.ledger.Status(profile),
	})
}

func (h *ProgressionHandler) AwardXP(c *gin.Context) {
	caller := response.GetCaller(c)
	if !caller.Authenticated() {
		response.ResponseError(c, apperror.ErrUnauthenticated)
		return
	}

	var input dto.AwardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	result, err := h.ledger.AwardXP(c.Request.Context(), caller, input.Amount, input.Reason)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	body := gin.H{"data": result}
	if result.Profile != nil {
		body["status"] = h.ledger.Status(result.Profile)
	}
	c.JSON(http.StatusOK, body)
}

// Credit is the privileged increment-and-relevel endpoint.
func (h *ProgressionHandler) Credit(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	profile, err := h.ledger.Credit(c.Request.Context(), userID, input.Amount)
	if err != nil {
		h.log.Error("xp credit failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(apperror.MapErrorToStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CreditResponse{Success: true, XP: profile.XP, Level: profile.Level})
}

func (h *ProgressionHandler) SetProgress(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.Validation("invalid profile id", map[string]string{"id": "must be a UUID"}))
		return
	}

	var input dto.SetProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	profile, err := h.ledger.SetProgress(c.Request.Context(), userID, input.XP, input.Level)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// HandleWebSocket sends a snapshot, then every out-of-band profile change.
// Clients may also send {"type":"award"} frames; the session's view advances
// only when the award is applied.
func (h *ProgressionHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()
	caller := response.GetCaller(c)

	profile, err := h.ledger.LoadProfile(ctx, caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	changes, err := h.ledger.WatchProfile(ctx, caller.UserID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer changes.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket", zap.String("user_id", caller.UserID.String()), zap.Error(err))
		return
	}
	defer conn.Close()

	ps := &progressSession{
		conn:    conn,
		ledger:  h.ledger,
		tracker: progressionService.NewTracker(*profile),
	}
	if err := ps.send(dto.ProgressEvent{Type: "snapshot"}); err != nil {
		return
	}

	clientClosed := realtime.ReadFrames(conn, func(data []byte) {
		ps.handleCommand(ctx, caller, data)
	})
	realtime.KeepAlive(conn, clientClosed)
	go func() {
		select {
		case <-clientClosed:
			_ = changes.Close()
		case <-ctx.Done():
		}
	}()

	for change := range changes.All() {
		ps.tracker.Overwrite(change)
		if err := ps.send(dto.ProgressEvent{Type: "profile_changed"}); err != nil {
			h.log.Debug("progress websocket closed", zap.String("user_id", caller.UserID.String()), zap.Error(err))
			return
		}
	}
}

// progressSession is one socket's view of the caller's profile. Writes are
// serialised because commands and pushes arrive on different goroutines.
type progressSession struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	ledger  progressionService.LedgerService
	tracker *progressionService.Tracker
}

func (s *progressSession) handleCommand(ctx context.Context, caller *session.Caller, data []byte) {
	var cmd dto.ProgressCommand
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type != "award" {
		_ = s.send(dto.ProgressEvent{Type: "error", Error: "unsupported command"})
		return
	}

	result, err := s.ledger.AwardXP(ctx, caller, cmd.Amount, cmd.Reason)
	if err != nil {
		_ = s.send(dto.ProgressEvent{Type: "error", Error: err.Error()})
		return
	}

	kind := "award_dropped"
	if s.tracker.Apply(result) {
		kind = "awarded"
	}
	_ = s.send(dto.ProgressEvent{Type: kind})
}

// send writes ev with the tracker's current snapshot.
func (s *progressSession) send(ev dto.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.tracker.Snapshot()
	ev.Profile = &profile
	ev.Status = s.ledger.Status(&profile)
	return realtime.WriteJSON(s.conn, ev)
}
