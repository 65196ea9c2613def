package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/skillquest/internal/entity"
	"anoa.com/skillquest/internal/modules/activity/dto"
	activityRepo "anoa.com/skillquest/internal/modules/activity/repository"
	activityService "anoa.com/skillquest/internal/modules/activity/service"
	profileRepo "anoa.com/skillquest/internal/modules/profile/repository"
	"anoa.com/skillquest/internal/realtime"
	"anoa.com/skillquest/internal/testutil"
	"anoa.com/skillquest/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	svc := activityService.NewActivityService(
		activityRepo.NewActivityRepository(db),
		profileRepo.NewProfileRepository(db),
		realtime.NewMemoryBroker(8),
		nil,
		activityService.DefaultFeedSize,
		zap.NewNop(),
	)
	h := NewActivityHandler(svc, realtime.NewUpgrader(nil), zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(response.UserIDKey, userID.String())
		}
	})
	r.GET("/activities", h.GetRecent)
	r.POST("/activities", h.LogActivity)
	r.GET("/activities/top-movers", h.GetTopMovers)
	r.GET("/activities/search", h.Search)
	r.GET("/activities/ws", h.HandleWebSocket)
	return r, db
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogActivity_AnonymousIsAccepted(t *testing.T) {
	t.Parallel()
	r, db := newTestRouter(t, uuid.Nil)

	w := do(r, http.MethodPost, "/activities", gin.H{"activity_description": "hello"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var count int64
	require.NoError(t, db.Model(&entity.UserActivity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogActivity_ThenListAndRank(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	r, db := newTestRouter(t, userID)
	require.NoError(t, db.Create(&entity.Profile{ID: userID, Username: testutil.Ptr("ana"), Level: 1}).Error)

	w := do(r, http.MethodPost, "/activities", gin.H{
		"activity_type":        entity.ActivitySkillSwap,
		"activity_description": "taught SQL joins",
		"xp_earned":            30,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []activityService.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "ana", list.Data[0].DisplayName)
	assert.Equal(t, "taught SQL joins", list.Data[0].Description)

	w = do(r, http.MethodGet, "/activities/top-movers?tz=UTC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var movers struct {
		Data []activityService.Mover `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &movers))
	require.Len(t, movers.Data, 1)
	assert.Equal(t, 30, movers.Data[0].XP)
}

func TestLogActivity_ValidatesBody(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, uuid.New())

	w := do(r, http.MethodPost, "/activities", gin.H{"xp_earned": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "activity_description")
	assert.Contains(t, body.Fields, "xp_earned")
}

func TestSearch_NotConfigured(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t, uuid.New())

	w := do(r, http.MethodGet, "/activities/search?q=sql", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleWebSocket_FramesCarryTopMovers(t *testing.T) {
	userID := uuid.New()
	r, db := newTestRouter(t, userID)
	require.NoError(t, db.Create(&entity.Profile{ID: userID, Username: testutil.Ptr("dewi"), Level: 1}).Error)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/activities/ws?tz=UTC", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() dto.FeedEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev dto.FeedEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	snapshot := read()
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Empty(t, snapshot.Entries)
	assert.Empty(t, snapshot.TopMovers)

	raw, _ := json.Marshal(map[string]any{"activity_type": entity.ActivitySkillSwap, "activity_description": "taught recursion", "xp_earned": 12})
	resp, err := http.Post(srv.URL+"/activities", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	insert := read()
	assert.Equal(t, "insert", insert.Type)
	require.Len(t, insert.Entries, 1)
	assert.Equal(t, "dewi", insert.Entries[0].DisplayName)
	require.Len(t, insert.TopMovers, 1)
	assert.Equal(t, userID, insert.TopMovers[0].UserID)
	assert.Equal(t, 12, insert.TopMovers[0].XP)
}
