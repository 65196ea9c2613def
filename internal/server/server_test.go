package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/skillquest/internal/bootstrap"
	"anoa.com/skillquest/internal/config"
	"anoa.com/skillquest/internal/testutil"
	"anoa.com/skillquest/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.OpenTestDB(t)
	require.NoError(t, bootstrap.SeedRoles(db))
	require.NoError(t, bootstrap.SeedAdminUser(db, zap.NewNop()))

	cfg := &config.Config{
		AppEnv:          "test",
		Port:            "0",
		AllowedOrigins:  "http://localhost:3000",
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		LevelXPStep:     500,
		AwardMaxRetries: 3,
		FeedSize:        20,
		ReindexCron:     "0 2 * * *",
		CleanupCron:     "30 3 * * *",
		ShutdownTimeout: time.Second,
	}
	srv, err := NewServer(context.Background(), cfg, db, nil, zap.NewNop())
	require.NoError(t, err)
	return srv.Handler()
}

func call(h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_EndToEnd(t *testing.T) {
	h := newTestServer(t)

	w := call(h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     "ana@example.com",
		"password":  "supersecret",
		"username":  "ana",
		"full_name": "Ana Putri",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)
	token := auth.AccessToken

	w = call(h, http.MethodPost, "/api/progress/award", token, map[string]any{"amount": 550, "reason": "finished onboarding"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(h, http.MethodGet, "/api/progress/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Profile struct {
			XP    int `json:"xp"`
			Level int `json:"level"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 550, progress.Profile.XP)
	assert.Equal(t, 2, progress.Profile.Level)

	w = call(h, http.MethodGet, "/api/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	w = call(h, http.MethodPost, "/api/sessions/complete", token, map[string]any{"minutes": 25, "label": "calculus"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(h, http.MethodGet, "/api/activities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed struct {
		Data []struct {
			DisplayName string `json:"display_name"`
			XPEarned    int    `json:"xp_earned"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed.Data, 1)
	assert.Equal(t, "ana", feed.Data[0].DisplayName)
	assert.Equal(t, 50, feed.Data[0].XPEarned)
}

func TestServer_RepeatedAwardsAllLand(t *testing.T) {
	h := newTestServer(t)

	w := call(h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "budi@example.com",
		"password": "supersecret",
		"username": "budi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))

	for range 3 {
		w = call(h, http.MethodPost, "/api/progress/award", auth.AccessToken, map[string]any{"amount": 200})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = call(h, http.MethodGet, "/api/progress/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Profile struct {
			XP    int `json:"xp"`
			Level int `json:"level"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 600, progress.Profile.XP)
	assert.Equal(t, 2, progress.Profile.Level)
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	w := call(h, http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	return auth.AccessToken
}

func TestServer_AdminJobs(t *testing.T) {
	h := newTestServer(t)
	admin := login(t, h, "admin@skillquest.dev", "admin123")

	w := call(h, http.MethodGet, "/api/admin/jobs", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.ElementsMatch(t, []string{"reindex-activities", "cleanup-notifications"}, list.Data)

	w = call(h, http.MethodPost, "/api/admin/jobs/cleanup-notifications/run", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(h, http.MethodPost, "/api/admin/jobs/reindex-activities/run", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(h, http.MethodPost, "/api/admin/jobs/missing/run", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "citra@example.com",
		"password": "supersecret",
		"username": "citra",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	student := login(t, h, "citra@example.com", "supersecret")

	w = call(h, http.MethodGet, "/api/admin/jobs", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_UnauthenticatedGetsRedirect(t *testing.T) {
	h := newTestServer(t)

	w := call(h, http.MethodGet, "/api/progress/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.SignInPath, body["redirect"])
}

func TestServer_ContentWithoutKeyIsNotConfigured(t *testing.T) {
	h := newTestServer(t)

	w := call(h, http.MethodPost, "/api/content/nutrition", "", map[string]any{
		"budget":   250000,
		"currency": "IDR",
		"location": "Bandung",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/health", "", nil).Code)

	w := call(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "skillquest_")
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins(" http://a, ,http://b "))
	assert.Empty(t, splitOrigins(""))
}
