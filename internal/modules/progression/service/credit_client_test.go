package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCreditClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    *CreditResult
		wantErr bool
	}{
		{name: "success", status: http.StatusOK, body: `{"success":true,"xp":550,"level":2}`, want: &CreditResult{Success: true, XP: 550, Level: 2}},
		{name: "reported failure", status: http.StatusOK, body: `{"success":false}`, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantErr: true},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

				var req map[string]int
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, 100, req["amount"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewHTTPCreditClient(srv.URL, time.Second).Credit(context.Background(), "tok", 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPCreditClient_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPCreditClient(url, 200*time.Millisecond).Credit(context.Background(), "tok", 1)
	assert.Error(t, err)
}
