package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/lightning-whatsapp/internal/config"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func serve(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestHealthController(t *testing.T) {
	up := NewHealthController(stubPinger{})
	assert.Equal(t, http.StatusOK, serve(up.HealthCheck).Code)
	assert.Equal(t, http.StatusOK, serve(up.Readiness).Code)

	down := NewHealthController(stubPinger{err: errors.New("dial tcp: refused")})
	w := serve(down.HealthCheck)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
	assert.Equal(t, http.StatusServiceUnavailable, serve(down.Readiness).Code)
	assert.Equal(t, http.StatusOK, serve(down.Liveness).Code)
}

func TestSystemController_InfoHasNoSecrets(t *testing.T) {
	cfg := &config.Config{
		ServiceName:         "lightning-whatsapp",
		TwilioAuthToken:     "super-secret-token",
		DefaultTenantAPIKey: "wak_secret",
		LLMModel:            "gemini-2.0-flash-lite",
	}
	s := NewSystemController(cfg)

	w := serve(s.Info)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "super-secret-token")
	assert.NotContains(t, w.Body.String(), "wak_secret")

	var body map[string]any
	require.NoError(t, json.Unmarshal(serve(s.Status).Body.Bytes(), &body))
	assert.Equal(t, "lightning-whatsapp", body["service"])
}
