package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"github.com/mythos-labs/mythos-api/internal/gateway"
	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/mythos-labs/mythos-api/internal/quota"
	"github.com/mythos-labs/mythos-api/internal/ratelimit"
	"github.com/mythos-labs/mythos-api/internal/tier"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver struct {
	rec *models.APIKey
}

func (s *stubResolver) Resolve(ctx context.Context, credential string) (*models.APIKey, error) {
	return s.rec, nil
}

type stubRecorder struct{ calls int }

func (s *stubRecorder) RecordUsage(rec *models.APIKey, ev quota.Evaluation) { s.calls++ }

func admissionTestEngine(rec *models.APIKey) (*gin.Engine, *stubRecorder) {
	gin.SetMode(gin.TestMode)

	limiter := ratelimit.NewFixedWindow(time.Minute)
	recorder := &stubRecorder{}
	gate := gateway.New(&stubResolver{rec: rec}, recorder, limiter, zap.NewNop())

	engine := gin.New()
	engine.GET("/v1/*resourcePath", Admission(gate, limiter), func(c *gin.Context) {
		_, hasKey := c.Get(CtxAPIKey)
		_, hasTier := c.Get(CtxTier)
		_, hasEval := c.Get(CtxEvaluation)
		c.JSON(http.StatusOK, gin.H{
			"has_key":  hasKey,
			"has_tier": hasTier,
			"has_eval": hasEval,
		})
	})

	return engine, recorder
}

func testAccount(tierName string) *models.APIKey {
	reset := time.Now().UTC().AddDate(0, 1, 0)
	return &models.APIKey{
		KeyHash:        "hash",
		Tier:           tierName,
		IsActive:       true,
		MonthlyResetAt: &reset,
	}
}

func TestAdmissionMissingCredential(t *testing.T) {
	engine, recorder := admissionTestEngine(testAccount(tier.Call))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/heroes", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp envelope.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "Missing API key")
	require.Equal(t, "/v1/heroes", resp.Meta.Endpoint)
	require.Zero(t, recorder.calls)
}

func TestAdmissionAllowsAndSetsContext(t *testing.T) {
	engine, recorder := admissionTestEngine(testAccount(tier.Call))

	req := httptest.NewRequest(http.MethodGet, "/v1/heroes", nil)
	req.Header.Set("Authorization", "Bearer myt_valid")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, recorder.calls)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body["has_key"])
	require.True(t, body["has_tier"])
	require.True(t, body["has_eval"])

	require.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, tier.Call, w.Header().Get("X-RateLimit-Tier"))
}

func TestAdmissionRateLimited(t *testing.T) {
	engine, _ := admissionTestEngine(testAccount(tier.Call))

	req := httptest.NewRequest(http.MethodGet, "/v1/heroes", nil)
	req.Header.Set("Authorization", "Bearer myt_valid")

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "call %d", i+1)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp envelope.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "Rate limit exceeded")
}

func TestAdmissionFreeTierForbidden(t *testing.T) {
	engine, recorder := admissionTestEngine(testAccount(tier.Free))

	req := httptest.NewRequest(http.MethodGet, "/v1/heroes", nil)
	req.Header.Set("Authorization", "Bearer myt_free")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Zero(t, recorder.calls)
}

func TestAdmissionUnknownKey(t *testing.T) {
	engine, _ := admissionTestEngine(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/heroes", nil)
	req.Header.Set("Authorization", "Bearer myt_nobody")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp envelope.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Invalid API key.", resp.Error)
}
