package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/provider/resilience"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticHealth []*resilience.ProviderHealth

func (s staticHealth) AllHealth() []*resilience.ProviderHealth { return s }

func TestOpsHandler_HealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "2024-06-01", nil, nil)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.HealthStatusOK, body.Status)
	assert.Equal(t, "1.2.3", body.Details["version"])
}

func TestOpsHandler_ReadinessCheck(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		h := handler.NewOpsHandler("v", "b", pingerFunc(func(context.Context) error { return nil }), nil)

		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("store down", func(t *testing.T) {
		h := handler.NewOpsHandler("v", "b", pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		}), nil)

		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body models.Health
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, models.HealthStatusFail, body.Status)
		assert.Equal(t, "connection refused", body.Details["store"])
	})

	t.Run("ping is bounded", func(t *testing.T) {
		h := handler.NewOpsHandler("v", "b", pingerFunc(func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		}), nil)

		rec := httptest.NewRecorder()
		h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOpsHandler_SystemStatus(t *testing.T) {
	success := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	health := staticHealth{
		{Name: "openweathermap", CircuitState: gobreaker.StateClosed, LastSuccessAt: &success},
	}

	h := handler.NewOpsHandler("v", "b", pingerFunc(func(context.Context) error { return nil }), health)

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.SystemStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, models.HealthStatusOK, body.Status)
	require.Len(t, body.Subsystems, 1)
	assert.Equal(t, "store", body.Subsystems[0].Name)
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "openweathermap", body.Providers[0].Provider)
	assert.Equal(t, "closed", body.Providers[0].CircuitState)
	require.NotNil(t, body.Providers[0].LastSuccessAt)
	assert.True(t, success.Equal(body.Providers[0].LastSuccessAt.Time()))
}

func TestOpsHandler_SystemStatus_Degraded(t *testing.T) {
	failure := time.Now()
	health := staticHealth{
		{Name: "openweathermap", CircuitState: gobreaker.StateOpen, LastFailureAt: &failure, LastError: "503"},
	}

	h := handler.NewOpsHandler("v", "b", nil, health)

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	var body models.SystemStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.HealthStatusFail, body.Status)
	assert.Equal(t, models.HealthStatusFail, body.Providers[0].Status)
	assert.Equal(t, "open", body.Providers[0].CircuitState)
	assert.Equal(t, "503", body.Providers[0].Message)
}
