package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skycast/skycast/internal/api/middleware"
)

func hit(handler http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = ip
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute}
	handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "/v1/weather/current", "10.0.0.1:1234").Code)
	}

	rec := hit(handler, "/v1/weather/current", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), "/v1/weather/current")
}

func TestRateLimitByIP_SeparateClients(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(okHandler)

	assert.Equal(t, http.StatusOK, hit(handler, "/", "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "/", "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "/", "172.16.0.2:1").Code)
}

func TestRateLimitByIP_RetryAfterRoundsUp(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 1500 * time.Millisecond}
	handler := middleware.RateLimitByIP(cfg)(okHandler)

	hit(handler, "/", "192.0.2.9:1")
	assert.Equal(t, "2", hit(handler, "/", "192.0.2.9:1").Header().Get("Retry-After"))
}

func TestDefaultRateLimits(t *testing.T) {
	assert.Equal(t, 30, middleware.FetchRateLimit.RequestLimit)
	assert.Equal(t, 120, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.FetchRateLimit.WindowLength)
}
