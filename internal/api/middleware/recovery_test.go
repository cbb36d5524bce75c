package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/api/models"
)

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("classifier exploded")
	})

	rec := httptest.NewRecorder()
	h := middleware.RequestID(middleware.Recovery(zerolog.New(&logs))(panicking))
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/weather/active", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	assert.Equal(t, models.ProblemTypeInternal, problem.Type)
	assert.Equal(t, "/v1/weather/active", problem.Instance)
	assert.NotEmpty(t, problem.TraceID)

	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), "classifier exploded")
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	aborting := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})

	h := middleware.Recovery(zerolog.Nop())(aborting)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	})
}
