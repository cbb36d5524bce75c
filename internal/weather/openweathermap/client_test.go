package openweathermap_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/openweathermap"
)

const amsterdamBody = `{
  "coord": {"lon": 4.895, "lat": 52.37},
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
  "main": {"temp": 18.5, "feels_like": 17.8, "pressure": 1015, "humidity": 72},
  "wind": {"speed": 4.5, "deg": 220},
  "dt": 1717236000,
  "sys": {"country": "NL", "sunrise": 1717211640, "sunset": 1717270980},
  "timezone": 7200,
  "name": "Amsterdam",
  "cod": 200
}`

func newTestClient(serverURL string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "test-key",
		BaseURL:    serverURL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
		Now:        func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func TestClient_GetCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "52.370000", r.URL.Query().Get("lat"))
		assert.Equal(t, "4.895000", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Empty(t, r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(amsterdamBody))
	}))
	defer server.Close()

	obs, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 52.370, 4.895)
	require.NoError(t, err)
	require.NotNil(t, obs)

	assert.Equal(t, "Amsterdam", obs.CityName)
	assert.Equal(t, 52.37, obs.Lat)
	assert.Equal(t, 4.895, obs.Lon)
	assert.Equal(t, 18.5, obs.Temperature)
	assert.Equal(t, "Clouds", obs.ConditionMain)
	assert.Equal(t, weather.ConditionClouds, obs.Condition)
	assert.Equal(t, "broken clouds", obs.Description)
	assert.Equal(t, "04d", obs.IconCode)
	assert.Equal(t, int64(1717211640), obs.Sunrise.Unix())
	assert.Equal(t, int64(1717270980), obs.Sunset.Unix())
	assert.Equal(t, 7200, obs.TimezoneOffset)
	assert.Equal(t, 72.0, obs.Humidity)
	assert.Equal(t, 4.5, obs.WindSpeed)
	assert.Equal(t, 1015.0, obs.Pressure)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), obs.FetchedAt)

	require.NoError(t, weather.ValidateObservation(obs))
}

func TestClient_GetCurrentWeatherByCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "São Paulo", r.URL.Query().Get("q"))
		assert.Empty(t, r.URL.Query().Get("lat"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(amsterdamBody))
	}))
	defer server.Close()

	obs, err := newTestClient(server.URL).GetCurrentWeatherByCity(context.Background(), "São Paulo")
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", obs.CityName)
}

func TestClient_CityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCurrentWeatherByCity(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 1, 2)
			require.Error(t, err)
			assert.False(t, errors.Is(err, weather.ErrLocationNotFound))
			assert.Equal(t, int32(1), calls.Load(), "fetch must not be retried")
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing temperature", `{"name":"X","main":{},"sys":{"sunrise":1,"sunset":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetCurrentWeatherByCity(context.Background(), "X")
			assert.ErrorIs(t, err, weather.ErrMalformedObservation)
		})
	}
}

const longyearbyenBody = `{
  "coord": {"lon": 15.6356, "lat": 78.2232},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "main": {"temp": 4.2, "feels_like": 1.1, "pressure": 1012, "humidity": 81},
  "wind": {"speed": 3.6, "deg": 140},
  "dt": 1718791200,
  "sys": {"country": "SJ", "sunrise": 0, "sunset": 0},
  "timezone": 7200,
  "name": "Longyearbyen",
  "cod": 200
}`

func TestClient_PolarDayHasNoSunTimes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(longyearbyenBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	obs, err := client.GetCurrentWeatherByCity(context.Background(), "Longyearbyen")
	require.NoError(t, err)
	assert.True(t, obs.Sunrise.IsZero())
	assert.True(t, obs.Sunset.IsZero())
	require.NoError(t, weather.ValidateObservation(obs))

	service := weather.NewService(weather.ServiceConfig{
		Provider: client,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Unix(1718791200, 0) },
	})
	p, err := service.Fetch(context.Background(), weather.ByCity("Longyearbyen"))
	require.NoError(t, err)
	assert.Equal(t, "Longyearbyen", p.Observation.CityName)
	assert.False(t, p.Theme.IsDaytime)
	assert.Equal(t, theme.TokenClear, p.Theme.Token)
	assert.Empty(t, p.Observation.LocalSunrise())
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(amsterdamBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).GetCurrentWeather(ctx, 1, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "k"})
	assert.Equal(t, "openweathermap", client.Name())
}
