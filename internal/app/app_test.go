package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
)

const currentBody = `{
	"coord": {"lat": 48.85, "lon": 2.35},
	"weather": [{"main": "Rain", "description": "light rain", "icon": "10d"}],
	"main": {"temp": 14.2, "humidity": 80, "pressure": 1009},
	"wind": {"speed": 3.1},
	"dt": 1717236000,
	"sys": {"sunrise": 1717214400, "sunset": 1717272000},
	"timezone": 7200,
	"name": "Paris"
}`

func TestNewWeather_MemoryStore(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentBody))
	}))
	defer upstream.Close()

	cfg := config.Config{
		OpenWeather: config.OpenWeatherConfig{
			APIKey:  "test-key",
			BaseURL: upstream.URL,
			Timeout: time.Second,
		},
		Theme: config.ThemeConfig{Mode: theme.DayNightEpoch, Location: time.UTC},
		Store: config.StoreConfig{Backend: config.StoreMemory},
	}

	w, err := app.NewWeather(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	require.NoError(t, w.Repository.Ping(ctx))

	p, err := w.Service.Fetch(ctx, weather.ByCity("Paris"))
	require.NoError(t, err)
	assert.Equal(t, "Paris", p.Observation.CityName)
	assert.Equal(t, theme.TokenRain, p.Theme.Token)

	active, err := w.Repository.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Paris", active.CityName)

	health := w.Registry.AllHealth()
	require.Len(t, health, 1)
	assert.Equal(t, "openweathermap", health[0].Name)
	assert.NotNil(t, health[0].LastSuccessAt)
}
