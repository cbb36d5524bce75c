// Package app assembles the weather service shared by the skycast binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/database"
	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/openweathermap"
)

// Weather is the assembled weather stack.
type Weather struct {
	Service    *weather.Service
	Repository weather.Repository
	Registry   *resilience.Registry

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (w *Weather) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

// NewWeather builds the provider client, the active observation store and
// the service on top of them.
func NewWeather(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Weather, error) {
	w := &Weather{Registry: resilience.NewRegistry()}

	switch cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg.Store.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		repo := weather.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("prepare store schema: %w", err)
		}
		w.pool = pool
		w.Repository = repo
		log.Info().
			Str("host", cfg.Store.Database.Host).
			Str("database", cfg.Store.Database.Database).
			Msg("using postgres store")
	default:
		w.Repository = weather.NewInMemoryRepository()
		log.Info().Msg("using in-memory store")
	}

	httpCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	httpCfg.Timeout = cfg.OpenWeather.Timeout
	httpCfg.Registry = w.Registry

	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OpenWeather.APIKey,
		BaseURL:    cfg.OpenWeather.BaseURL,
		HTTPClient: resilience.NewClient(httpCfg),
		Logger:     log.With().Str("component", "openweathermap").Logger(),
	})

	metrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("provider metrics: %w", err)
	}

	w.Service = weather.NewService(weather.ServiceConfig{
		Provider:     provider,
		Repository:   w.Repository,
		Logger:       log.With().Str("component", "weather").Logger(),
		Metrics:      metrics,
		ThemeOptions: cfg.Theme.Options(),
	})

	return w, nil
}
