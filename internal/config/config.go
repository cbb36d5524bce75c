// Package config loads skycast settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/skycast/skycast/internal/database"
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ErrMissingAPIKey is returned by Validate when no OpenWeatherMap key is set.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required")

// Config is the full runtime configuration shared by the skycast binaries.
type Config struct {
	Env        string
	Port       string
	RequireTLS bool

	OpenWeather OpenWeatherConfig
	Theme       ThemeConfig
	Store       StoreConfig
	Telemetry   TelemetryConfig
	Refresh     RefreshConfig
	PubSub      PubSubConfig
}

// OpenWeatherConfig configures the weather provider.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ThemeConfig configures day/night evaluation.
type ThemeConfig struct {
	Mode theme.DayNightMode

	// Location overrides the zone hours of day are read in. Nil uses the
	// observed location's zone.
	Location *time.Location
}

// Options converts the settings into classifier options.
func (c ThemeConfig) Options() []theme.Option {
	return []theme.Option{theme.WithMode(c.Mode), theme.WithLocation(c.Location)}
}

// StoreConfig selects where the active observation lives.
type StoreConfig struct {
	Backend  string
	Database database.Config
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// RefreshConfig configures the worker's scheduled fetch.
type RefreshConfig struct {
	Interval time.Duration
	City     string
	Lat      *float64
	Lon      *float64
}

// Query returns the location to refresh. ok is false when none is configured.
func (c RefreshConfig) Query() (q weather.Query, ok bool) {
	if c.Lat != nil && c.Lon != nil {
		return weather.ByCoordinates(*c.Lat, *c.Lon), true
	}
	if c.City != "" {
		return weather.ByCity(c.City), true
	}
	return weather.Query{}, false
}

// PubSubConfig configures the worker's trigger subscription.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

// Enabled reports whether a subscription is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != "" && c.Subscription != ""
}

// Load reads the given .env files (missing ones are skipped) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		Env:  getEnvOrDefault("APP_ENV", "development"),
		Port: getEnvOrDefault("APP_PORT", "8080"),
		OpenWeather: OpenWeatherConfig{
			APIKey:  getEnvOrDefault("OPENWEATHER_API_KEY", ""),
			BaseURL: getEnvOrDefault("OPENWEATHER_BASE_URL", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Refresh: RefreshConfig{
			City: getEnvOrDefault("REFRESH_CITY", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:    getEnvOrDefault("PUBSUB_PROJECT_ID", ""),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", ""),
		},
	}

	var err error
	cfg.RequireTLS, err = getBool("REQUIRE_TLS", cfg.Env == "production")
	collect(err)
	cfg.Telemetry.Enabled, err = getBool("OTEL_ENABLED", false)
	collect(err)
	cfg.OpenWeather.Timeout, err = getDuration("OPENWEATHER_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.Refresh.Interval, err = getDuration("REFRESH_INTERVAL", 10*time.Minute)
	collect(err)
	cfg.Refresh.Lat, err = getFloat("REFRESH_LAT")
	collect(err)
	cfg.Refresh.Lon, err = getFloat("REFRESH_LON")
	collect(err)

	cfg.Theme.Mode, err = theme.ParseDayNightMode(getEnvOrDefault("THEME_DAYNIGHT_MODE", ""))
	if err != nil {
		collect(fmt.Errorf("THEME_DAYNIGHT_MODE: %w", err))
	}
	if tz := getEnvOrDefault("THEME_TIMEZONE", ""); tz != "" {
		loc, lerr := time.LoadLocation(tz)
		if lerr != nil {
			collect(fmt.Errorf("THEME_TIMEZONE: %w", lerr))
		} else {
			cfg.Theme.Location = loc
		}
	}

	cfg.Store.Backend = getEnvOrDefault("STORE_BACKEND", StoreMemory)
	if cfg.Store.Backend != StoreMemory && cfg.Store.Backend != StorePostgres {
		collect(fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.Store.Backend))
	}
	cfg.Store.Database, err = databaseFromEnv()
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func databaseFromEnv() (database.Config, error) {
	port, err1 := getInt("DB_PORT", 5432)
	maxOpen, err2 := getInt("DB_MAX_OPEN_CONNS", 10)
	maxIdle, err3 := getInt("DB_MAX_IDLE_CONNS", 2)
	lifetime, err4 := getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	connectTimeout, err5 := getDuration("DB_CONNECT_TIMEOUT", 30*time.Second)

	return database.Config{
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("DB_USER", "skycast"),
		Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
		Database:        getEnvOrDefault("DB_NAME", "skycast"),
		SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
		ConnectTimeout:  connectTimeout,
	}, errors.Join(err1, err2, err3, err4, err5)
}

// Validate checks settings every fetching binary needs.
func (c Config) Validate() error {
	if c.OpenWeather.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
