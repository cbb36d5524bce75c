package weather

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/theme"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetCurrentWeather fetches current weather for coordinates.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

	// GetCurrentWeatherByCity fetches current weather for a city name.
	GetCurrentWeatherByCity(ctx context.Context, city string) (*Observation, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Repository holds the active observation (default: in-memory).
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls (optional).
	Metrics *telemetry.ProviderMetrics

	// ThemeOptions are passed to the presentation classifier.
	ThemeOptions []theme.Option

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service fetches observations, tracks the active one and derives its theme.
type Service struct {
	provider     Provider
	repo         Repository
	logger       zerolog.Logger
	metrics      *telemetry.ProviderMetrics
	themeOptions []theme.Option
	now          func() time.Time
}

// Presentation is an observation together with the theme it renders with.
type Presentation struct {
	Observation *Observation
	Theme       theme.PresentationTheme
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	repo := cfg.Repository
	if repo == nil {
		repo = NewInMemoryRepository()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:     cfg.Provider,
		repo:         repo,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		themeOptions: cfg.ThemeOptions,
		now:          now,
	}
}

// Fetch retrieves current weather for q, makes it the active observation and
// returns it with its theme. Failures come back as *FetchError.
func (s *Service) Fetch(ctx context.Context, q Query) (*Presentation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	obs, err := s.fetch(ctx, q)
	if err != nil {
		return nil, &FetchError{Trigger: q.Trigger(), Query: q.String(), Err: err}
	}

	if err := s.repo.Save(ctx, obs); err != nil {
		s.logger.Error().Err(err).
			Str("query", q.String()).
			Msg("failed to store active observation")
		return nil, err
	}

	p := s.Present(obs)

	s.logger.Info().
		Str("trigger", string(q.Trigger())).
		Str("query", q.String()).
		Str("city", obs.CityName).
		Str("condition", obs.ConditionMain).
		Float64("temperature", obs.Temperature).
		Str("theme", string(p.Theme.Token)).
		Bool("daytime", p.Theme.IsDaytime).
		Msg("active observation updated")

	return p, nil
}

func (s *Service) fetch(ctx context.Context, q Query) (*Observation, error) {
	operation := "current_by_city"
	if q.HasCoordinates() {
		operation = "current_by_coordinates"
	}

	s.logger.Debug().
		Str("query", q.String()).
		Str("provider", s.provider.Name()).
		Msg("fetching weather from provider")

	start := time.Now()
	var (
		obs *Observation
		err error
	)
	if q.HasCoordinates() {
		obs, err = s.provider.GetCurrentWeather(ctx, *q.Lat, *q.Lon)
	} else {
		obs, err = s.provider.GetCurrentWeatherByCity(ctx, q.City)
	}
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), operation, time.Since(start), err)
	}

	if err != nil {
		s.logger.Error().Err(err).
			Str("query", q.String()).
			Msg("failed to fetch weather")

		if errors.Is(err, ErrLocationNotFound) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	if err := ValidateObservation(obs); err != nil {
		s.logger.Warn().Err(err).
			Str("query", q.String()).
			Msg("provider returned a malformed observation")
		return nil, err
	}

	return obs, nil
}

// Active returns the active observation with its theme recomputed at the current time.
func (s *Service) Active(ctx context.Context) (*Presentation, error) {
	obs, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}
	return s.Present(obs), nil
}

// Present classifies obs at the current time. Hours of day are read in the
// observed location's zone unless the options name a location.
func (s *Service) Present(obs *Observation) *Presentation {
	opts := make([]theme.Option, 0, len(s.themeOptions)+1)
	opts = append(opts, theme.WithLocation(obs.Zone()))
	opts = append(opts, s.themeOptions...)
	return &Presentation{
		Observation: obs,
		Theme:       theme.Classify(obs.ThemeInput(), s.now(), opts...),
	}
}

// Classify exposes the classifier with the service's options.
func (s *Service) Classify(in theme.Input, now time.Time) theme.PresentationTheme {
	return theme.Classify(in, now, s.themeOptions...)
}

// Ping checks the backing repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// ProviderName returns the configured provider name.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
