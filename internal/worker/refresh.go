package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// Fetcher fetches weather and publishes it as the active observation.
type Fetcher interface {
	Fetch(ctx context.Context, q weather.Query) (*weather.Presentation, error)
}

// RefreshJob fetches weather for a query and records the outcome.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	fetcher Fetcher

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	LastError           string
	LastCity            string
	LastTheme           string
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Fetcher Fetcher
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		fetcher: cfg.Fetcher,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh.
type RefreshResult struct {
	Query     weather.Query
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	City      string
	Theme     string
	Err       error
}

// Run refreshes the configured target.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.RunQuery(ctx, j.config.Target)
}

// RunQuery refreshes q under the job timeout.
func (j *RefreshJob) RunQuery(ctx context.Context, q weather.Query) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		Query:     q,
		StartTime: startTime,
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	j.logger.Debug().
		Str("query", q.String()).
		Str("trigger", string(q.Trigger())).
		Msg("starting weather refresh")

	p, err := j.fetcher.Fetch(ctx, q)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	result.Err = err
	if err == nil {
		result.City = p.Observation.CityName
		result.Theme = string(p.Theme.Token)
	}

	j.updateMetrics(result)

	if err != nil {
		j.logger.Error().Err(err).
			Str("query", q.String()).
			Dur("duration", result.Duration).
			Msg("weather refresh failed")
		return result
	}

	j.logger.Info().
		Str("query", q.String()).
		Str("city", result.City).
		Str("theme", result.Theme).
		Dur("duration", result.Duration).
		Msg("weather refresh completed")

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	if result.Err != nil {
		j.metrics.FailedRefreshes++
		j.metrics.LastError = result.Err.Error()
		return
	}
	j.metrics.SuccessfulRefresh++
	j.metrics.LastError = ""
	j.metrics.LastCity = result.City
	j.metrics.LastTheme = result.Theme
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		LastError:           j.metrics.LastError,
		LastCity:            j.metrics.LastCity,
		LastTheme:           j.metrics.LastTheme,
	}
}

// MetricsSnapshot returns the current metrics as a map for the health endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	snapshot := map[string]any{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"last_city":             m.LastCity,
		"last_theme":            m.LastTheme,
	}
	if !m.LastRefreshAt.IsZero() {
		snapshot["last_refresh_at"] = m.LastRefreshAt.UTC().Format(time.RFC3339)
	}
	if m.LastError != "" {
		snapshot["last_error"] = m.LastError
	}
	return snapshot
}
