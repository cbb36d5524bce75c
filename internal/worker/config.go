// Package worker runs background weather refreshes for skycast: a periodic
// refresh of the configured location and on-demand refreshes from Pub/Sub.
package worker

import (
	"fmt"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Target is the location refreshed on every tick.
	Target weather.Query

	// Interval between scheduled refreshes.
	// Default: 10 minutes
	Interval time.Duration

	// Timeout bounds one refresh, provider call included.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration for target.
func DefaultRefreshConfig(target weather.Query) RefreshConfig {
	return RefreshConfig{
		Target:   target,
		Interval: 10 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

// withDefaults fills zero durations.
func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig(c.Target)
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}

// Validate reports whether the scheduled refresh has something to fetch.
func (c RefreshConfig) Validate() error {
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("refresh target: %w", err)
	}
	return nil
}
