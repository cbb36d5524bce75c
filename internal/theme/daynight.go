package theme

import (
	"fmt"
	"time"
)

// DayNightMode selects how daytime is determined.
type DayNightMode string

const (
	// DayNightEpoch compares full timestamps: sunrise <= now < sunset.
	DayNightEpoch DayNightMode = "epoch"

	// DayNightHourOfDay compares local hours of day only. It loses the date and
	// misbehaves when sunrise and sunset straddle midnight in the chosen location.
	DayNightHourOfDay DayNightMode = "hour"
)

// ParseDayNightMode parses a mode name. An empty string yields DayNightEpoch.
func ParseDayNightMode(s string) (DayNightMode, error) {
	switch DayNightMode(s) {
	case "", DayNightEpoch:
		return DayNightEpoch, nil
	case DayNightHourOfDay:
		return DayNightHourOfDay, nil
	default:
		return "", fmt.Errorf("unknown day/night mode %q", s)
	}
}

// Options controls classification. The zero value is the epoch mode in UTC.
type Options struct {
	Mode DayNightMode

	// Location is used to derive hours of day in DayNightHourOfDay mode.
	// Nil means UTC.
	Location *time.Location
}

// Option mutates Options.
type Option func(*Options)

// WithMode sets the day/night mode.
func WithMode(mode DayNightMode) Option {
	return func(o *Options) { o.Mode = mode }
}

// WithLocation sets the location hours of day are read in. A nil location
// leaves any earlier choice in place.
func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Mode: DayNightEpoch, Location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// IsDaytime reports whether now falls between sunrise (inclusive) and sunset (exclusive).
// A zero sunrise or sunset means the sun does not rise or set that day, as in
// polar day or night, and always reads as night.
func IsDaytime(sunrise, sunset, now time.Time, opts ...Option) bool {
	if sunrise.IsZero() || sunset.IsZero() {
		return false
	}

	o := buildOptions(opts)

	if o.Mode == DayNightHourOfDay {
		riseHour := sunrise.In(o.Location).Hour()
		setHour := sunset.In(o.Location).Hour()
		hour := now.In(o.Location).Hour()
		return hour >= riseHour && hour < setHour
	}

	return !now.Before(sunrise) && now.Before(sunset)
}

// IsDaytimeUnix is IsDaytime over epoch seconds. Zero seconds mean no sun event.
func IsDaytimeUnix(sunrise, sunset, now int64, opts ...Option) bool {
	return IsDaytime(SunTime(sunrise), SunTime(sunset), time.Unix(now, 0), opts...)
}

// SunTime converts epoch seconds to a sun event time. Zero seconds, which
// providers send when the sun does not rise or set, give the zero time.
func SunTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
