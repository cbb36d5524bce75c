package weather

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/skycast/skycast/internal/theme"
)

// Weather errors.
var (
	ErrProviderUnavailable  = errors.New("weather provider unavailable")
	ErrLocationNotFound     = errors.New("location not found")
	ErrMalformedObservation = errors.New("malformed weather observation")
	ErrNoActiveObservation  = errors.New("no active weather observation")
	ErrInvalidQuery         = errors.New("either coordinates or a city name is required")
)

// IconBaseURL is where condition icons are served from.
const IconBaseURL = "https://openweathermap.org/img/wn/"

// Observation represents current weather for one location as reported by a
// single fetch. Values are never mutated after construction; a newer fetch
// produces a new Observation.
type Observation struct {
	// CityName as reported by the provider.
	CityName string

	// Location coordinates
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`

	// Temperature in Celsius
	Temperature float64 `validate:"finite"`

	// ConditionMain is the provider's short condition label ("Clear", "Clouds", ...).
	ConditionMain string
	Condition     Condition
	Description   string

	// IconCode is the provider's icon identifier, e.g. "04d".
	IconCode string

	// Sun times of the observed day. Zero when the sun does not rise or set,
	// as in polar day or night.
	Sunrise time.Time
	Sunset  time.Time

	// TimezoneOffset is the location's shift from UTC in seconds.
	TimezoneOffset int

	Humidity  float64 // percentage (0-100)
	WindSpeed float64 // m/s
	Pressure  float64 // hPa

	// Timestamps
	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// IconURL returns the 2x icon image URL, or "" when no icon code is known.
func (o *Observation) IconURL() string {
	if o.IconCode == "" {
		return ""
	}
	return IconBaseURL + o.IconCode + "@2x.png"
}

// Zone returns the fixed time zone of the observed location.
func (o *Observation) Zone() *time.Location {
	if o.TimezoneOffset == 0 {
		return time.UTC
	}
	return time.FixedZone(formatOffset(o.TimezoneOffset), o.TimezoneOffset)
}

// LocalSunrise formats sunrise as wall-clock time at the observed location,
// or "" when there is none.
func (o *Observation) LocalSunrise() string {
	return o.localClock(o.Sunrise)
}

// LocalSunset formats sunset as wall-clock time at the observed location,
// or "" when there is none.
func (o *Observation) LocalSunset() string {
	return o.localClock(o.Sunset)
}

func (o *Observation) localClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(o.Zone()).Format("15:04:05")
}

// ThemeInput extracts the fields the presentation classifier depends on.
func (o *Observation) ThemeInput() theme.Input {
	return theme.Input{
		ConditionMain: o.ConditionMain,
		TemperatureC:  o.Temperature,
		Sunrise:       o.Sunrise,
		Sunset:        o.Sunset,
	}
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// ParseTemperature converts a textual temperature into Celsius degrees.
// Non-finite values are rejected so tier comparisons stay well defined.
func ParseTemperature(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: temperature %q: %v", ErrMalformedObservation, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: temperature %q is not finite", ErrMalformedObservation, s)
	}
	return v, nil
}

// Query identifies the location to fetch: coordinates or a city name.
type Query struct {
	Lat  *float64
	Lon  *float64
	City string
}

// ByCoordinates builds a coordinate query.
func ByCoordinates(lat, lon float64) Query {
	return Query{Lat: &lat, Lon: &lon}
}

// ByCity builds a city-name query.
func ByCity(city string) Query {
	return Query{City: city}
}

// HasCoordinates reports whether both coordinates are set.
func (q Query) HasCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

// Trigger names the path that produced the query.
func (q Query) Trigger() Trigger {
	if q.HasCoordinates() {
		return TriggerCoordinates
	}
	return TriggerCity
}

// String renders the query for logs and errors.
func (q Query) String() string {
	if q.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *q.Lat, *q.Lon)
	}
	return q.City
}

// Validate checks that the query names a location at all.
func (q Query) Validate() error {
	if q.HasCoordinates() || strings.TrimSpace(q.City) != "" {
		return nil
	}
	return ErrInvalidQuery
}

// Trigger identifies how a fetch was requested.
type Trigger string

const (
	TriggerCoordinates Trigger = "coordinates"
	TriggerCity        Trigger = "city"
)

// FetchError reports a failed fetch for one query.
type FetchError struct {
	Trigger Trigger
	Query   string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching weather by %s %q: %v", e.Trigger, e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
