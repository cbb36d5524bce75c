// Package export writes themed observations to InfluxDB.
package export

import (
	"errors"
	"fmt"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"

	"github.com/skycast/skycast/internal/weather"
)

// DefaultMeasurement is the measurement observations are written to.
const DefaultMeasurement = "weather"

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Addr        string
	Username    string
	Password    string
	Database    string
	Measurement string

	// PingTimeout bounds the reachability check before writing (default: 1s).
	PingTimeout time.Duration
}

// NewPoint converts a presentation into one point. The point is stamped with
// the observation time, or the fetch time when the provider sent none.
func NewPoint(measurement string, p *weather.Presentation) (*influx.Point, error) {
	if p == nil || p.Observation == nil {
		return nil, errors.New("nil presentation")
	}
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	obs := p.Observation

	tags := map[string]string{
		"provider":  "openweathermap",
		"city":      obs.CityName,
		"condition": string(obs.Condition),
		"theme":     string(p.Theme.Token),
	}
	fields := map[string]interface{}{
		"temperature":    obs.Temperature,
		"humidity":       obs.Humidity,
		"pressure":       obs.Pressure,
		"wind_speed":     obs.WindSpeed,
		"lat":            obs.Lat,
		"lon":            obs.Lon,
		"daytime":        p.Theme.IsDaytime,
		"style_class":    p.Theme.StyleClass,
		"condition_main": obs.ConditionMain,
	}

	at := obs.ObservedAt
	if at.IsZero() {
		at = obs.FetchedAt
	}

	return influx.NewPoint(measurement, tags, fields, at)
}

// Batch wraps points in a batch for cfg.Database with second precision.
func Batch(cfg InfluxConfig, points ...*influx.Point) (influx.BatchPoints, error) {
	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  cfg.Database,
		Precision: "s",
	})
	if err != nil {
		return nil, err
	}
	bp.AddPoints(points)
	return bp, nil
}

// Upload pings the server and writes bp.
func Upload(cfg InfluxConfig, bp influx.BatchPoints) error {
	c, err := influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("influx client: %w", err)
	}
	defer c.Close()

	timeout := cfg.PingTimeout
	if timeout == 0 {
		timeout = time.Second
	}
	if _, _, err := c.Ping(timeout); err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if err := c.Write(bp); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}
