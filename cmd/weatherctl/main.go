// Command weatherctl fetches current weather for one location and prints it
// with its presentation theme, optionally writing it to InfluxDB.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/app"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/export"
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
)

func main() {
	var (
		city    = flag.StringP("city", "c", "", "city name to look up")
		lat     = flag.Float64("lat", 0, "latitude (use with --lon)")
		lon     = flag.Float64("lon", 0, "longitude (use with --lat)")
		at      = flag.String("at", "", "classify at this RFC3339 time instead of now")
		mode    = flag.String("mode", "", "day/night mode: epoch or hour")
		tz      = flag.String("tz", "", "IANA zone for hour mode (default: the observed location's zone)")
		asJSON  = flag.Bool("json", false, "print the API response body instead of a summary")
		publish = flag.Bool("publish", false, "store the result as active in the configured store")
		verbose = flag.BoolP("verbose", "v", false, "log to stderr")

		upload          = flag.Bool("upload", false, "write the observation to InfluxDB")
		influxAddr      = flag.String("influx-addr", "http://localhost:8086", "InfluxDB HTTP address")
		influxUser      = flag.String("influx-user", "", "InfluxDB username")
		influxPass      = flag.String("influx-password", "", "InfluxDB password")
		influxDB        = flag.String("influx-db", "weather", "InfluxDB database")
		measurementName = flag.String("measurement-name", export.DefaultMeasurement, "measurement name")
	)
	flag.Parse()

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	q, err := queryFromFlags(*city, *lat, *lon, flag.CommandLine.Changed("lat"), flag.CommandLine.Changed("lon"))
	if err != nil {
		flag.Usage()
		fatal(err)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	if err := applyThemeFlags(&cfg.Theme, *mode, *tz); err != nil {
		fatal(err)
	}
	if !*publish {
		cfg.Store.Backend = config.StoreMemory
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OpenWeather.Timeout+5*time.Second)
	defer cancel()

	stack, err := app.NewWeather(ctx, cfg, log)
	if err != nil {
		fatal(err)
	}
	defer stack.Close()

	p, err := stack.Service.Fetch(ctx, q)
	if err != nil {
		fatal(err)
	}

	if *at != "" {
		when, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fatal(fmt.Errorf("--at: %w", err))
		}
		p.Theme = stack.Service.Classify(p.Observation.ThemeInput(), when)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models.NewWeatherResponse(p)); err != nil {
			fatal(err)
		}
	} else {
		printSummary(p)
	}

	if *upload {
		influxCfg := export.InfluxConfig{
			Addr:        *influxAddr,
			Username:    *influxUser,
			Password:    *influxPass,
			Database:    *influxDB,
			Measurement: *measurementName,
		}
		pt, err := export.NewPoint(influxCfg.Measurement, p)
		if err != nil {
			fatal(err)
		}
		bp, err := export.Batch(influxCfg, pt)
		if err != nil {
			fatal(err)
		}
		if err := export.Upload(influxCfg, bp); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "wrote 1 point to %s/%s\n", influxCfg.Addr, influxCfg.Database)
	}
}

func queryFromFlags(city string, lat, lon float64, latSet, lonSet bool) (weather.Query, error) {
	switch {
	case latSet && lonSet:
		return weather.ByCoordinates(lat, lon), nil
	case latSet || lonSet:
		return weather.Query{}, errors.New("--lat and --lon must be given together")
	case city != "":
		return weather.ByCity(city), nil
	default:
		return weather.Query{}, weather.ErrInvalidQuery
	}
}

func applyThemeFlags(tc *config.ThemeConfig, mode, tz string) error {
	if mode != "" {
		m, err := theme.ParseDayNightMode(mode)
		if err != nil {
			return fmt.Errorf("--mode: %w", err)
		}
		tc.Mode = m
	}
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("--tz: %w", err)
		}
		tc.Location = loc
	}
	return nil
}

func printSummary(p *weather.Presentation) {
	obs := p.Observation
	daytime := "night"
	if p.Theme.IsDaytime {
		daytime = "day"
	}

	fmt.Printf("%s (%.4f, %.4f)\n", obs.CityName, obs.Lat, obs.Lon)
	fmt.Printf("  condition:   %s (%s)\n", obs.ConditionMain, obs.Description)
	fmt.Printf("  temperature: %s°C\n", strconv.FormatFloat(obs.Temperature, 'f', 1, 64))
	fmt.Printf("  sunrise:     %s\n", orNone(obs.LocalSunrise()))
	fmt.Printf("  sunset:      %s\n", orNone(obs.LocalSunset()))
	if icon := obs.IconURL(); icon != "" {
		fmt.Printf("  icon:        %s\n", icon)
	}
	fmt.Printf("  theme:       %s, %s\n", p.Theme.Token, daytime)
	fmt.Printf("  style:       %s\n", p.Theme.StyleClass)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "weatherctl:", err)
	os.Exit(1)
}
