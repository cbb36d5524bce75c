package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// activeSlot is the primary key of the single active-observation row.
const activeSlot = 1

// Schema creates the tables used by PostgresRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS active_observation (
	slot            SMALLINT PRIMARY KEY,
	city_name       TEXT NOT NULL,
	lat             DOUBLE PRECISION NOT NULL,
	lon             DOUBLE PRECISION NOT NULL,
	temperature_c   DOUBLE PRECISION NOT NULL,
	condition_main  TEXT NOT NULL,
	condition       TEXT NOT NULL,
	description     TEXT NOT NULL,
	icon_code       TEXT NOT NULL,
	sunrise         TIMESTAMPTZ NOT NULL,
	sunset          TIMESTAMPTZ NOT NULL,
	timezone_offset INTEGER NOT NULL,
	humidity        DOUBLE PRECISION NOT NULL,
	wind_speed      DOUBLE PRECISION NOT NULL,
	pressure        DOUBLE PRECISION NOT NULL,
	observed_at     TIMESTAMPTZ NOT NULL,
	fetched_at      TIMESTAMPTZ NOT NULL
)`

// PostgresRepository is a PostgreSQL implementation of Repository. It lets the
// API and the worker share one active observation.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL observation repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create active_observation table: %w", err)
	}
	return nil
}

// Save upserts obs into the active slot. The whole row is replaced in a single
// statement, so readers see either the old or the new observation.
func (r *PostgresRepository) Save(ctx context.Context, obs *Observation) error {
	query := `
		INSERT INTO active_observation (
			slot, city_name, lat, lon, temperature_c,
			condition_main, condition, description, icon_code,
			sunrise, sunset, timezone_offset,
			humidity, wind_speed, pressure,
			observed_at, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (slot) DO UPDATE SET
			city_name = EXCLUDED.city_name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			temperature_c = EXCLUDED.temperature_c,
			condition_main = EXCLUDED.condition_main,
			condition = EXCLUDED.condition,
			description = EXCLUDED.description,
			icon_code = EXCLUDED.icon_code,
			sunrise = EXCLUDED.sunrise,
			sunset = EXCLUDED.sunset,
			timezone_offset = EXCLUDED.timezone_offset,
			humidity = EXCLUDED.humidity,
			wind_speed = EXCLUDED.wind_speed,
			pressure = EXCLUDED.pressure,
			observed_at = EXCLUDED.observed_at,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.pool.Exec(ctx, query,
		activeSlot,
		obs.CityName,
		obs.Lat,
		obs.Lon,
		obs.Temperature,
		obs.ConditionMain,
		string(obs.Condition),
		obs.Description,
		obs.IconCode,
		obs.Sunrise,
		obs.Sunset,
		obs.TimezoneOffset,
		obs.Humidity,
		obs.WindSpeed,
		obs.Pressure,
		obs.ObservedAt,
		obs.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert active observation: %w", err)
	}
	return nil
}

// Active returns the observation in the active slot.
func (r *PostgresRepository) Active(ctx context.Context) (*Observation, error) {
	query := `
		SELECT
			city_name, lat, lon, temperature_c,
			condition_main, condition, description, icon_code,
			sunrise, sunset, timezone_offset,
			humidity, wind_speed, pressure,
			observed_at, fetched_at
		FROM active_observation
		WHERE slot = $1
	`

	var (
		obs       Observation
		condition string
	)
	err := r.pool.QueryRow(ctx, query, activeSlot).Scan(
		&obs.CityName,
		&obs.Lat,
		&obs.Lon,
		&obs.Temperature,
		&obs.ConditionMain,
		&condition,
		&obs.Description,
		&obs.IconCode,
		&obs.Sunrise,
		&obs.Sunset,
		&obs.TimezoneOffset,
		&obs.Humidity,
		&obs.WindSpeed,
		&obs.Pressure,
		&obs.ObservedAt,
		&obs.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveObservation
		}
		return nil, err
	}
	obs.Condition = Condition(condition)

	return &obs, nil
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
