package weather_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/weather"
)

func TestObservation_IconURL(t *testing.T) {
	obs := &weather.Observation{IconCode: "04n"}
	assert.Equal(t, "https://openweathermap.org/img/wn/04n@2x.png", obs.IconURL())

	obs.IconCode = ""
	assert.Empty(t, obs.IconURL())
}

func TestObservation_LocalSunTimes(t *testing.T) {
	obs := &weather.Observation{
		Sunrise:        time.Date(2024, 6, 1, 3, 15, 0, 0, time.UTC),
		Sunset:         time.Date(2024, 6, 1, 19, 45, 30, 0, time.UTC),
		TimezoneOffset: 2 * 60 * 60,
	}

	assert.Equal(t, "05:15:00", obs.LocalSunrise())
	assert.Equal(t, "21:45:30", obs.LocalSunset())

	obs.TimezoneOffset = 0
	assert.Equal(t, "03:15:00", obs.LocalSunrise())
}

func TestObservation_Zone(t *testing.T) {
	obs := &weather.Observation{TimezoneOffset: -(3*3600 + 30*60)}
	name, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, obs.Zone()).Zone()
	assert.Equal(t, "UTC-03:30", name)
	assert.Equal(t, -(3*3600 + 30*60), offset)
}

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{"integer", "15", 15, false},
		{"decimal", "24.9", 24.9, false},
		{"negative", "-3.5", -3.5, false},
		{"whitespace", " 25 ", 25, false},
		{"text", "warm", 0, true},
		{"empty", "", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "+Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := weather.ParseTemperature(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, weather.ErrMalformedObservation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTemperature_OrdersNumerically(t *testing.T) {
	// "9" sorts after "15" as text; numerically it is the cooler tier.
	nine, err := weather.ParseTemperature("9")
	require.NoError(t, err)
	fifteen, err := weather.ParseTemperature("15")
	require.NoError(t, err)
	assert.Less(t, nine, fifteen)
}

func TestQuery(t *testing.T) {
	q := weather.ByCoordinates(52.37, 4.89)
	assert.True(t, q.HasCoordinates())
	assert.Equal(t, weather.TriggerCoordinates, q.Trigger())
	assert.Equal(t, "52.3700,4.8900", q.String())
	assert.NoError(t, q.Validate())

	q = weather.ByCity("Utrecht")
	assert.False(t, q.HasCoordinates())
	assert.Equal(t, weather.TriggerCity, q.Trigger())
	assert.Equal(t, "Utrecht", q.String())
	assert.NoError(t, q.Validate())

	assert.ErrorIs(t, weather.Query{}.Validate(), weather.ErrInvalidQuery)

	lat := 1.0
	assert.ErrorIs(t, weather.Query{Lat: &lat}.Validate(), weather.ErrInvalidQuery)
}

func TestFetchError(t *testing.T) {
	err := &weather.FetchError{
		Trigger: weather.TriggerCity,
		Query:   "Paris",
		Err:     weather.ErrLocationNotFound,
	}

	assert.Contains(t, err.Error(), "city")
	assert.Contains(t, err.Error(), "Paris")
	assert.True(t, errors.Is(err, weather.ErrLocationNotFound))
}

func TestValidateObservation(t *testing.T) {
	valid := func() *weather.Observation {
		return sampleObservation("Bern", "Clear", 21)
	}

	require.NoError(t, weather.ValidateObservation(valid()))

	tests := []struct {
		name   string
		mutate func(o *weather.Observation)
	}{
		{"nan temperature", func(o *weather.Observation) { o.Temperature = math.NaN() }},
		{"infinite temperature", func(o *weather.Observation) { o.Temperature = math.Inf(1) }},
		{"latitude out of range", func(o *weather.Observation) { o.Lat = 100 }},
		{"sunset before sunrise", func(o *weather.Observation) { o.Sunset = o.Sunrise.Add(-time.Hour) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := valid()
			tt.mutate(obs)
			assert.ErrorIs(t, weather.ValidateObservation(obs), weather.ErrMalformedObservation)
		})
	}

	assert.ErrorIs(t, weather.ValidateObservation(nil), weather.ErrMalformedObservation)
}

func TestValidateObservation_NoSunEvent(t *testing.T) {
	obs := sampleObservation("Longyearbyen", "Clear", 4)
	obs.Sunrise, obs.Sunset = time.Time{}, time.Time{}
	assert.NoError(t, weather.ValidateObservation(obs))

	obs = sampleObservation("Longyearbyen", "Clear", 4)
	obs.Sunset = time.Time{}
	assert.NoError(t, weather.ValidateObservation(obs))
	assert.NotEmpty(t, obs.LocalSunrise())
	assert.Empty(t, obs.LocalSunset())
}

func TestInMemoryRepository(t *testing.T) {
	repo := weather.NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Active(ctx)
	require.ErrorIs(t, err, weather.ErrNoActiveObservation)
	require.NoError(t, repo.Ping(ctx))

	first := sampleObservation("A", "Clear", 1)
	require.NoError(t, repo.Save(ctx, first))

	// Mutating the caller's value must not leak into the stored observation.
	first.CityName = "mutated"

	got, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", got.CityName)

	require.NoError(t, repo.Save(ctx, sampleObservation("B", "Rain", 2)))
	got, err = repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", got.CityName)
	assert.Equal(t, "Rain", got.ConditionMain)
	assert.Equal(t, 2.0, got.Temperature)
}
