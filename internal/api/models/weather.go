package models

import (
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherResponse is the body of the current and active weather endpoints.
type WeatherResponse struct {
	Observation Observation `json:"observation"`
	Theme       Theme       `json:"theme"`
}

// Observation is the wire form of weather.Observation.
type Observation struct {
	City           string     `json:"city"`
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	TemperatureC   float64    `json:"temperatureC"`
	ConditionMain  string     `json:"conditionMain"`
	Condition      string     `json:"condition"`
	Description    string     `json:"description,omitempty"`
	IconCode       string     `json:"iconCode,omitempty"`
	IconURL        string     `json:"iconUrl,omitempty"`
	Sunrise        *Timestamp `json:"sunrise"`
	Sunset         *Timestamp `json:"sunset"`
	LocalSunrise   string     `json:"localSunrise,omitempty"`
	LocalSunset    string     `json:"localSunset,omitempty"`
	TimezoneOffset int        `json:"timezoneOffsetSeconds"`
	Humidity       float64    `json:"humidity"`
	WindSpeed      float64    `json:"windSpeed"`
	Pressure       float64    `json:"pressure"`
	ObservedAt     *Timestamp `json:"observedAt,omitempty"`
	FetchedAt      *Timestamp `json:"fetchedAt,omitempty"`
}

// Theme is the wire form of theme.PresentationTheme.
type Theme struct {
	Token      string `json:"token"`
	StyleClass string `json:"styleClass"`
	IsDaytime  bool   `json:"isDaytime"`
}

// NewWeatherResponse maps a presentation onto the wire model.
func NewWeatherResponse(p *weather.Presentation) WeatherResponse {
	o := p.Observation
	return WeatherResponse{
		Observation: Observation{
			City:           o.CityName,
			Lat:            o.Lat,
			Lon:            o.Lon,
			TemperatureC:   o.Temperature,
			ConditionMain:  o.ConditionMain,
			Condition:      string(o.Condition),
			Description:    o.Description,
			IconCode:       o.IconCode,
			IconURL:        o.IconURL(),
			Sunrise:        TimestampPtr(o.Sunrise),
			Sunset:         TimestampPtr(o.Sunset),
			LocalSunrise:   o.LocalSunrise(),
			LocalSunset:    o.LocalSunset(),
			TimezoneOffset: o.TimezoneOffset,
			Humidity:       o.Humidity,
			WindSpeed:      o.WindSpeed,
			Pressure:       o.Pressure,
			ObservedAt:     TimestampPtr(o.ObservedAt),
			FetchedAt:      TimestampPtr(o.FetchedAt),
		},
		Theme: NewTheme(p.Theme),
	}
}

// NewTheme maps a classifier result onto the wire model.
func NewTheme(t theme.PresentationTheme) Theme {
	return Theme{
		Token:      string(t.Token),
		StyleClass: t.StyleClass,
		IsDaytime:  t.IsDaytime,
	}
}

// ClassifyRequest is the body of POST /v1/theme:classify. Times are Unix seconds;
// a zero sunrise or sunset means the sun does not rise or set. Now defaults to
// the server clock.
type ClassifyRequest struct {
	ConditionMain string   `json:"conditionMain"`
	TemperatureC  *float64 `json:"temperatureC" validate:"required"`
	Sunrise       *int64   `json:"sunrise" validate:"required"`
	Sunset        *int64   `json:"sunset" validate:"required"`
	Now           *int64   `json:"now,omitempty"`
}
