// Package handler provides HTTP handlers for the skycast API.
package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/theme"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherService is the part of weather.Service the handlers use.
type WeatherService interface {
	Fetch(ctx context.Context, q weather.Query) (*weather.Presentation, error)
	Active(ctx context.Context) (*weather.Presentation, error)
	Classify(in theme.Input, now time.Time) theme.PresentationTheme
}

// WeatherHandler handles weather and theme endpoints.
type WeatherHandler struct {
	service  WeatherService
	validate *validator.Validate
	now      func() time.Time
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService) *WeatherHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &WeatherHandler{
		service:  service,
		validate: v,
		now:      time.Now,
	}
}

// WithClock overrides the clock used when a classify request omits now.
func (h *WeatherHandler) WithClock(now func() time.Time) *WeatherHandler {
	h.now = now
	return h
}

// Current handles GET /v1/weather/current - fetch by coordinates or city.
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	q, fieldErrs := parseQuery(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid location query", fieldErrs)
		return
	}

	p, err := h.service.Fetch(r.Context(), q)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewWeatherResponse(p))
}

// Active handles GET /v1/weather/active - the active observation themed at request time.
func (h *WeatherHandler) Active(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Active(r.Context())
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.NewWeatherResponse(p))
}

// Classify handles POST /v1/theme:classify - run the classifier on caller data.
func (h *WeatherHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req models.ClassifyRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, r, "request body failed validation", fieldErrors(err))
		return
	}

	now := h.now()
	if req.Now != nil {
		now = time.Unix(*req.Now, 0)
	}

	t := h.service.Classify(theme.Input{
		ConditionMain: req.ConditionMain,
		TemperatureC:  *req.TemperatureC,
		Sunrise:       theme.SunTime(*req.Sunrise),
		Sunset:        theme.SunTime(*req.Sunset),
	}, now)
	response.JSON(w, r, http.StatusOK, models.NewTheme(t))
}

// parseQuery reads lat/lon or city. Coordinates win when both are present.
func parseQuery(r *http.Request) (weather.Query, []models.FieldError) {
	values := r.URL.Query()
	latStr := strings.TrimSpace(values.Get("lat"))
	lonStr := strings.TrimSpace(values.Get("lon"))
	city := strings.TrimSpace(values.Get("city"))

	if latStr == "" && lonStr == "" {
		if city == "" {
			return weather.Query{}, []models.FieldError{{
				Field:   "city",
				Message: "provide lat and lon, or city",
				Code:    "required",
			}}
		}
		return weather.ByCity(city), nil
	}

	var errs []models.FieldError
	lat, fe := parseCoordinate("lat", latStr)
	if fe != nil {
		errs = append(errs, *fe)
	}
	lon, fe := parseCoordinate("lon", lonStr)
	if fe != nil {
		errs = append(errs, *fe)
	}
	if len(errs) > 0 {
		return weather.Query{}, errs
	}
	return weather.ByCoordinates(lat, lon), nil
}

// parseCoordinate only checks that raw is a number; range checks are left to the provider.
func parseCoordinate(field, raw string) (float64, *models.FieldError) {
	if raw == "" {
		return 0, &models.FieldError{Field: field, Message: field + " is required with coordinates", Code: "required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &models.FieldError{Field: field, Message: field + " must be a number", Code: "number"}
	}
	return v, nil
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Message: err.Error()}}
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fe.Field(),
			Message: fe.Field() + " is " + fe.Tag(),
			Code:    fe.Tag(),
		})
	}
	return out
}

// writeWeatherError maps service errors onto problem responses.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weather.ErrInvalidQuery):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, weather.ErrLocationNotFound):
		response.NotFound(w, r, models.ProblemTypeLocationNotFound, locationDetail(err))
	case errors.Is(err, weather.ErrNoActiveObservation):
		response.NotFound(w, r, models.ProblemTypeNoActive, "no weather has been fetched yet")
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "weather provider is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		response.GatewayTimeout(w, r, "weather provider did not respond in time")
	case errors.Is(err, weather.ErrProviderUnavailable), errors.Is(err, weather.ErrMalformedObservation):
		response.BadGateway(w, r, "weather provider returned an unusable response")
	default:
		response.InternalError(w, r, "")
	}
}

func locationDetail(err error) string {
	var fetchErr *weather.FetchError
	if errors.As(err, &fetchErr) {
		return "no weather found for " + string(fetchErr.Trigger) + " " + strconv.Quote(fetchErr.Query)
	}
	return "location not found"
}
