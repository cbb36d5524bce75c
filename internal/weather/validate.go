package weather

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Float32, reflect.Float64:
			x := f.Float()
			return !math.IsNaN(x) && !math.IsInf(x, 0)
		default:
			return true
		}
	})
	v.RegisterStructValidation(validateSunTimes, Observation{})
	return v
}

// validateSunTimes requires sunset after sunrise when the provider reports both.
func validateSunTimes(sl validator.StructLevel) {
	obs := sl.Current().Interface().(Observation)
	if obs.Sunrise.IsZero() || obs.Sunset.IsZero() {
		return
	}
	if !obs.Sunset.After(obs.Sunrise) {
		sl.ReportError(obs.Sunset, "Sunset", "Sunset", "gtfield", "Sunrise")
	}
}

// ValidateObservation rejects observations whose numeric fields or sun times
// cannot be classified meaningfully. Missing sun times are accepted.
func ValidateObservation(obs *Observation) error {
	if obs == nil {
		return fmt.Errorf("%w: nil observation", ErrMalformedObservation)
	}
	if err := validate.Struct(obs); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedObservation, err)
	}
	return nil
}
