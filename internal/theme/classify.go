package theme

import "time"

// Input is the slice of an observation the classifier depends on.
type Input struct {
	ConditionMain string
	TemperatureC  float64
	Sunrise       time.Time
	Sunset        time.Time
}

// PresentationTheme is the derived presentation of one observation at one instant.
type PresentationTheme struct {
	Token      ThemeToken `json:"token"`
	StyleClass string     `json:"styleClass"`
	IsDaytime  bool       `json:"isDaytime"`
}

// Classify computes the presentation theme of in at now.
func Classify(in Input, now time.Time, opts ...Option) PresentationTheme {
	token := SelectConditionTheme(in.ConditionMain, in.TemperatureC)
	day := IsDaytime(in.Sunrise, in.Sunset, now, opts...)

	return PresentationTheme{
		Token:      token,
		StyleClass: ComposeTheme(token, day),
		IsDaytime:  day,
	}
}
