// Package theme maps a weather observation to the presentation theme a display
// layer renders it with. Everything in this package is pure: no I/O, no shared
// state, safe to call from any goroutine.
package theme

import "strings"

// ThemeToken is the closed set of condition themes.
type ThemeToken string

const (
	TokenClear      ThemeToken = "clear"
	TokenCloudsCool ThemeToken = "clouds-cool"
	TokenCloudsMild ThemeToken = "clouds-mild"
	TokenCloudsWarm ThemeToken = "clouds-warm"
	TokenRain       ThemeToken = "rain"
	TokenNeutral    ThemeToken = "neutral"
)

// Temperature tier boundaries for cloudy conditions, in Celsius.
// A temperature equal to a boundary belongs to the warmer tier.
const (
	CloudsMildFrom = 15.0
	CloudsWarmFrom = 25.0
)

// Opacity modifiers appended to the condition style class.
const (
	OpacityDay   = "bg-opacity-75"
	OpacityNight = "bg-opacity-50"
)

var styleClasses = map[ThemeToken]string{
	TokenClear:      "bg-blue-500 text-white",
	TokenCloudsCool: "bg-gray-300 text-gray-800",
	TokenCloudsMild: "bg-gray-500 text-white",
	TokenCloudsWarm: "bg-gray-700 text-white",
	TokenRain:       "bg-blue-800 text-white",
	TokenNeutral:    "bg-gray-100 text-gray-800",
}

// StyleClass returns the background style class for the token.
// Unknown tokens resolve to the neutral style.
func (t ThemeToken) StyleClass() string {
	if class, ok := styleClasses[t]; ok {
		return class
	}
	return styleClasses[TokenNeutral]
}

// Tokens returns every theme token, fallback last.
func Tokens() []ThemeToken {
	return []ThemeToken{
		TokenClear,
		TokenCloudsCool,
		TokenCloudsMild,
		TokenCloudsWarm,
		TokenRain,
		TokenNeutral,
	}
}

// rule is one entry of the ordered condition table.
type rule struct {
	match string
	token func(temperatureC float64) ThemeToken
}

func fixed(t ThemeToken) func(float64) ThemeToken {
	return func(float64) ThemeToken { return t }
}

func cloudsTier(temperatureC float64) ThemeToken {
	switch {
	case temperatureC < CloudsMildFrom:
		return TokenCloudsCool
	case temperatureC < CloudsWarmFrom:
		return TokenCloudsMild
	default:
		return TokenCloudsWarm
	}
}

// conditionRules is evaluated top to bottom, first match wins. Upstream
// condition labels are free text, so matching is by case-sensitive substring.
var conditionRules = []rule{
	{match: "Clear", token: fixed(TokenClear)},
	{match: "Clouds", token: cloudsTier},
	{match: "Rain", token: fixed(TokenRain)},
}

// SelectConditionTheme picks the condition theme for a condition label and a
// temperature in Celsius. It never fails; anything unmatched is TokenNeutral.
func SelectConditionTheme(conditionMain string, temperatureC float64) ThemeToken {
	for _, r := range conditionRules {
		if strings.Contains(conditionMain, r.match) {
			return r.token(temperatureC)
		}
	}
	return TokenNeutral
}

// ComposeTheme joins the token's style class with the day or night opacity modifier.
func ComposeTheme(token ThemeToken, isDaytime bool) string {
	opacity := OpacityNight
	if isDaytime {
		opacity = OpacityDay
	}
	return token.StyleClass() + " " + opacity
}
