package weather

// UnknownCode marks a day whose weather code was missing.
const UnknownCode = -1

// Interpretation is the display form of a WMO weather code.
type Interpretation struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var wmoCodes = map[int]Interpretation{
	0: {"Clear", "clear"},

	1: {"Mostly Clear", "mostly-clear"},
	2: {"Partly Cloudy", "partly-cloudy"},
	3: {"Overcast", "overcast"},

	45: {"Fog", "fog"},
	48: {"Icy Fog", "rime-fog"},

	51: {"Light Drizzle", "light-drizzle"},
	53: {"Drizzle", "moderate-drizzle"},
	55: {"Heavy Drizzle", "dense-drizzle"},

	56: {"Light Freezing Drizzle", "light-freezing-drizzle"},
	57: {"Freezing Drizzle", "dense-freezing-drizzle"},

	61: {"Light Rain", "light-rain"},
	63: {"Rain", "moderate-rain"},
	65: {"Heavy Rain", "heavy-rain"},

	66: {"Light Freezing Rain", "light-freezing-rain"},
	67: {"Freezing Rain", "heavy-freezing-rain"},

	71: {"Light Snow", "slight-snowfall"},
	73: {"Snow", "moderate-snowfall"},
	75: {"Heavy Snow", "heavy-snowfall"},
	77: {"Snow Grains", "snowflake"},

	80: {"Light Showers", "light-rain"},
	81: {"Showers", "moderate-rain"},
	82: {"Heavy Showers", "heavy-rain"},

	85: {"Light Snow Showers", "slight-snowfall"},
	86: {"Snow Showers", "heavy-snowfall"},

	95: {"Thunderstorm", "thunderstorm"},
	96: {"Light T-storm w/ Hail", "thunderstorm-with-hail"},
	99: {"T-storm w/ Hail", "thunderstorm-with-hail"},
}

// Interpret maps a WMO code to a description and icon name.
// Unknown codes get the placeholder description "..." and no icon.
func Interpret(code int) Interpretation {
	if in, ok := wmoCodes[code]; ok {
		return in
	}
	return Interpretation{Description: "..."}
}

// CelsiusFromFahrenheit converts °F to °C.
func CelsiusFromFahrenheit(f float64) float64 { return (f - 32) * 5 / 9 }

// FahrenheitFromCelsius converts °C to °F.
func FahrenheitFromCelsius(c float64) float64 { return c*9/5 + 32 }
