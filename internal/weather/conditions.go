package weather

import "strings"

// conditionByCode is the full Open-Meteo WMO weather code table. Codes not
// present map to ConditionUnknown.
var conditionByCode = map[int]Condition{
	0:  "clear",
	1:  "mainly_clear",
	2:  "partly_cloudy",
	3:  "overcast",
	45: "foggy",
	48: "depositing_rime_fog",
	51: "light_drizzle",
	53: "moderate_drizzle",
	55: "dense_drizzle",
	56: "light_freezing_drizzle",
	57: "dense_freezing_drizzle",
	61: "slight_rain",
	63: "moderate_rain",
	65: "heavy_rain",
	66: "light_freezing_rain",
	67: "heavy_freezing_rain",
	71: "slight_snow",
	73: "moderate_snow",
	75: "heavy_snow",
	77: "snow_grains",
	80: "slight_rain_showers",
	81: "moderate_rain_showers",
	82: "violent_rain_showers",
	85: "slight_snow_showers",
	86: "heavy_snow_showers",
	95: "thunderstorm",
	96: "thunderstorm_with_slight_hail",
	99: "thunderstorm_with_heavy_hail",
}

// ConditionForCode normalizes a provider weather code to a Condition.
func ConditionForCode(code int) Condition {
	if c, ok := conditionByCode[code]; ok {
		return c
	}
	return ConditionUnknown
}

// IsRainy reports whether the condition is a rain-bearing one
// (drizzle, rain, shower or thunderstorm variants). Snow showers are not
// rain.
func (c Condition) IsRainy() bool {
	s := string(c)
	if strings.Contains(s, "snow") {
		return false
	}
	return hasAny(s, "drizzle", "rain", "shower", "thunderstorm")
}

// heavyRainCodes are the codes treated as heavy rain in daily outlooks.
var heavyRainCodes = map[int]struct{}{
	65: {}, // heavy rain
	82: {}, // violent rain showers
	95: {}, // thunderstorm
	96: {}, // thunderstorm with slight hail
	99: {}, // thunderstorm with heavy hail
}

// clearCodes are the codes treated as clear sky for strong-sun outlooks.
var clearCodes = map[int]struct{}{
	0: {}, // clear
	1: {}, // mainly clear
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
