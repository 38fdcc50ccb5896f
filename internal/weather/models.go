package weather

import (
	"math"
	"time"
)

// Condition represents a normalized weather condition derived from the
// provider's numeric weather code.
type Condition string

const ConditionUnknown Condition = "unknown"

// Location is a geographic point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 ranges.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Near reports whether other falls inside the tolerance bucket around l.
func (l Location) Near(other Location, tolerance float64) bool {
	return math.Abs(l.Latitude-other.Latitude) <= tolerance &&
		math.Abs(l.Longitude-other.Longitude) <= tolerance
}

// CurrentConditions holds the measured values of a single observation.
type CurrentConditions struct {
	Temperature   float64   `json:"temperature" bson:"temperature"`
	Humidity      float64   `json:"humidity" bson:"humidity"`
	WindSpeed     float64   `json:"windSpeed" bson:"windSpeed"`
	WeatherCode   int       `json:"weatherCode" bson:"weatherCode"`
	Condition     Condition `json:"condition" bson:"condition"`
	Precipitation float64   `json:"precipitation" bson:"precipitation"`
}

// HourlyForecast carries parallel hourly forecast arrays as returned by the
// provider, starting at the hour of the observation.
type HourlyForecast struct {
	Time                     []time.Time `json:"time" bson:"time"`
	Temperature              []float64   `json:"temperature" bson:"temperature"`
	Humidity                 []float64   `json:"humidity" bson:"humidity"`
	WindSpeed                []float64   `json:"windSpeed" bson:"windSpeed"`
	WeatherCode              []int       `json:"weatherCode" bson:"weatherCode"`
	PrecipitationProbability []int       `json:"precipitationProbability" bson:"precipitationProbability"`
}

// DailyForecast carries parallel per-day forecast arrays.
type DailyForecast struct {
	Time                        []time.Time `json:"time" bson:"time"`
	WeatherCode                 []int       `json:"weatherCode" bson:"weatherCode"`
	TemperatureMax              []float64   `json:"temperatureMax" bson:"temperatureMax"`
	TemperatureMin              []float64   `json:"temperatureMin" bson:"temperatureMin"`
	PrecipitationSum            []float64   `json:"precipitationSum" bson:"precipitationSum"`
	PrecipitationProbabilityMax []int       `json:"precipitationProbabilityMax" bson:"precipitationProbabilityMax"`
	WindSpeedMax                []float64   `json:"windSpeedMax" bson:"windSpeedMax"`
}

// Sample is one stored weather observation. Samples are immutable once
// written; a sample is identified by its (Timestamp, Location) pair.
type Sample struct {
	ID        string            `json:"id" bson:"_id,omitempty"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
	Location  Location          `json:"location" bson:"location"`
	Current   CurrentConditions `json:"current" bson:"current"`
	Hourly    *HourlyForecast   `json:"hourlyForecast,omitempty" bson:"hourlyForecast,omitempty"`
	Daily     *DailyForecast    `json:"dailyForecast,omitempty" bson:"dailyForecast,omitempty"`
}

// HourlyObservation is one historical hour returned by the forecast provider
// during a backfill fetch.
type HourlyObservation struct {
	Timestamp     time.Time
	Temperature   float64
	Humidity      float64
	WindSpeed     float64
	WeatherCode   int
	Precipitation float64
}

// BackfillResult reports the outcome of one populate pass.
type BackfillResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// TrackedLocation pairs a location with the identity it is tracked under.
type TrackedLocation struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}
