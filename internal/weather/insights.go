package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TrendLabel describes the direction of the temperature trend.
type TrendLabel string

const (
	TrendRising  TrendLabel = "rising"
	TrendFalling TrendLabel = "falling"
	TrendStable  TrendLabel = "stable"
)

// Severity tags an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityExtreme Severity = "extreme"
)

// Alert is a single threshold-driven warning.
type Alert struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// InsightsStatistics aggregates the sample window.
type InsightsStatistics struct {
	AverageTemperature float64 `json:"averageTemperature"`
	AverageHumidity    float64 `json:"averageHumidity"`
	AverageWindSpeed   float64 `json:"averageWindSpeed"`
	MaxTemperature     float64 `json:"maxTemperature"`
	MinTemperature     float64 `json:"minTemperature"`
	DataPoints         int     `json:"dataPoints"`
}

// InsightsTrends describes how recent samples compare against older ones.
type InsightsTrends struct {
	Temperature       TrendLabel `json:"temperature"`
	TemperatureChange float64    `json:"temperatureChange"`
}

// InsightsComfort is the bounded comfort score and its level.
type InsightsComfort struct {
	Index int    `json:"index"`
	Level string `json:"level"`
}

// InsightsResult is the derived analytics view over a sample window. It is
// computed per call and never persisted.
type InsightsResult struct {
	Message        string             `json:"message,omitempty"`
	Statistics     InsightsStatistics `json:"statistics"`
	Trends         InsightsTrends     `json:"trends"`
	Comfort        InsightsComfort    `json:"comfort"`
	Classification string             `json:"classification"`
	Alerts         []Alert            `json:"alerts"`
	ForecastAlerts []Alert            `json:"forecastAlerts"`
	DailyOutlook   []string           `json:"dailyOutlook"`
	Summary        string             `json:"summary"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}

const (
	// trendSplit is how many of the newest samples form the "recent" half
	// of the trend comparison.
	trendSplit = 10

	// summaryWindowHours caps the summary's mean/trend sub-window at seven
	// days of hourly samples.
	summaryWindowHours = 7 * 24

	// maxOutlookDays and maxOutlookPhrases bound the daily outlook list.
	maxOutlookDays    = 7
	maxOutlookPhrases = 5
)

// GenerateInsights turns a window of samples (ordered most-recent-first)
// plus an optional fresher live reading into derived analytics. Identical
// inputs yield identical output except GeneratedAt.
func GenerateInsights(samples []Sample, live *Sample) InsightsResult {
	if len(samples) == 0 && live == nil {
		return InsightsResult{
			Message:        "no weather data available",
			Trends:         InsightsTrends{Temperature: TrendStable},
			Alerts:         []Alert{},
			ForecastAlerts: []Alert{},
			DailyOutlook:   []string{},
			GeneratedAt:    time.Now().UTC(),
		}
	}

	window := samples
	if len(window) == 0 {
		// No stored history; the live reading alone forms the window.
		window = []Sample{*live}
	}
	effective := effectiveLatest(samples, live)

	temps := make([]float64, len(window))
	humidities := make([]float64, len(window))
	winds := make([]float64, len(window))
	conditions := make([]Condition, len(window))
	for i, s := range window {
		temps[i] = s.Current.Temperature
		humidities[i] = s.Current.Humidity
		winds[i] = s.Current.WindSpeed
		conditions[i] = s.Current.Condition
	}

	avgTemp := mean(temps)
	avgHumidity := mean(humidities)
	avgWind := mean(winds)
	maxTemp, minTemp := minMax(temps)

	trend, change := temperatureTrend(temps)
	comfort := ComfortIndex(avgTemp, avgHumidity, avgWind)
	classification := classifyWeather(avgTemp, avgHumidity, conditions)

	return InsightsResult{
		Statistics: InsightsStatistics{
			AverageTemperature: round2(avgTemp),
			AverageHumidity:    round2(avgHumidity),
			AverageWindSpeed:   round2(avgWind),
			MaxTemperature:     round2(maxTemp),
			MinTemperature:     round2(minTemp),
			DataPoints:         len(window),
		},
		Trends: InsightsTrends{
			Temperature:       trend,
			TemperatureChange: change,
		},
		Comfort: InsightsComfort{
			Index: comfort,
			Level: comfortLevel(comfort),
		},
		Classification: classification,
		Alerts:         currentAlerts(effective.Current),
		ForecastAlerts: forecastAlerts(effective.Hourly, effective.Current.Temperature),
		DailyOutlook:   dailyOutlook(effective.Daily),
		Summary:        summaryText(temps, effective.Current, classification),
		GeneratedAt:    time.Now().UTC(),
	}
}

// effectiveLatest resolves the observation used for headline metrics: the
// live reading when it is strictly newer than the newest stored sample,
// merged onto that sample's shape, else the newest stored sample.
func effectiveLatest(samples []Sample, live *Sample) Sample {
	if live == nil {
		return samples[0]
	}
	if len(samples) == 0 {
		return *live
	}
	latest := samples[0]
	if !live.Timestamp.After(latest.Timestamp) {
		return latest
	}
	merged := latest
	merged.Timestamp = live.Timestamp
	merged.Current = live.Current
	if live.Hourly != nil {
		merged.Hourly = live.Hourly
	}
	if live.Daily != nil {
		merged.Daily = live.Daily
	}
	return merged
}

func temperatureTrend(temps []float64) (TrendLabel, float64) {
	n := len(temps)
	if n > trendSplit {
		n = trendSplit
	}
	recent := mean(temps[:n])
	older := recent
	if len(temps) > n {
		older = mean(temps[n:])
	}
	switch {
	case recent > older:
		return TrendRising, round2(recent - older)
	case recent < older:
		return TrendFalling, round2(recent - older)
	default:
		return TrendStable, 0
	}
}

// ComfortIndex scores how comfortable the conditions are on a 0-100 scale.
// Each of temperature and humidity applies only its single worst band;
// the wind deduction is independent and additive.
func ComfortIndex(temperature, humidity, windSpeed float64) int {
	index := 100

	switch {
	case temperature < 10 || temperature > 35:
		index -= 40
	case temperature < 15 || temperature > 30:
		index -= 20
	case temperature < 18 || temperature > 25:
		index -= 10
	}

	switch {
	case humidity < 20 || humidity > 80:
		index -= 20
	case humidity < 30 || humidity > 70:
		index -= 10
	}

	switch {
	case windSpeed > 30:
		index -= 15
	case windSpeed > 20:
		index -= 10
	case windSpeed < 2:
		index -= 5
	}

	if index < 0 {
		return 0
	}
	if index > 100 {
		return 100
	}
	return index
}

func comfortLevel(index int) string {
	switch {
	case index >= 80:
		return "very_comfortable"
	case index >= 60:
		return "comfortable"
	case index >= 40:
		return "moderate"
	case index >= 20:
		return "uncomfortable"
	default:
		return "very_uncomfortable"
	}
}

// classifyWeather labels the window. Rainy conditions anywhere in the
// window take precedence over the temperature bands.
func classifyWeather(meanTemp, meanHumidity float64, conditions []Condition) string {
	for _, c := range conditions {
		if c.IsRainy() {
			return "rainy"
		}
	}
	switch {
	case meanTemp < 10:
		return "cold"
	case meanTemp > 30:
		return "hot"
	case meanTemp >= 20 && meanTemp <= 28 && meanHumidity >= 40 && meanHumidity <= 60:
		return "pleasant"
	default:
		return "moderate"
	}
}

// currentAlerts evaluates the threshold alerts against the effective latest
// observation. All applicable alerts fire independently.
func currentAlerts(cur CurrentConditions) []Alert {
	alerts := []Alert{}

	if cur.Temperature > 35 {
		alerts = append(alerts, Alert{SeverityExtreme, "High temperature alert: extreme heat detected"})
	} else if cur.Temperature > 30 {
		alerts = append(alerts, Alert{SeverityWarning, "High temperature warning: hot conditions"})
	}

	if cur.Temperature < 5 {
		alerts = append(alerts, Alert{SeverityExtreme, "Low temperature alert: extreme cold detected"})
	} else if cur.Temperature < 10 {
		alerts = append(alerts, Alert{SeverityWarning, "Low temperature warning: cold conditions"})
	}

	if cur.Humidity > 80 {
		alerts = append(alerts, Alert{SeverityWarning, "High humidity warning: very humid conditions"})
	}
	if cur.Precipitation > 5 {
		alerts = append(alerts, Alert{SeverityWarning, "Precipitation alert: heavy rainfall detected"})
	}
	if cur.WindSpeed > 30 {
		alerts = append(alerts, Alert{SeverityWarning, "High wind warning: strong winds detected"})
	}

	return alerts
}

// forecastAlerts derives near-term alerts from the hourly forecast attached
// to the effective latest observation: rain probability over the next three
// hours and temperature swings over the next six.
func forecastAlerts(hourly *HourlyForecast, currentTemp float64) []Alert {
	alerts := []Alert{}
	if hourly == nil {
		return alerts
	}

	if n := minInt(3, len(hourly.PrecipitationProbability)); n > 0 {
		maxProb := hourly.PrecipitationProbability[0]
		for _, p := range hourly.PrecipitationProbability[1:n] {
			if p > maxProb {
				maxProb = p
			}
		}
		if maxProb > 70 {
			alerts = append(alerts, Alert{SeverityWarning,
				fmt.Sprintf("Rain very likely within 3 hours (%d%% probability)", maxProb)})
		} else if maxProb > 50 {
			alerts = append(alerts, Alert{SeverityInfo,
				fmt.Sprintf("Rain possible within 3 hours (%d%% probability)", maxProb)})
		}
	}

	if n := minInt(6, len(hourly.Temperature)); n > 0 {
		maxT, minT := minMax(hourly.Temperature[:n])
		if maxT-currentTemp >= 5 {
			alerts = append(alerts, Alert{SeverityWarning,
				fmt.Sprintf("Temperature rising sharply: up to %.1f°C within 6 hours", maxT)})
		}
		if currentTemp-minT >= 5 {
			alerts = append(alerts, Alert{SeverityWarning,
				fmt.Sprintf("Temperature dropping sharply: down to %.1f°C within 6 hours", minT)})
		}
	}

	return alerts
}

// dailyOutlook produces narrative phrases from the daily forecast, one per
// matching condition per day, deduplicated and capped preserving day order.
func dailyOutlook(daily *DailyForecast) []string {
	phrases := []string{}
	if daily == nil {
		return phrases
	}

	days := minInt(maxOutlookDays, len(daily.Time))
	days = minInt(days, len(daily.WeatherCode))
	days = minInt(days, len(daily.TemperatureMax))
	days = minInt(days, len(daily.TemperatureMin))
	days = minInt(days, len(daily.PrecipitationSum))
	days = minInt(days, len(daily.PrecipitationProbabilityMax))

	seen := make(map[string]struct{})
	add := func(phrase string) {
		if _, ok := seen[phrase]; ok {
			return
		}
		seen[phrase] = struct{}{}
		phrases = append(phrases, phrase)
	}

	for i := 0; i < days; i++ {
		label := dayLabel(i, daily.Time[i])

		_, heavyCode := heavyRainCodes[daily.WeatherCode[i]]
		if heavyCode || daily.PrecipitationSum[i] > 10 || daily.PrecipitationProbabilityMax[i] > 70 {
			add(fmt.Sprintf("Heavy rain expected %s", label))
		}
		if _, clear := clearCodes[daily.WeatherCode[i]]; clear && daily.TemperatureMax[i] > 25 {
			add(fmt.Sprintf("Strong sun expected %s", label))
		}
		if daily.TemperatureMax[i] > 35 {
			add(fmt.Sprintf("Extreme heat expected %s", label))
		}
		if daily.TemperatureMin[i] < 5 {
			add(fmt.Sprintf("Very cold conditions expected %s", label))
		}
	}

	if len(phrases) > maxOutlookPhrases {
		phrases = phrases[:maxOutlookPhrases]
	}
	return phrases
}

func dayLabel(index int, t time.Time) string {
	switch index {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return "on " + t.Format("Jan 2")
	}
}

// summaryText builds the three-clause summary. The mean/trend clause is
// recomputed over a sub-window capped at seven days of hourly samples.
func summaryText(temps []float64, cur CurrentConditions, classification string) string {
	sub := temps
	if len(sub) > summaryWindowHours {
		sub = sub[:summaryWindowHours]
	}
	trend, _ := temperatureTrend(sub)
	days := (len(sub) + 23) / 24

	clauses := []string{
		fmt.Sprintf("Weather summary for the last %d day(s): average temperature %.1f°C with %s trend",
			days, mean(sub), trend),
		fmt.Sprintf("Current conditions: %.1f°C, %.0f%% humidity, %.1f km/h wind",
			cur.Temperature, cur.Humidity, cur.WindSpeed),
		fmt.Sprintf("Overall classification: %s", classification),
	}
	return strings.Join(clauses, ". ") + "."
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
