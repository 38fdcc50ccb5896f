package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/weatherlog/weatherlog/internal/weather"
)

const (
	hourlyTimeLayout = "2006-01-02T15:04"
	dailyTimeLayout  = "2006-01-02"

	// currentHourlyHours is how many forecast hours a live sample keeps.
	currentHourlyHours = 24
	// forecastDays is how many daily entries a live sample keeps.
	forecastDays = 7
)

var (
	currentFields = []string{
		"temperature_2m", "relative_humidity_2m", "wind_speed_10m",
		"weather_code", "precipitation",
	}
	hourlyForecastFields = []string{
		"temperature_2m", "relative_humidity_2m", "wind_speed_10m",
		"weather_code", "precipitation_probability",
	}
	hourlyHistoryFields = []string{
		"temperature_2m", "relative_humidity_2m", "wind_speed_10m",
		"weather_code", "precipitation",
	}
	dailyFields = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min",
		"precipitation_sum", "precipitation_probability_max", "wind_speed_10m_max",
	}
)

// OpenMeteoProvider implements weather.ForecastProvider against the
// Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// openMeteoPayload mirrors the provider response. Sections are optional;
// presence is validated against the requested fields before normalization.
type openMeteoPayload struct {
	Current *struct {
		Time          string   `json:"time"`
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		WeatherCode   *int     `json:"weather_code"`
		Precipitation *float64 `json:"precipitation"`
	} `json:"current"`
	Hourly *struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		Humidity                 []float64 `json:"relative_humidity_2m"`
		WindSpeed                []float64 `json:"wind_speed_10m"`
		WeatherCode              []int     `json:"weather_code"`
		PrecipitationProbability []int     `json:"precipitation_probability"`
		Precipitation            []float64 `json:"precipitation"`
	} `json:"hourly"`
	Daily *struct {
		Time                        []string  `json:"time"`
		WeatherCode                 []int     `json:"weather_code"`
		TemperatureMax              []float64 `json:"temperature_2m_max"`
		TemperatureMin              []float64 `json:"temperature_2m_min"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
		WindSpeedMax                []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// FetchCurrent returns a live observation including 24h hourly and 7-day
// daily forecast arrays.
func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, loc weather.Location) (weather.Sample, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(loc.Latitude))
	values.Set("longitude", formatCoord(loc.Longitude))
	values.Set("current", strings.Join(currentFields, ","))
	values.Set("hourly", strings.Join(hourlyForecastFields, ","))
	values.Set("daily", strings.Join(dailyFields, ","))
	values.Set("forecast_days", strconv.Itoa(forecastDays))
	values.Set("timezone", "UTC")

	payload, err := p.fetch(ctx, values)
	if err != nil {
		return weather.Sample{}, err
	}

	cur := payload.Current
	if cur == nil || cur.Temperature == nil || cur.Humidity == nil ||
		cur.WindSpeed == nil || cur.WeatherCode == nil {
		return weather.Sample{}, fmt.Errorf("%w: missing current section", weather.ErrProviderBadResponse)
	}

	ts, err := time.Parse(hourlyTimeLayout, cur.Time)
	if err != nil {
		return weather.Sample{}, fmt.Errorf("%w: current time %q", weather.ErrProviderBadResponse, cur.Time)
	}
	ts = ts.UTC()

	precipitation := 0.0
	if cur.Precipitation != nil {
		precipitation = *cur.Precipitation
	}

	sample := weather.Sample{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Location:  loc,
		Current: weather.CurrentConditions{
			Temperature:   *cur.Temperature,
			Humidity:      *cur.Humidity,
			WindSpeed:     *cur.WindSpeed,
			WeatherCode:   *cur.WeatherCode,
			Condition:     weather.ConditionForCode(*cur.WeatherCode),
			Precipitation: precipitation,
		},
	}

	hourly, err := normalizeHourlyForecast(payload)
	if err != nil {
		return weather.Sample{}, err
	}
	sample.Hourly = hourly

	daily, err := normalizeDailyForecast(payload)
	if err != nil {
		return weather.Sample{}, err
	}
	sample.Daily = daily

	return sample, nil
}

// FetchHourlyHistory returns hourly observations covering the past pastDays
// days. The response also includes forecast hours for the current day;
// callers filter to their window.
func (p *OpenMeteoProvider) FetchHourlyHistory(ctx context.Context, loc weather.Location, pastDays int) ([]weather.HourlyObservation, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(loc.Latitude))
	values.Set("longitude", formatCoord(loc.Longitude))
	values.Set("hourly", strings.Join(hourlyHistoryFields, ","))
	values.Set("past_days", strconv.Itoa(pastDays))
	values.Set("forecast_days", "1")
	values.Set("timezone", "UTC")

	payload, err := p.fetch(ctx, values)
	if err != nil {
		return nil, err
	}

	h := payload.Hourly
	if h == nil {
		return nil, fmt.Errorf("%w: missing hourly section", weather.ErrProviderBadResponse)
	}
	n := len(h.Time)
	if n == 0 || len(h.Temperature) != n || len(h.Humidity) != n ||
		len(h.WindSpeed) != n || len(h.WeatherCode) != n || len(h.Precipitation) != n {
		return nil, fmt.Errorf("%w: hourly arrays are not parallel", weather.ErrProviderBadResponse)
	}

	observations := make([]weather.HourlyObservation, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse(hourlyTimeLayout, h.Time[i])
		if err != nil {
			return nil, fmt.Errorf("%w: hourly time %q", weather.ErrProviderBadResponse, h.Time[i])
		}
		observations = append(observations, weather.HourlyObservation{
			Timestamp:     ts.UTC(),
			Temperature:   h.Temperature[i],
			Humidity:      h.Humidity[i],
			WindSpeed:     h.WindSpeed[i],
			WeatherCode:   h.WeatherCode[i],
			Precipitation: h.Precipitation[i],
		})
	}
	return observations, nil
}

func (p *OpenMeteoProvider) fetch(ctx context.Context, values url.Values) (*openMeteoPayload, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrProviderBadResponse, err)
	}
	return &payload, nil
}

func normalizeHourlyForecast(payload *openMeteoPayload) (*weather.HourlyForecast, error) {
	h := payload.Hourly
	if h == nil {
		return nil, fmt.Errorf("%w: missing hourly section", weather.ErrProviderBadResponse)
	}
	n := len(h.Time)
	if n == 0 || len(h.Temperature) != n || len(h.Humidity) != n ||
		len(h.WindSpeed) != n || len(h.WeatherCode) != n || len(h.PrecipitationProbability) != n {
		return nil, fmt.Errorf("%w: hourly arrays are not parallel", weather.ErrProviderBadResponse)
	}
	if n > currentHourlyHours {
		n = currentHourlyHours
	}

	times := make([]time.Time, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse(hourlyTimeLayout, h.Time[i])
		if err != nil {
			return nil, fmt.Errorf("%w: hourly time %q", weather.ErrProviderBadResponse, h.Time[i])
		}
		times[i] = ts.UTC()
	}

	return &weather.HourlyForecast{
		Time:                     times,
		Temperature:              h.Temperature[:n],
		Humidity:                 h.Humidity[:n],
		WindSpeed:                h.WindSpeed[:n],
		WeatherCode:              h.WeatherCode[:n],
		PrecipitationProbability: h.PrecipitationProbability[:n],
	}, nil
}

func normalizeDailyForecast(payload *openMeteoPayload) (*weather.DailyForecast, error) {
	d := payload.Daily
	if d == nil {
		return nil, fmt.Errorf("%w: missing daily section", weather.ErrProviderBadResponse)
	}
	n := len(d.Time)
	if n == 0 || len(d.WeatherCode) != n || len(d.TemperatureMax) != n ||
		len(d.TemperatureMin) != n || len(d.PrecipitationSum) != n ||
		len(d.PrecipitationProbabilityMax) != n || len(d.WindSpeedMax) != n {
		return nil, fmt.Errorf("%w: daily arrays are not parallel", weather.ErrProviderBadResponse)
	}
	if n > forecastDays {
		n = forecastDays
	}

	times := make([]time.Time, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse(dailyTimeLayout, d.Time[i])
		if err != nil {
			return nil, fmt.Errorf("%w: daily time %q", weather.ErrProviderBadResponse, d.Time[i])
		}
		times[i] = ts.UTC()
	}

	return &weather.DailyForecast{
		Time:                        times,
		WeatherCode:                 d.WeatherCode[:n],
		TemperatureMax:              d.TemperatureMax[:n],
		TemperatureMin:              d.TemperatureMin[:n],
		PrecipitationSum:            d.PrecipitationSum[:n],
		PrecipitationProbabilityMax: d.PrecipitationProbabilityMax[:n],
		WindSpeedMax:                d.WindSpeedMax[:n],
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
