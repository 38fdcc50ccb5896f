package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weatherlog/weatherlog/internal/geo"
	"github.com/weatherlog/weatherlog/internal/store"
	"github.com/weatherlog/weatherlog/internal/weather"
)

type stubProvider struct {
	current weather.Sample
	err     error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) FetchCurrent(_ context.Context, loc weather.Location) (weather.Sample, error) {
	if p.err != nil {
		return weather.Sample{}, p.err
	}
	sample := p.current
	sample.Location = loc
	return sample, nil
}

func (p stubProvider) FetchHourlyHistory(context.Context, weather.Location, int) ([]weather.HourlyObservation, error) {
	return nil, nil
}

func newTestApp(t *testing.T, provider weather.ForecastProvider, samples ...weather.Sample) *fiber.App {
	t.Helper()

	st := store.NewMemoryStore(store.DefaultBucketTolerance)
	for _, s := range samples {
		if err := st.Insert(context.Background(), s); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}

	engine := weather.NewBackfillEngine(st, provider, weather.DefaultDensityThreshold)
	service := weather.NewService(st, provider, engine, weather.ServiceConfig{})

	app := fiber.New()
	RegisterRoutes(app, service, geo.NewResolver(""))
	return app
}

func seedSample(id string, ts time.Time, temp float64) weather.Sample {
	return weather.Sample{
		ID:        id,
		Timestamp: ts,
		Location:  weather.Location{Latitude: 48.8566, Longitude: 2.3522},
		Current: weather.CurrentConditions{
			Temperature: temp,
			Humidity:    55,
			WindSpeed:   10,
			WeatherCode: 1,
			Condition:   "mainly_clear",
		},
	}
}

func TestInsightsEndpoint(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	app := newTestApp(t, stubProvider{},
		seedSample("a", base, 20),
		seedSample("b", base.Add(time.Hour), 22),
		seedSample("c", base.Add(2*time.Hour), 24),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/insights?latitude=48.8566&longitude=2.3522", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result weather.InsightsResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Statistics.DataPoints != 3 {
		t.Fatalf("data points = %d, want 3", result.Statistics.DataPoints)
	}
	if result.Statistics.AverageTemperature != 22 {
		t.Fatalf("average temperature = %v, want 22", result.Statistics.AverageTemperature)
	}
}

func TestInsightsRequiresCoordinates(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/insights", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInsightsRejectsOutOfRangeCoordinates(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/insights?latitude=95&longitude=0", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCurrentEndpoint(t *testing.T) {
	provider := stubProvider{current: weather.Sample{
		Timestamp: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		Current: weather.CurrentConditions{
			Temperature: 26.4,
			Humidity:    48,
			WindSpeed:   8,
			WeatherCode: 0,
			Condition:   "clear",
		},
	}}
	app := newTestApp(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?latitude=35.6762&longitude=139.6503", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var sample weather.Sample
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if sample.Current.Temperature != 26.4 || sample.Current.Condition != "clear" {
		t.Fatalf("unexpected sample: %+v", sample.Current)
	}
}

func TestCurrentMapsProviderUnavailable(t *testing.T) {
	provider := stubProvider{err: fmt.Errorf("%w: connect timeout", weather.ErrProviderUnavailable)}
	app := newTestApp(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?latitude=0&longitude=0", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
}

func TestCurrentMapsProviderBadResponse(t *testing.T) {
	provider := stubProvider{err: fmt.Errorf("%w: missing current block", weather.ErrProviderBadResponse)}
	app := newTestApp(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?latitude=0&longitude=0", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestLogsEndpointListsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	app := newTestApp(t, stubProvider{},
		seedSample("old", base, 18),
		seedSample("new", base.Add(time.Hour), 19),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/logs?latitude=48.8566&longitude=2.3522", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Data  []weather.Sample `json:"data"`
		Count int              `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 2 || len(body.Data) != 2 {
		t.Fatalf("count = %d, len = %d, want 2", body.Count, len(body.Data))
	}
	if body.Data[0].ID != "new" {
		t.Fatalf("first log = %q, want newest first", body.Data[0].ID)
	}
}

func TestLatestEndpointNoData(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/logs/latest?latitude=10&longitude=10", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPostLogStoresSample(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	payload, _ := json.Marshal(seedSample("", time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC), 17.2))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/logs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Stored bool `json:"stored"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Stored {
		t.Fatal("sample was not stored")
	}
}

func TestPostLogRequiresTimestamp(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/logs",
		bytes.NewReader([]byte(`{"location":{"latitude":1,"longitude":2}}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteLog(t *testing.T) {
	app := newTestApp(t, stubProvider{},
		seedSample("gone", time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC), 15),
	)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/weather/logs/gone", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/weather/logs/gone", nil)
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for missing log", resp.StatusCode)
	}
}

func TestLocationEndpointUnconfigured(t *testing.T) {
	app := newTestApp(t, stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/location?latitude=1&longitude=2", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}
