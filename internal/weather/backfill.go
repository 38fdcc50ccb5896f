package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// DefaultDensityThreshold is the fraction of the hourly-resolution
// expectation below which a lookback window is considered sparse.
const DefaultDensityThreshold = 0.5

// BackfillEngine detects gaps in a location's recorded history and fills
// them from the forecast provider without creating duplicate records.
type BackfillEngine struct {
	store    SampleStore
	provider ForecastProvider
	density  float64
	now      func() time.Time
}

// NewBackfillEngine creates a BackfillEngine. A density of 0 selects
// DefaultDensityThreshold.
func NewBackfillEngine(store SampleStore, provider ForecastProvider, density float64) *BackfillEngine {
	if density <= 0 {
		density = DefaultDensityThreshold
	}
	return &BackfillEngine{
		store:    store,
		provider: provider,
		density:  density,
		now:      time.Now,
	}
}

// EnsureHistoricalData checks sample density for the location over the last
// lookbackDays days and populates missing history when the stored count
// falls below the density threshold. When the window is dense enough it
// returns an empty result without touching the provider.
func (e *BackfillEngine) EnsureHistoricalData(ctx context.Context, loc Location, lookbackDays int) (BackfillResult, error) {
	if !loc.Valid() {
		return BackfillResult{}, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}

	now := e.now().UTC()
	from := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	count, err := e.store.Count(ctx, loc, from, now)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("counting samples: %w", err)
	}

	threshold := float64(lookbackDays*24) * e.density
	if float64(count) >= threshold {
		return BackfillResult{}, nil
	}

	return e.PopulateHistoricalData(ctx, loc, lookbackDays)
}

// PopulateHistoricalData fetches hourly data for the lookback window and
// inserts every hour not already present in the store. Per-record store
// failures are logged and counted as skipped; the loop continues. Re-running
// with no external changes yields Created == 0.
func (e *BackfillEngine) PopulateHistoricalData(ctx context.Context, loc Location, lookbackDays int) (BackfillResult, error) {
	if !loc.Valid() {
		return BackfillResult{}, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}

	hours, err := e.provider.FetchHourlyHistory(ctx, loc, lookbackDays)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("fetching hourly history: %w", err)
	}

	now := e.now().UTC()
	from := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	var res BackfillResult
	for _, h := range hours {
		ts := h.Timestamp.UTC()

		// past_days responses include forecast hours; keep the window only.
		if ts.Before(from) || ts.After(now) {
			continue
		}

		exists, err := e.store.Exists(ctx, ts, loc)
		if err != nil {
			log.Printf("backfill: existence check failed for %s at %.4f,%.4f: %v",
				ts.Format(time.RFC3339), loc.Latitude, loc.Longitude, err)
			res.Skipped++
			continue
		}
		if exists {
			res.Skipped++
			continue
		}

		sample := Sample{
			ID:        uuid.NewString(),
			Timestamp: ts,
			Location:  loc,
			Current: CurrentConditions{
				Temperature:   h.Temperature,
				Humidity:      h.Humidity,
				WindSpeed:     h.WindSpeed,
				WeatherCode:   h.WeatherCode,
				Condition:     ConditionForCode(h.WeatherCode),
				Precipitation: h.Precipitation,
			},
		}

		if err := e.store.Insert(ctx, sample); err != nil {
			// Includes duplicate races with a concurrent pass; the store's
			// uniqueness constraint keeps the record single either way.
			log.Printf("backfill: insert failed for %s at %.4f,%.4f: %v",
				ts.Format(time.RFC3339), loc.Latitude, loc.Longitude, err)
			res.Skipped++
			continue
		}
		res.Created++
	}

	return res, nil
}
