package weather

import (
	"context"
	"time"
)

// ForecastProvider abstracts the external weather API.
type ForecastProvider interface {
	Name() string

	// FetchCurrent returns a live observation for the location, including
	// hourly and daily forecast arrays.
	FetchCurrent(ctx context.Context, loc Location) (Sample, error)

	// FetchHourlyHistory returns hourly observations covering the past
	// pastDays days. Entries may extend beyond now; callers filter.
	FetchHourlyHistory(ctx context.Context, loc Location, pastDays int) ([]HourlyObservation, error)
}

// SampleStore is the persistence contract for observation records.
// Query results are ordered by timestamp descending. Count, Query and
// ExistsNear match locations within a tolerance bucket; Exists matches the
// exact (timestamp, location) pair.
type SampleStore interface {
	Insert(ctx context.Context, s Sample) error
	Exists(ctx context.Context, ts time.Time, loc Location) (bool, error)
	ExistsNear(ctx context.Context, loc Location, tolerance float64, since time.Time) (bool, error)
	Count(ctx context.Context, loc Location, from, to time.Time) (int64, error)
	Query(ctx context.Context, loc Location, limit int) ([]Sample, error)
	Delete(ctx context.Context, id string) error
}

// LocationSource enumerates the locations the scheduler keeps backfilled.
type LocationSource interface {
	Locations(ctx context.Context) ([]TrackedLocation, error)
}
