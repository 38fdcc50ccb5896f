package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weatherlog/weatherlog/internal/weather"
)

// ErrNotFound is returned when a sample ID does not exist.
var ErrNotFound = errors.New("sample not found")

// DefaultBucketTolerance is the coordinate tolerance used to match a
// location bucket in queries and backfill counts (about 1 km).
const DefaultBucketTolerance = 0.01

// MemoryStore is a concurrency-safe in-memory weather.SampleStore. It
// enforces uniqueness on (timestamp, location) under its write lock, so two
// overlapping backfill passes cannot duplicate a record.
type MemoryStore struct {
	mu        sync.RWMutex
	samples   []weather.Sample
	tolerance float64
}

// NewMemoryStore creates a MemoryStore. A tolerance of 0 selects
// DefaultBucketTolerance.
func NewMemoryStore(tolerance float64) *MemoryStore {
	if tolerance <= 0 {
		tolerance = DefaultBucketTolerance
	}
	return &MemoryStore{tolerance: tolerance}
}

// Insert appends a sample, rejecting duplicates of (timestamp, location).
func (s *MemoryStore) Insert(_ context.Context, sample weather.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.samples {
		if samePoint(existing, sample.Timestamp, sample.Location) {
			return weather.ErrDuplicateSample
		}
	}
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	s.samples = append(s.samples, sample)
	return nil
}

// Exists reports whether a sample with the exact (timestamp, location) pair
// is stored.
func (s *MemoryStore) Exists(_ context.Context, ts time.Time, loc weather.Location) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.samples {
		if samePoint(existing, ts, loc) {
			return true, nil
		}
	}
	return false, nil
}

// ExistsNear reports whether any sample exists within the tolerance bucket
// around loc with a timestamp at or after since.
func (s *MemoryStore) ExistsNear(_ context.Context, loc weather.Location, tolerance float64, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.samples {
		if existing.Location.Near(loc, tolerance) && !existing.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// Count returns how many samples fall in the location bucket within
// [from, to] inclusive.
func (s *MemoryStore) Count(_ context.Context, loc weather.Location, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, existing := range s.samples {
		if !existing.Location.Near(loc, s.tolerance) {
			continue
		}
		if existing.Timestamp.Before(from) || existing.Timestamp.After(to) {
			continue
		}
		count++
	}
	return count, nil
}

// Query returns up to limit samples in the location bucket, newest first.
func (s *MemoryStore) Query(_ context.Context, loc weather.Location, limit int) ([]weather.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Sample
	for _, existing := range s.samples {
		if existing.Location.Near(loc, s.tolerance) {
			result = append(result, existing)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Delete removes a sample by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.samples {
		if existing.ID == id {
			s.samples = append(s.samples[:i], s.samples[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func samePoint(s weather.Sample, ts time.Time, loc weather.Location) bool {
	return s.Timestamp.Equal(ts) &&
		s.Location.Latitude == loc.Latitude &&
		s.Location.Longitude == loc.Longitude
}
