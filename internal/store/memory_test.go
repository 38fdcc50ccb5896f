package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/weatherlog/weatherlog/internal/weather"
)

var testLoc = weather.Location{Latitude: 48.8566, Longitude: 2.3522}

func testSample(id string, ts time.Time, loc weather.Location) weather.Sample {
	return weather.Sample{
		ID:        id,
		Timestamp: ts,
		Location:  loc,
		Current:   weather.CurrentConditions{Temperature: 20, Condition: "clear"},
	}
}

func TestMemoryStoreRejectsDuplicatePoint(t *testing.T) {
	s := NewMemoryStore(0)
	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Insert(context.Background(), testSample("a", ts, testLoc)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := s.Insert(context.Background(), testSample("b", ts, testLoc))
	if !errors.Is(err, weather.ErrDuplicateSample) {
		t.Fatalf("expected ErrDuplicateSample, got %v", err)
	}

	count, _ := s.Count(context.Background(), testLoc, ts.Add(-time.Hour), ts.Add(time.Hour))
	if count != 1 {
		t.Fatalf("store holds %d samples, want 1", count)
	}
}

func TestMemoryStoreBucketMatching(t *testing.T) {
	s := NewMemoryStore(0.01)
	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	inside := testLoc
	inside.Latitude += 0.005
	outside := testLoc
	outside.Latitude += 0.02

	if err := s.Insert(context.Background(), testSample("in", ts, inside)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Insert(context.Background(), testSample("out", ts, outside)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	samples, err := s.Query(context.Background(), testLoc, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(samples) != 1 || samples[0].ID != "in" {
		t.Fatalf("bucket query returned %+v, want only the in-bucket sample", samples)
	}
}

func TestMemoryStoreQueryOrderAndLimit(t *testing.T) {
	s := NewMemoryStore(0)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order.
	for _, hour := range []int{2, 0, 4, 1, 3} {
		sample := testSample("", base.Add(time.Duration(hour)*time.Hour), testLoc)
		if err := s.Insert(context.Background(), sample); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	samples, err := s.Query(context.Background(), testLoc, 3)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.After(samples[i-1].Timestamp) {
			t.Fatalf("samples not ordered newest first: %v", samples)
		}
	}
	if !samples[0].Timestamp.Equal(base.Add(4 * time.Hour)) {
		t.Fatalf("newest sample is %v, want hour 4", samples[0].Timestamp)
	}
}

func TestMemoryStoreExistsNearWindow(t *testing.T) {
	s := NewMemoryStore(0)
	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Insert(context.Background(), testSample("a", ts, testLoc)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	near := testLoc
	near.Longitude += 0.0004

	ok, _ := s.ExistsNear(context.Background(), near, 0.001, ts.Add(-30*time.Second))
	if !ok {
		t.Fatal("sample inside tolerance and window must be found")
	}
	ok, _ = s.ExistsNear(context.Background(), near, 0.001, ts.Add(time.Second))
	if ok {
		t.Fatal("sample older than the window must not match")
	}
	far := testLoc
	far.Longitude += 0.1
	ok, _ = s.ExistsNear(context.Background(), far, 0.001, ts.Add(-30*time.Second))
	if ok {
		t.Fatal("sample outside tolerance must not match")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(0)
	ts := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Insert(context.Background(), testSample("victim", ts, testLoc)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := s.Delete(context.Background(), "victim"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(context.Background(), "victim"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
