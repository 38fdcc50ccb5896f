package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig bundles the heuristic constants of the recording pipeline.
// Zero values select the defaults preserved from the original deployment.
type ServiceConfig struct {
	// InsightsWindow is the default number of samples fed to insights.
	InsightsWindow int

	// LookbackDays is the backfill window for request-triggered passes.
	LookbackDays int

	// LiveDedupTolerance and LiveDedupWindow suppress near-duplicate live
	// captures: a new reading is dropped when another sample exists within
	// the tolerance bucket and the time window.
	LiveDedupTolerance float64
	LiveDedupWindow    time.Duration

	// BackfillTimeout bounds fire-and-forget backfill passes.
	BackfillTimeout time.Duration
}

func (c *ServiceConfig) applyDefaults() {
	if c.InsightsWindow <= 0 {
		c.InsightsWindow = 50
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 3
	}
	if c.LiveDedupTolerance <= 0 {
		c.LiveDedupTolerance = 0.001
	}
	if c.LiveDedupWindow <= 0 {
		c.LiveDedupWindow = 30 * time.Second
	}
	if c.BackfillTimeout <= 0 {
		c.BackfillTimeout = 2 * time.Minute
	}
}

// Service orchestrates live capture, backfill and insights over the store.
type Service struct {
	store    SampleStore
	provider ForecastProvider
	backfill *BackfillEngine
	cfg      ServiceConfig
}

// NewService creates a Service.
func NewService(store SampleStore, provider ForecastProvider, backfill *BackfillEngine, cfg ServiceConfig) *Service {
	cfg.applyDefaults()
	return &Service{
		store:    store,
		provider: provider,
		backfill: backfill,
		cfg:      cfg,
	}
}

// GenerateInsights loads the sample window for the location bucket and runs
// the analytics over it. limit <= 0 selects the configured default window.
func (s *Service) GenerateInsights(ctx context.Context, loc Location, limit int, live *Sample) (InsightsResult, error) {
	if !loc.Valid() {
		return InsightsResult{}, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}
	if limit <= 0 {
		limit = s.cfg.InsightsWindow
	}

	samples, err := s.store.Query(ctx, loc, limit)
	if err != nil {
		return InsightsResult{}, fmt.Errorf("querying samples: %w", err)
	}
	return GenerateInsights(samples, live), nil
}

// FetchCurrent retrieves a live observation from the provider. When save is
// set, the sample is persisted unless a near-duplicate was captured within
// the dedup window.
func (s *Service) FetchCurrent(ctx context.Context, loc Location, save bool) (Sample, error) {
	if !loc.Valid() {
		return Sample{}, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}

	sample, err := s.provider.FetchCurrent(ctx, loc)
	if err != nil {
		return Sample{}, err
	}

	if save {
		if _, err := s.SaveSample(ctx, sample); err != nil {
			log.Printf("service: saving live sample for %.4f,%.4f failed: %v",
				loc.Latitude, loc.Longitude, err)
		}
	}
	return sample, nil
}

// SaveSample persists an observation, suppressing near-duplicate captures.
// It reports whether the sample was stored.
func (s *Service) SaveSample(ctx context.Context, sample Sample) (bool, error) {
	if !sample.Location.Valid() {
		return false, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates,
			sample.Location.Latitude, sample.Location.Longitude)
	}

	since := sample.Timestamp.Add(-s.cfg.LiveDedupWindow)
	dup, err := s.store.ExistsNear(ctx, sample.Location, s.cfg.LiveDedupTolerance, since)
	if err != nil {
		return false, fmt.Errorf("checking for recent sample: %w", err)
	}
	if dup {
		return false, nil
	}

	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	if err := s.store.Insert(ctx, sample); err != nil {
		return false, fmt.Errorf("inserting sample: %w", err)
	}
	return true, nil
}

// EnsureHistoricalData runs a synchronous backfill pass for the location.
func (s *Service) EnsureHistoricalData(ctx context.Context, loc Location, lookbackDays int) (BackfillResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.LookbackDays
	}
	return s.backfill.EnsureHistoricalData(ctx, loc, lookbackDays)
}

// EnsureHistoricalDataAsync triggers a backfill pass without blocking the
// caller. Failures are logged, never surfaced to request paths.
func (s *Service) EnsureHistoricalDataAsync(loc Location, lookbackDays int) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.LookbackDays
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BackfillTimeout)
		defer cancel()

		res, err := s.backfill.EnsureHistoricalData(ctx, loc, lookbackDays)
		if err != nil {
			log.Printf("service: background backfill failed for %.4f,%.4f: %v",
				loc.Latitude, loc.Longitude, err)
			return
		}
		if res.Created > 0 || res.Skipped > 0 {
			log.Printf("service: background backfill for %.4f,%.4f created=%d skipped=%d",
				loc.Latitude, loc.Longitude, res.Created, res.Skipped)
		}
	}()
}

// Logs returns the most recent samples for the location bucket.
func (s *Service) Logs(ctx context.Context, loc Location, limit int) ([]Sample, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: %.4f,%.4f", ErrInvalidCoordinates, loc.Latitude, loc.Longitude)
	}
	if limit <= 0 {
		limit = s.cfg.InsightsWindow
	}
	return s.store.Query(ctx, loc, limit)
}

// Latest returns the newest sample for the location bucket.
func (s *Service) Latest(ctx context.Context, loc Location) (Sample, error) {
	samples, err := s.Logs(ctx, loc, 1)
	if err != nil {
		return Sample{}, err
	}
	if len(samples) == 0 {
		return Sample{}, ErrNoData
	}
	return samples[0], nil
}

// DeleteLog removes a sample by ID. Administrative path only.
func (s *Service) DeleteLog(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
