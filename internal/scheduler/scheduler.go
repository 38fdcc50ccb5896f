package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/weatherlog/weatherlog/internal/weather"
)

// BackfillRunner is the slice of the weather service the scheduler drives.
type BackfillRunner interface {
	EnsureHistoricalData(ctx context.Context, loc weather.Location, lookbackDays int) (weather.BackfillResult, error)
}

// Scheduler keeps every tracked location backfilled: one pass shortly after
// startup, then one pass on a fixed interval.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	runner       BackfillRunner
	locations    weather.LocationSource
	interval     time.Duration
	startupDelay time.Duration
	lookbackDays int
	passTimeout  time.Duration
	startupTimer *time.Timer
}

// New creates a Scheduler. Zero interval, delay or lookback select the
// defaults (6h, 30s, 3 days).
func New(runner BackfillRunner, locations weather.LocationSource, interval, startupDelay time.Duration, lookbackDays int) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if startupDelay <= 0 {
		startupDelay = 30 * time.Second
	}
	if lookbackDays <= 0 {
		lookbackDays = 3
	}
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		runner:       runner,
		locations:    locations,
		interval:     interval,
		startupDelay: startupDelay,
		lookbackDays: lookbackDays,
		passTimeout:  2 * time.Minute,
	}
}

// Start schedules the interval job and arms the startup pass.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.RunPass); err != nil {
		return err
	}
	s.scheduler.StartAsync()

	s.startupTimer = time.AfterFunc(s.startupDelay, func() {
		log.Println("scheduler: running startup backfill pass")
		s.RunPass()
	})
	return nil
}

// Stop cancels the startup timer and the interval job.
func (s *Scheduler) Stop() {
	if s.startupTimer != nil {
		s.startupTimer.Stop()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunPass backfills every tracked location sequentially. A failure for one
// location is logged and does not halt the pass.
func (s *Scheduler) RunPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.passTimeout)
	defer cancel()

	locations, err := s.locations.Locations(ctx)
	if err != nil {
		log.Printf("scheduler: listing tracked locations failed: %v", err)
		return
	}
	if len(locations) == 0 {
		log.Println("scheduler: no tracked locations; nothing to backfill")
		return
	}

	log.Printf("scheduler: running backfill pass over %d location(s)", len(locations))
	for _, tracked := range locations {
		res, err := s.runner.EnsureHistoricalData(ctx, tracked.Location, s.lookbackDays)
		if err != nil {
			log.Printf("scheduler: backfill failed for %s: %v", tracked.Name, err)
			continue
		}
		if res.Created > 0 || res.Skipped > 0 {
			log.Printf("scheduler: backfill for %s created=%d skipped=%d",
				tracked.Name, res.Created, res.Skipped)
		}
	}
	log.Println("scheduler: completed backfill pass")
}
