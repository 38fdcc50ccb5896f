package config

import (
	"testing"
	"time"
)

func TestParseTrackedLocations(t *testing.T) {
	locs, err := parseTrackedLocations("paris@48.8566,2.3522; tokyo@35.6762,139.6503")
	if err != nil {
		t.Fatalf("parseTrackedLocations: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	if locs[0].Name != "paris" || locs[0].Location.Latitude != 48.8566 {
		t.Fatalf("unexpected first location: %+v", locs[0])
	}
	if locs[1].Name != "tokyo" || locs[1].Location.Longitude != 139.6503 {
		t.Fatalf("unexpected second location: %+v", locs[1])
	}
}

func TestParseTrackedLocationsDefaultsName(t *testing.T) {
	locs, err := parseTrackedLocations("51.5074,-0.1278")
	if err != nil {
		t.Fatalf("parseTrackedLocations: %v", err)
	}
	if len(locs) != 1 || locs[0].Name != "51.5074,-0.1278" {
		t.Fatalf("unexpected locations: %+v", locs)
	}
}

func TestParseTrackedLocationsEmpty(t *testing.T) {
	locs, err := parseTrackedLocations("   ")
	if err != nil {
		t.Fatalf("parseTrackedLocations: %v", err)
	}
	if locs != nil {
		t.Fatalf("expected nil for blank input, got %+v", locs)
	}
}

func TestParseTrackedLocationsRejectsBadEntries(t *testing.T) {
	for _, raw := range []string{
		"paris@48.8566",
		"paris@north,west",
		"paris@91,0",
		"paris@0,181",
	} {
		if _, err := parseTrackedLocations(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Fatalf("ProviderTimeout = %v, want 10s", cfg.ProviderTimeout)
	}
	if cfg.BackfillInterval != 6*time.Hour {
		t.Fatalf("BackfillInterval = %v, want 6h", cfg.BackfillInterval)
	}
	if cfg.BackfillStartupDelay != 30*time.Second {
		t.Fatalf("BackfillStartupDelay = %v, want 30s", cfg.BackfillStartupDelay)
	}
	if cfg.BackfillLookbackDays != 3 {
		t.Fatalf("BackfillLookbackDays = %d, want 3", cfg.BackfillLookbackDays)
	}
	if cfg.BackfillDensityThreshold != 0.5 {
		t.Fatalf("BackfillDensityThreshold = %v, want 0.5", cfg.BackfillDensityThreshold)
	}
	if cfg.InsightsWindow != 50 {
		t.Fatalf("InsightsWindow = %d, want 50", cfg.InsightsWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKFILL_LOOKBACK_DAYS", "7")
	t.Setenv("BACKFILL_DENSITY_THRESHOLD", "0.8")
	t.Setenv("LIVE_DEDUP_WINDOW", "45s")
	t.Setenv("TRACKED_LOCATIONS", "berlin@52.52,13.405")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.BackfillLookbackDays != 7 {
		t.Fatalf("BackfillLookbackDays = %d, want 7", cfg.BackfillLookbackDays)
	}
	if cfg.BackfillDensityThreshold != 0.8 {
		t.Fatalf("BackfillDensityThreshold = %v, want 0.8", cfg.BackfillDensityThreshold)
	}
	if cfg.LiveDedupWindow != 45*time.Second {
		t.Fatalf("LiveDedupWindow = %v, want 45s", cfg.LiveDedupWindow)
	}
	if len(cfg.TrackedLocations) != 1 || cfg.TrackedLocations[0].Name != "berlin" {
		t.Fatalf("unexpected tracked locations: %+v", cfg.TrackedLocations)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("BACKFILL_INTERVAL", "six hours")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
