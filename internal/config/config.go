package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/weatherlog/weatherlog/internal/weather"
)

// AppConfig holds all runtime options. The backfill and dedup heuristics
// are plain fields so deployments can tune them without code changes.
type AppConfig struct {
	Port string

	// MongoURI selects the durable store; empty falls back to the
	// in-memory store.
	MongoURI      string
	MongoDatabase string

	// RabbitMQURL enables the sample ingest consumer; empty disables it.
	RabbitMQURL string
	QueueName   string

	GeocoderAPIKey string

	ProviderTimeout time.Duration

	BackfillInterval         time.Duration
	BackfillStartupDelay     time.Duration
	BackfillLookbackDays     int
	BackfillDensityThreshold float64

	BucketTolerance    float64
	LiveDedupTolerance float64
	LiveDedupWindow    time.Duration

	InsightsWindow int

	TrackedLocations StaticLocations
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:           getenvDefault("PORT", "8080"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getenvDefault("MONGO_DATABASE", "weatherlog"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		QueueName:      getenvDefault("QUEUE_NAME", "weather_data"),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),

		BackfillLookbackDays:     getenvInt("BACKFILL_LOOKBACK_DAYS", 3),
		BackfillDensityThreshold: getenvFloat("BACKFILL_DENSITY_THRESHOLD", 0.5),
		BucketTolerance:          getenvFloat("LOCATION_BUCKET_TOLERANCE", 0.01),
		LiveDedupTolerance:       getenvFloat("LIVE_DEDUP_TOLERANCE", 0.001),
		InsightsWindow:           getenvInt("INSIGHTS_WINDOW", 50),
	}

	var err error
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BackfillInterval, err = getenvDuration("BACKFILL_INTERVAL", "6h"); err != nil {
		return nil, err
	}
	if cfg.BackfillStartupDelay, err = getenvDuration("BACKFILL_STARTUP_DELAY", "30s"); err != nil {
		return nil, err
	}
	if cfg.LiveDedupWindow, err = getenvDuration("LIVE_DEDUP_WINDOW", "30s"); err != nil {
		return nil, err
	}

	locs, err := parseTrackedLocations(os.Getenv("TRACKED_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.TrackedLocations = locs

	return cfg, nil
}

// StaticLocations is a config-backed weather.LocationSource.
type StaticLocations []weather.TrackedLocation

// Locations returns the configured locations.
func (s StaticLocations) Locations(_ context.Context) ([]weather.TrackedLocation, error) {
	return s, nil
}

// parseTrackedLocations parses "name@lat,lon;name@lat,lon".
func parseTrackedLocations(raw string) (StaticLocations, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var locs StaticLocations
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name := ""
		coords := entry
		if at := strings.Index(entry, "@"); at >= 0 {
			name = strings.TrimSpace(entry[:at])
			coords = entry[at+1:]
		}

		parts := strings.Split(coords, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid TRACKED_LOCATIONS entry %q", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in TRACKED_LOCATIONS entry %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in TRACKED_LOCATIONS entry %q: %w", entry, err)
		}

		loc := weather.Location{Latitude: lat, Longitude: lon}
		if !loc.Valid() {
			return nil, fmt.Errorf("coordinates out of range in TRACKED_LOCATIONS entry %q", entry)
		}
		if name == "" {
			name = fmt.Sprintf("%.4f,%.4f", lat, lon)
		}
		locs = append(locs, weather.TrackedLocation{Name: name, Location: loc})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
