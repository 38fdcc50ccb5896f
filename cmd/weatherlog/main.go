package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	httpapi "github.com/weatherlog/weatherlog/internal/api/http"
	"github.com/weatherlog/weatherlog/internal/config"
	"github.com/weatherlog/weatherlog/internal/geo"
	"github.com/weatherlog/weatherlog/internal/ingest"
	"github.com/weatherlog/weatherlog/internal/scheduler"
	"github.com/weatherlog/weatherlog/internal/store"
	"github.com/weatherlog/weatherlog/internal/weather"
	"github.com/weatherlog/weatherlog/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	// Sample store: Mongo when configured, in-memory otherwise.
	var sampleStore weather.SampleStore
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			cancel()
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		mongoStore, err := store.NewMongoStore(connectCtx, client, cfg.MongoDatabase, cfg.BucketTolerance)
		cancel()
		if err != nil {
			log.Fatalf("failed to initialize mongo store: %v", err)
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Printf("error disconnecting mongo: %v", err)
			}
		}()
		sampleStore = mongoStore
	} else {
		log.Println("INFO: MONGO_URI not set; using ephemeral in-memory store")
		sampleStore = store.NewMemoryStore(cfg.BucketTolerance)
	}

	provider := providers.NewOpenMeteoProvider(httpClient)
	engine := weather.NewBackfillEngine(sampleStore, provider, cfg.BackfillDensityThreshold)
	service := weather.NewService(sampleStore, provider, engine, weather.ServiceConfig{
		InsightsWindow:     cfg.InsightsWindow,
		LookbackDays:       cfg.BackfillLookbackDays,
		LiveDedupTolerance: cfg.LiveDedupTolerance,
		LiveDedupWindow:    cfg.LiveDedupWindow,
	})

	// Scheduler driving backfill passes over the tracked locations.
	sched := scheduler.New(service, cfg.TrackedLocations,
		cfg.BackfillInterval, cfg.BackfillStartupDelay, cfg.BackfillLookbackDays)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Optional queue consumer for externally collected samples.
	if cfg.RabbitMQURL != "" {
		consumer, err := ingest.New(cfg.RabbitMQURL, cfg.QueueName, service)
		if err != nil {
			log.Fatalf("failed to create ingest consumer: %v", err)
		}
		defer consumer.Close()
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("failed to start ingest consumer: %v", err)
		}
	}

	resolver := geo.NewResolver(cfg.GeocoderAPIKey)

	app := fiber.New(fiber.Config{
		AppName:               "weatherlog",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherlog",
		})
	})

	httpapi.RegisterRoutes(app, service, resolver)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
