package httpapi

import (
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/weatherlog/weatherlog/internal/geo"
	"github.com/weatherlog/weatherlog/internal/store"
	"github.com/weatherlog/weatherlog/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, resolver *geo.Resolver) {
	v1 := app.Group("/api/v1/weather")

	v1.Get("/insights", func(c *fiber.Ctx) error {
		q, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc := q.toLocation()
		limit := c.QueryInt("limit", 0)

		// Top up history opportunistically; the response never waits on it.
		service.EnsureHistoricalDataAsync(loc, 0)

		var live *weather.Sample
		if c.QueryBool("live", false) {
			sample, err := service.FetchCurrent(c.Context(), loc, true)
			if err != nil {
				log.Printf("api: live reading unavailable for insights: %v", err)
			} else {
				live = &sample
			}
		}

		result, err := service.GenerateInsights(c.Context(), loc, limit, live)
		if err != nil {
			return mapWeatherError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/current", func(c *fiber.Ctx) error {
		q, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sample, err := service.FetchCurrent(c.Context(), q.toLocation(), c.QueryBool("save", false))
		if err != nil {
			return mapWeatherError(err)
		}
		return c.JSON(sample)
	})

	v1.Get("/logs", func(c *fiber.Ctx) error {
		q, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		samples, err := service.Logs(c.Context(), q.toLocation(), c.QueryInt("limit", 0))
		if err != nil {
			return mapWeatherError(err)
		}
		if samples == nil {
			samples = []weather.Sample{}
		}
		return c.JSON(fiber.Map{"data": samples, "count": len(samples)})
	})

	v1.Get("/logs/latest", func(c *fiber.Ctx) error {
		q, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sample, err := service.Latest(c.Context(), q.toLocation())
		if err != nil {
			return mapWeatherError(err)
		}
		return c.JSON(sample)
	})

	v1.Post("/logs", func(c *fiber.Ctx) error {
		var sample weather.Sample
		if err := c.BodyParser(&sample); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid sample payload")
		}
		if sample.Timestamp.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "timestamp is required")
		}

		stored, err := service.SaveSample(c.Context(), sample)
		if err != nil {
			return mapWeatherError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"stored": stored})
	})

	v1.Delete("/logs/:id", func(c *fiber.Ctx) error {
		if err := service.DeleteLog(c.Context(), c.Params("id")); err != nil {
			return mapWeatherError(err)
		}
		return c.JSON(fiber.Map{"message": "weather log deleted"})
	})

	v1.Get("/location", func(c *fiber.Ctx) error {
		q, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		place, err := resolver.Reverse(q.toLocation())
		if err != nil {
			if errors.Is(err, geo.ErrNotConfigured) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "reverse geocoding is not configured")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to resolve location")
		}
		return c.JSON(place)
	})
}

// coordsQuery holds the validated coordinate query parameters.
type coordsQuery struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

func (q coordsQuery) toLocation() weather.Location {
	return weather.Location{Latitude: q.Latitude, Longitude: q.Longitude}
}

func parseCoords(c *fiber.Ctx) (coordsQuery, error) {
	var q coordsQuery

	latStr := c.Query("latitude")
	lonStr := c.Query("longitude")
	if latStr == "" || lonStr == "" {
		return q, errors.New("latitude and longitude query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return q, errors.New("latitude must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return q, errors.New("longitude must be a number")
	}

	q.Latitude = lat
	q.Longitude = lon
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// mapWeatherError translates core error kinds to HTTP statuses.
func mapWeatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidCoordinates):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusGatewayTimeout, "weather provider unavailable")
	case errors.Is(err, weather.ErrProviderBadResponse):
		return fiber.NewError(fiber.StatusBadGateway, "weather provider returned invalid data")
	case errors.Is(err, weather.ErrNoData), errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
	case errors.Is(err, weather.ErrDuplicateSample):
		return fiber.NewError(fiber.StatusConflict, "sample already recorded for this timestamp and location")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
