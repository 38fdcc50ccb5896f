// Package geo is a thin wrapper over the external reverse-geocoding API.
package geo

import (
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/weatherlog/weatherlog/internal/weather"
)

// ErrNotConfigured is returned when no geocoder API key was provided.
var ErrNotConfigured = errors.New("geocoder api key not configured")

// Place is a resolved human-readable location.
type Place struct {
	City             string `json:"city"`
	State            string `json:"state"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formattedAddress"`
}

// Resolver reverse-geocodes coordinates into place names.
type Resolver struct {
	configured bool
}

// NewResolver sets the geocoder API key. An empty key yields a resolver
// that always reports ErrNotConfigured.
func NewResolver(apiKey string) *Resolver {
	if apiKey == "" {
		return &Resolver{}
	}
	geocoder.ApiKey = apiKey
	return &Resolver{configured: true}
}

// Reverse resolves the place for a location.
func (r *Resolver) Reverse(loc weather.Location) (Place, error) {
	if !r.configured {
		return Place{}, ErrNotConfigured
	}

	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocoding %.4f,%.4f: %w", loc.Latitude, loc.Longitude, err)
	}
	if len(addresses) == 0 {
		return Place{}, fmt.Errorf("no address found for %.4f,%.4f", loc.Latitude, loc.Longitude)
	}

	addr := addresses[0]
	return Place{
		City:             addr.City,
		State:            addr.State,
		Country:          addr.Country,
		FormattedAddress: addr.FormattedAddress,
	}, nil
}
