package weather

import "errors"

var (
	// ErrProviderUnavailable indicates a network failure or timeout while
	// talking to the forecast provider.
	ErrProviderUnavailable = errors.New("forecast provider unavailable")

	// ErrProviderBadResponse indicates the provider answered but the payload
	// was missing or malformed for the requested fields.
	ErrProviderBadResponse = errors.New("forecast provider returned a bad response")

	// ErrStoreUnavailable indicates the sample store could not serve a call.
	ErrStoreUnavailable = errors.New("sample store unavailable")

	// ErrDuplicateSample is returned by stores when an insert collides with
	// an existing (timestamp, location) pair.
	ErrDuplicateSample = errors.New("duplicate sample for timestamp and location")

	// ErrInvalidCoordinates is returned for coordinates outside
	// [-90,90] / [-180,180].
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrNoData indicates no samples exist for the requested location.
	ErrNoData = errors.New("no weather data for location")
)
