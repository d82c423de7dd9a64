package constants

// Centralized threshold values used across the application.
// Keep these stable; change deliberately and document why.
// These are not configuration knobs; use pkg/config for env-driven settings.

const (
	// Great-circle distance: spherical earth radius in miles, per the
	// distance_miles derivation from a configured home postcode.
	EarthRadiusMiles = 3958.7613

	// UK bounding box for coordinate validation.
	UKMinLatitude  = 49.0
	UKMaxLatitude  = 61.0
	UKMinLongitude = -11.0
	UKMaxLongitude = 2.0

	// Circuit breaker rate thresholds for outbound geocoder/extractor calls.
	CircuitFailureRate  = 0.6
	CircuitSlowCallRate = 0.7

	// Venue name normalization bounds.
	MaxVenueNameLength = 100

	// Canonical postcode length bounds (outward+space+inward).
	MinPostcodeLength = 5
	MaxPostcodeLength = 7

	// Retry policy for upstream HTTP 429/5xx per §7.
	MaxUpstreamRetries = 3
)
