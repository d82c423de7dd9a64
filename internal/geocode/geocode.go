// Package geocode resolves venue coordinates through the five-step cascade:
// venue cache, parser-provided coordinates, primary postcode service,
// historic postcode service, and a generic geocoder fallback. Each remote
// step is wrapped in its own circuit breaker and is rate-limited per host.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	gmaps "googlemaps.github.io/maps"

	"eventscout/internal/constants"
	"eventscout/internal/domain"
	"eventscout/internal/normalize"
	"eventscout/pkg/circuit"
	errs "eventscout/pkg/errors"
	"eventscout/pkg/logging"
	"eventscout/pkg/ratelimit"
)

// Config carries the endpoints and credentials the cascade needs.
type Config struct {
	PrimaryPostcodeURL  string // e.g. a UK postcode directory, %s = postcode
	HistoricPostcodeURL string // terminated/historic postcode endpoint, %s = postcode
	GenericGeocoderKey  string // Google Maps API key for the fallback step
	HomeLatitude        float64
	HomeLongitude       float64
}

// Cascade implements the geocoder described in SPEC_FULL.md §4.4.
type Cascade struct {
	cfg Config
	log *logging.Logger

	httpClient *http.Client
	mapsClient *gmaps.Client

	limiter *ratelimit.PerHost

	cbPrimary  *circuit.Breaker
	cbHistoric *circuit.Breaker
	cbGeneric  *circuit.Breaker

	homeMu  sync.RWMutex
	homeLat float64
	homeLng float64
}

// New constructs a Cascade. mapsClient may be nil when no Google Maps API
// key is configured, in which case step 5 is always a miss.
func New(cfg Config, limiter *ratelimit.PerHost, log *logging.Logger) (*Cascade, error) {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = constants.MaxUpstreamRetries

	var mapsClient *gmaps.Client
	if cfg.GenericGeocoderKey != "" {
		c, err := gmaps.NewClient(gmaps.WithAPIKey(cfg.GenericGeocoderKey))
		if err != nil {
			return nil, errs.NewExternal("geocode.New", "generic-geocoder", "failed to construct maps client", err)
		}
		mapsClient = c
	}

	return &Cascade{
		cfg:        cfg,
		log:        log,
		httpClient: rc.StandardClient(),
		mapsClient: mapsClient,
		limiter:    limiter,
		homeLat:    cfg.HomeLatitude,
		homeLng:    cfg.HomeLongitude,
		cbPrimary: circuit.New(circuit.Config{
			Name:              "geocoder-primary",
			OperationTimeout:  constants.GeocoderOperationTimeout,
			OpenFor:           constants.GeocoderOpenFor,
			WindowSize:        20,
			FailureRate:       constants.CircuitFailureRate,
			SlowCallThreshold: constants.GeocoderSlowCallThreshold,
			SlowCallRate:      constants.CircuitSlowCallRate,
		}, log),
		cbHistoric: circuit.New(circuit.Config{
			Name:              "geocoder-fallback",
			OperationTimeout:  constants.GeocoderOperationTimeout,
			OpenFor:           constants.GeocoderOpenFor,
			WindowSize:        20,
			FailureRate:       constants.CircuitFailureRate,
			SlowCallThreshold: constants.GeocoderSlowCallThreshold,
			SlowCallRate:      constants.CircuitSlowCallRate,
		}, log),
		cbGeneric: circuit.New(circuit.Config{
			Name:              "generic-geocoder",
			OperationTimeout:  constants.GeocoderOperationTimeout,
			OpenFor:           constants.GeocoderOpenFor,
			WindowSize:        20,
			FailureRate:       constants.CircuitFailureRate,
			SlowCallThreshold: constants.GeocoderSlowCallThreshold,
			SlowCallRate:      constants.CircuitSlowCallRate,
		}, log),
	}, nil
}

// Result is a resolved coordinate pair plus the derived distance.
type Result struct {
	Latitude      float64
	Longitude     float64
	DistanceMiles float64
}

// Resolve runs the five-step cascade for one venue. parserLat/parserLng are
// the optional coordinates the parser extracted directly from the source
// page. Returns ok=false when every step misses; the venue is left
// coordinate-less and retried on the next scan.
func (c *Cascade) Resolve(ctx context.Context, v *domain.Venue, parserLat, parserLng *float64, postcode string) (Result, bool) {
	if v.HasCoordinates() {
		return c.result(*v.Latitude, *v.Longitude), true
	}

	if parserLat != nil && parserLng != nil && normalize.InUKBox(*parserLat, *parserLng) {
		return c.result(*parserLat, *parserLng), true
	}

	if postcode != "" {
		if res, ok := c.lookupPostcode(ctx, c.cbPrimary, c.cfg.PrimaryPostcodeURL, postcode); ok {
			return res, true
		}
		if res, ok := c.lookupPostcode(ctx, c.cbHistoric, c.cfg.HistoricPostcodeURL, postcode); ok {
			return res, true
		}
	}

	if res, ok := c.lookupGeneric(ctx, v.CanonicalName, postcode); ok {
		return res, true
	}

	return Result{}, false
}

type postcodeResponse struct {
	Status int `json:"status"`
	Result struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
}

func (c *Cascade) lookupPostcode(ctx context.Context, cb *circuit.Breaker, urlTemplate, postcode string) (Result, bool) {
	if urlTemplate == "" {
		return Result{}, false
	}
	host := hostOf(urlTemplate)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			return Result{}, false
		}
	}

	var body postcodeResponse
	err := cb.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(urlTemplate, postcode), nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("postcode lookup: upstream status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return errMiss
		}
		return json.NewDecoder(resp.Body).Decode(&body)
	}, nil)

	if err != nil {
		if c.log != nil && err != errMiss {
			c.log.WithComponent("geocode").Warn("postcode lookup failed", logging.String("postcode", postcode), logging.Error(err))
		}
		return Result{}, false
	}
	if !normalize.InUKBox(body.Result.Latitude, body.Result.Longitude) {
		return Result{}, false
	}
	return c.result(body.Result.Latitude, body.Result.Longitude), true
}

// GeocodePostcode resolves a postcode to coordinates through the same
// primary/historic postcode cascade used for venues. Used to resolve a new
// home postcode itself when it changes through the read API.
func (c *Cascade) GeocodePostcode(ctx context.Context, postcode string) (lat, lng float64, ok bool) {
	if res, ok := c.lookupPostcode(ctx, c.cbPrimary, c.cfg.PrimaryPostcodeURL, postcode); ok {
		return res.Latitude, res.Longitude, true
	}
	if res, ok := c.lookupPostcode(ctx, c.cbHistoric, c.cfg.HistoricPostcodeURL, postcode); ok {
		return res.Latitude, res.Longitude, true
	}
	return 0, 0, false
}

// errMiss signals "treated as a miss, not a fatal error" per §4.4's
// backpressure rule — a non-200 response is a miss, never propagated.
var errMiss = fmt.Errorf("geocode: miss")

func (c *Cascade) lookupGeneric(ctx context.Context, venueName, postcode string) (Result, bool) {
	if c.mapsClient == nil {
		return Result{}, false
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "maps.googleapis.com"); err != nil {
			return Result{}, false
		}
	}

	query := venueName
	if postcode != "" {
		query = venueName + ", " + postcode + ", UK"
	} else {
		query = venueName + ", UK"
	}

	var resp []gmaps.GeocodingResult
	err := c.cbGeneric.Do(ctx, func(ctx context.Context) error {
		r, e := c.mapsClient.Geocode(ctx, &gmaps.GeocodingRequest{Address: query})
		if e != nil {
			return e
		}
		resp = r
		return nil
	}, nil)

	if err != nil || len(resp) == 0 {
		if c.log != nil && err != nil {
			c.log.WithComponent("geocode").Warn("generic geocoder miss", logging.String("venue", venueName), logging.Error(err))
		}
		return Result{}, false
	}

	loc := resp[0].Geometry.Location
	if !normalize.InUKBox(loc.Lat, loc.Lng) {
		return Result{}, false
	}
	return c.result(loc.Lat, loc.Lng), true
}

func (c *Cascade) result(lat, lng float64) Result {
	c.homeMu.RLock()
	homeLat, homeLng := c.homeLat, c.homeLng
	c.homeMu.RUnlock()
	return Result{Latitude: lat, Longitude: lng, DistanceMiles: GreatCircleMiles(homeLat, homeLng, lat, lng)}
}

// SetHome updates the home coordinates used to derive DistanceMiles for
// every subsequent Resolve call. Called when the home postcode changes
// through the read API (SPEC_FULL.md §4.10).
func (c *Cascade) SetHome(lat, lng float64) {
	c.homeMu.Lock()
	c.homeLat, c.homeLng = lat, lng
	c.homeMu.Unlock()
}

// Home returns the coordinates currently used as the distance origin.
func (c *Cascade) Home() (lat, lng float64) {
	c.homeMu.RLock()
	defer c.homeMu.RUnlock()
	return c.homeLat, c.homeLng
}

// GreatCircleMiles computes the great-circle distance between two
// latitude/longitude pairs, in miles, using the spherical Earth radius from
// constants.EarthRadiusMiles.
func GreatCircleMiles(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	d := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return constants.EarthRadiusMiles * d
}

func hostOf(urlTemplate string) string {
	// urlTemplate is a format string like "https://api.postcodes.io/postcodes/%s";
	// the host is stable across calls, so a cheap scan is sufficient.
	start := 0
	for i := 0; i < len(urlTemplate)-2; i++ {
		if urlTemplate[i] == '/' && urlTemplate[i+1] == '/' {
			start = i + 2
			break
		}
	}
	end := len(urlTemplate)
	for i := start; i < len(urlTemplate); i++ {
		if urlTemplate[i] == '/' {
			end = i
			break
		}
	}
	if start >= end {
		return urlTemplate
	}
	return urlTemplate[start:end]
}
