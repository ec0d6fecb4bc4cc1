package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ridewave/triad/internal/coordkey"
	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/xerrors"
)

// GeocodeResult is the address resolution spec.md §4.1 needs for a Snapshot.
type GeocodeResult struct {
	Timezone string `json:"timezone"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
}

// Geocoder reverse-geocodes a coordinate. Coordinate identity never
// changes, so results cache indefinitely (spec.md §4.4).
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *Cache
	logger     logger.Logger
	retry      *resilience.RetryConfig
}

// NewGeocoder constructs a Geocoder. baseURL defaults to the Google
// Geocoding API if empty.
func NewGeocoder(baseURL, apiKey string, cache *Cache, log logger.Logger) *Geocoder {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/geocode"
	}
	if log == nil {
		log = logger.NoOp{}
	}
	return &Geocoder{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     log,
		retry:      resilience.DefaultRetryConfig(),
	}
}

type geocodeAPIResponse struct {
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
	Status string `json:"status"`
}

// Resolve reverse-geocodes (lat, lng) into city/region/country. No
// time-zone lookup is made: Timezone is always "UTC".
// This is fatal to snapshot creation on failure (spec.md §4.1).
func (g *Geocoder) Resolve(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	key := coordkey.Of(lat, lng)

	var cached GeocodeResult
	if ok, err := g.cache.GetIndefinite(ctx, "geocode:"+key, &cached); err == nil && ok {
		return &cached, nil
	}

	var result *GeocodeResult
	err := resilience.Retry(ctx, g.retry, func() error {
		r, callErr := g.call(ctx, lat, lng)
		if callErr != nil {
			return callErr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.GeocodeFailed, "geocoder.resolve", "reverse geocode failed", err)
	}

	if g.cache != nil {
		_ = g.cache.PutIndefinite(ctx, "geocode:"+key, result)
	}
	return result, nil
}

func (g *Geocoder) call(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	u := fmt.Sprintf("%s/json?latlng=%f,%f&key=%s", g.baseURL, lat, lng, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode API status %d", resp.StatusCode)
	}

	var apiResp geocodeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Results) == 0 {
		return nil, fmt.Errorf("no geocode results for %f,%f", lat, lng)
	}

	result := &GeocodeResult{Timezone: "UTC"}
	for _, comp := range apiResp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				result.City = comp.LongName
			case "administrative_area_level_1":
				result.Region = comp.LongName
			case "country":
				// short_name is the ISO 3166-1 alpha-2 code; snapshot.Snapshot
				// stores country at rest in that form (see pkg/snapshot).
				result.Country = comp.ShortName
			}
		}
	}
	return result, nil
}
