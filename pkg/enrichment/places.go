package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/xerrors"
)

// PlaceMetadata is the venue-identity data enrichment attaches to a
// candidate venue (spec.md §4.4). Place identity never changes, so it
// caches indefinitely, but BusinessHours is looked up separately with a
// 24h TTL since operating hours do change.
type PlaceMetadata struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// BusinessHours is the time-sensitive half of place enrichment, cached
// with a 24h TTL and a cached_at staleness check (spec.md §4.4).
type BusinessHours struct {
	OpenNow    bool     `json:"open_now"`
	WeekdayRaw []string `json:"weekday_text"`
}

const businessHoursTTL = 24 * time.Hour
const businessHoursMaxAge = 6 * time.Hour

// PlacesClient resolves venue identity and business hours.
type PlacesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *Cache
	logger     logger.Logger
	retry      *resilience.RetryConfig
}

// NewPlacesClient constructs a PlacesClient.
func NewPlacesClient(baseURL, apiKey string, cache *Cache, log logger.Logger) *PlacesClient {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	if log == nil {
		log = logger.NoOp{}
	}
	return &PlacesClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     log,
		retry:      resilience.DefaultRetryConfig(),
	}
}

type placeDetailsResponse struct {
	Result struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours struct {
			OpenNow    bool     `json:"open_now"`
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
	Status string `json:"status"`
}

// Identity fetches venue identity metadata, cached indefinitely by
// place ID (spec.md §4.4: "place identity never changes").
func (p *PlacesClient) Identity(ctx context.Context, placeID string) (*PlaceMetadata, error) {
	var cached PlaceMetadata
	if ok, err := p.cache.GetIndefinite(ctx, "place_identity:"+placeID, &cached); err == nil && ok {
		return &cached, nil
	}

	var meta *PlaceMetadata
	err := resilience.Retry(ctx, p.retry, func() error {
		resp, callErr := p.fetchDetails(ctx, placeID)
		if callErr != nil {
			return callErr
		}
		meta = &PlaceMetadata{
			PlaceID: placeID,
			Name:    resp.Result.Name,
			Address: resp.Result.FormattedAddress,
			Lat:     resp.Result.Geometry.Location.Lat,
			Lng:     resp.Result.Geometry.Location.Lng,
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.EnrichmentFailed, "places.identity", "place details lookup failed", err)
	}

	if p.cache != nil {
		_ = p.cache.PutIndefinite(ctx, "place_identity:"+placeID, meta)
	}
	return meta, nil
}

// Hours fetches current business hours, cached with a 24h TTL; a stale
// entry is still returned but flagged so the Orchestrator can decide
// whether to refresh in the background (spec.md §4.4).
func (p *PlacesClient) Hours(ctx context.Context, placeID string) (*BusinessHours, bool, error) {
	var cached BusinessHours
	ok, stale, err := p.cache.GetFresh(ctx, "place_hours:"+placeID, businessHoursMaxAge, &cached)
	if err == nil && ok {
		return &cached, stale, nil
	}

	var hours *BusinessHours
	retryErr := resilience.Retry(ctx, p.retry, func() error {
		resp, callErr := p.fetchDetails(ctx, placeID)
		if callErr != nil {
			return callErr
		}
		hours = &BusinessHours{
			OpenNow:    resp.Result.OpeningHours.OpenNow,
			WeekdayRaw: resp.Result.OpeningHours.WeekdayText,
		}
		return nil
	})
	if retryErr != nil {
		return nil, false, xerrors.Wrap(xerrors.EnrichmentFailed, "places.hours", "business hours lookup failed", retryErr)
	}

	if p.cache != nil {
		_ = p.cache.PutFresh(ctx, "place_hours:"+placeID, businessHoursTTL, hours)
	}
	return hours, false, nil
}

func (p *PlacesClient) fetchDetails(ctx context.Context, placeID string) (*placeDetailsResponse, error) {
	u := fmt.Sprintf("%s/details/json?place_id=%s&key=%s", p.baseURL, placeID, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API status %d", resp.StatusCode)
	}

	var out placeDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
