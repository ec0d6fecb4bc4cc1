package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/xerrors"
)

// RouteEstimate is the traffic-aware travel estimate between the driver's
// current position and a candidate venue (spec.md §4.4).
type RouteEstimate struct {
	DurationSeconds int     `json:"duration_seconds"`
	DistanceMeters  int     `json:"distance_meters"`
	TrafficDelaySec int     `json:"traffic_delay_seconds"`
}

const routeMatrixTTL = 24 * time.Hour
const routeMatrixMaxAge = 10 * time.Minute

// RoutesClient computes a traffic-aware route matrix. Departure time is
// always "now + 30s" (spec.md §4.4 Design Note: "a fixed small offset
// avoids the API rejecting a departure time that has already elapsed by
// the time the request lands").
type RoutesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *Cache
	logger     logger.Logger
	retry      *resilience.RetryConfig
}

// NewRoutesClient constructs a RoutesClient.
func NewRoutesClient(baseURL, apiKey string, cache *Cache, log logger.Logger) *RoutesClient {
	if baseURL == "" {
		baseURL = "https://routes.googleapis.com/distanceMatrix/v2:computeRouteMatrix"
	}
	if log == nil {
		log = logger.NoOp{}
	}
	return &RoutesClient{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     log,
		retry:      resilience.DefaultRetryConfig(),
	}
}

type routeMatrixAPIResponse struct {
	Elements []struct {
		Duration     string `json:"duration"`
		DistanceMeters int  `json:"distanceMeters"`
		Condition    string `json:"condition"`
	} `json:"elements"`
}

// Estimate computes the route between (originLat,originLng) and
// (destLat,destLng), cached per origin/destination pair with a 10-minute
// staleness window since traffic shifts quickly.
func (r *RoutesClient) Estimate(ctx context.Context, originLat, originLng, destLat, destLng float64) (*RouteEstimate, error) {
	cacheKey := fmt.Sprintf("route:%.6f_%.6f_%.6f_%.6f", originLat, originLng, destLat, destLng)

	var cached RouteEstimate
	if ok, stale, err := r.cache.GetFresh(ctx, cacheKey, routeMatrixMaxAge, &cached); err == nil && ok && !stale {
		return &cached, nil
	}

	var estimate *RouteEstimate
	err := resilience.Retry(ctx, r.retry, func() error {
		e, callErr := r.call(ctx, originLat, originLng, destLat, destLng)
		if callErr != nil {
			return callErr
		}
		estimate = e
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.EnrichmentFailed, "routes.estimate", "route matrix lookup failed", err)
	}

	if r.cache != nil {
		_ = r.cache.PutFresh(ctx, cacheKey, routeMatrixTTL, estimate)
	}
	return estimate, nil
}

func (r *RoutesClient) call(ctx context.Context, originLat, originLng, destLat, destLng float64) (*RouteEstimate, error) {
	departureTime := time.Now().Add(30 * time.Second).UTC().Format(time.RFC3339)

	body := map[string]interface{}{
		"origins": []map[string]interface{}{
			{"waypoint": map[string]interface{}{"location": map[string]interface{}{"latLng": map[string]float64{"latitude": originLat, "longitude": originLng}}}},
		},
		"destinations": []map[string]interface{}{
			{"waypoint": map[string]interface{}{"location": map[string]interface{}{"latLng": map[string]float64{"latitude": destLat, "longitude": destLng}}}},
		},
		"travelMode":    "DRIVE",
		"routingPreference": "TRAFFIC_AWARE",
		"departureTime": departureTime,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routes API status %d", resp.StatusCode)
	}

	var apiResp routeMatrixAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Elements) == 0 {
		return nil, fmt.Errorf("no route elements returned")
	}

	el := apiResp.Elements[0]
	duration, _ := time.ParseDuration(el.Duration)
	return &RouteEstimate{
		DurationSeconds: int(duration.Seconds()),
		DistanceMeters:  el.DistanceMeters,
	}, nil
}
