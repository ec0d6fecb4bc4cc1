package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/pkg/snapshot"
)

const (
	weatherTTL     = 30 * time.Minute
	weatherMaxAge  = 10 * time.Minute
	defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
)

// WeatherClient resolves best-effort current conditions for a coordinate.
// Unlike Geocoder and RoutesClient, a failure here is never fatal to the
// caller — spec.md §4.1 treats weather as optional context on a Snapshot.
type WeatherClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *Cache
	logger     logger.Logger
	retry      *resilience.RetryConfig
}

// NewWeatherClient constructs a WeatherClient backed by an OpenWeatherMap
// compatible endpoint.
func NewWeatherClient(baseURL, apiKey string, cache *Cache, log logger.Logger) *WeatherClient {
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	if log == nil {
		log = logger.NoOp{}
	}
	return &WeatherClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     log,
		retry:      resilience.DefaultRetryConfig(),
	}
}

type weatherAPIResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Cod interface{} `json:"cod"`
}

// ResolveWeather satisfies snapshot.WeatherResolver. It never returns an
// error the caller must act on beyond dropping the weather field — any
// failure (including a non-200 response) is surfaced as a plain error so
// the Resolver's best-effort branch can discard it.
func (c *WeatherClient) ResolveWeather(ctx context.Context, lat, lng float64) (*snapshot.Weather, error) {
	key := fmt.Sprintf("weather:%.4f:%.4f", lat, lng)

	var cached snapshot.Weather
	ok, stale, err := c.cache.GetFresh(ctx, key, weatherMaxAge, &cached)
	if err == nil && ok && !stale {
		return &cached, nil
	}

	var result *snapshot.Weather
	opErr := resilience.Retry(ctx, c.retry, func() error {
		w, callErr := c.call(ctx, lat, lng)
		if callErr != nil {
			return callErr
		}
		result = w
		return nil
	})
	if opErr != nil {
		if ok {
			// Stale beats nothing: spec.md never requires weather be
			// fresh, only that its absence never blocks a snapshot.
			return &cached, nil
		}
		return nil, fmt.Errorf("resolve weather: %w", opErr)
	}

	_ = c.cache.PutFresh(ctx, key, weatherTTL, result)
	return result, nil
}

func (c *WeatherClient) call(ctx context.Context, lat, lng float64) (*snapshot.Weather, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lng))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var parsed weatherAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	desc := ""
	if len(parsed.Weather) > 0 {
		desc = parsed.Weather[0].Description
	}
	return &snapshot.Weather{
		ConditionCode: fmt.Sprintf("%v", parsed.Cod),
		TemperatureC:  parsed.Main.Temp,
		Description:   desc,
	}, nil
}
