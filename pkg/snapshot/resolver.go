package snapshot

import (
	"context"
	"sync"
	"time"
)

// Resolution is what a Resolver produces for a raw coordinate pair.
type Resolution struct {
	Timezone string
	City     string
	Region   string
	Country  string // ISO 3166-1 alpha-2
	Weather  *Weather
}

// AddressResolver resolves address/timezone for a coordinate. It must
// respect ctx's deadline; spec.md §4.1 gives it a 2s bound and treats
// failure as fatal for the snapshot write.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, lat, lng float64) (tz, city, region, country string, err error)
}

// WeatherResolver resolves best-effort weather context. A failure here
// must never fail the snapshot write (spec.md §4.1).
type WeatherResolver interface {
	ResolveWeather(ctx context.Context, lat, lng float64) (*Weather, error)
}

// Resolver composes address and weather resolution under spec.md's
// timing rules: address resolution is synchronous and fatal on failure;
// weather runs concurrently and is dropped silently on failure or
// timeout.
type Resolver struct {
	Address AddressResolver
	Weather WeatherResolver
	Bound   time.Duration // default 2s, per spec.md §4.1
}

// NewResolver builds a Resolver with the spec's default 2s bound.
func NewResolver(addr AddressResolver, weather WeatherResolver) *Resolver {
	return &Resolver{Address: addr, Weather: weather, Bound: 2 * time.Second}
}

// Resolve runs address resolution (fatal on failure/timeout) and weather
// resolution (best-effort) concurrently, both bounded by r.Bound.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (Resolution, error) {
	bound := r.Bound
	if bound <= 0 {
		bound = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	var (
		wg      sync.WaitGroup
		res     Resolution
		addrErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		tz, city, region, country, err := r.Address.ResolveAddress(ctx, lat, lng)
		if err != nil {
			addrErr = err
			return
		}
		res.Timezone, res.City, res.Region, res.Country = tz, city, region, country
	}()

	if r.Weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := r.Weather.ResolveWeather(ctx, lat, lng)
			if err == nil {
				res.Weather = w
			}
			// Weather errors are absorbed: optional input, never fatal.
		}()
	}

	wg.Wait()
	if addrErr != nil {
		return Resolution{}, addrErr
	}
	return res, nil
}
