package snapshot

import "context"

// GeocodeResolution is the subset of a geocoding lookup the Resolver
// needs. Kept as a small local interface (rather than importing
// pkg/enrichment directly) so this package has no dependency on the
// concrete geocoder implementation.
type GeocodeResolution struct {
	Timezone string
	City     string
	Region   string
	Country  string
}

// GeocodeFunc adapts any coordinate-to-address lookup into an
// AddressResolver. main wires this to enrichment.Geocoder.Resolve.
type GeocodeFunc func(ctx context.Context, lat, lng float64) (GeocodeResolution, error)

// ResolveAddress implements AddressResolver.
func (f GeocodeFunc) ResolveAddress(ctx context.Context, lat, lng float64) (tz, city, region, country string, err error) {
	res, err := f(ctx, lat, lng)
	if err != nil {
		return "", "", "", "", err
	}
	return res.Timezone, res.City, res.Region, res.Country, nil
}
