// Package venue implements the Venue Catalog and Proximity Filter
// (spec.md C5): a YAML-seeded set of known venues and a great-circle
// distance filter bounding the candidates handed to the Planner.
package venue

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Venue is one catalog entry.
type Venue struct {
	PlaceID  string   `yaml:"place_id"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Lat      float64  `yaml:"lat"`
	Lng      float64  `yaml:"lng"`
	Tags     []string `yaml:"tags"`
}

// Catalog holds the venue set loaded at startup.
type Catalog struct {
	Venues []Venue
}

// LoadCatalog reads a YAML seed file into a Catalog.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}

	var parsed struct {
		Venues []Venue `yaml:"venues"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	return &Catalog{Venues: parsed.Venues}, nil
}

const earthRadiusKm = 6371.0

// HaversineKm computes the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// MaxProximityKm is the hard cap applied before any scoring happens
// (spec.md §4.5: "candidates beyond 100km are excluded outright, not
// merely down-ranked").
const MaxProximityKm = 100.0

// WithinProximity filters the catalog to venues within MaxProximityKm of
// (lat, lng). An empty catalog passes through unchanged rather than
// erroring (spec.md §4.5 edge case).
func (c *Catalog) WithinProximity(lat, lng float64) []Venue {
	if len(c.Venues) == 0 {
		return nil
	}

	var nearby []Venue
	for _, v := range c.Venues {
		if HaversineKm(lat, lng, v.Lat, v.Lng) <= MaxProximityKm {
			nearby = append(nearby, v)
		}
	}
	return nearby
}
