package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Area is a latitude/longitude bounding box used to select reanalysis grid cells.
type Area struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// IsZero reports whether the area is unset, meaning "use every grid cell".
func (a Area) IsZero() bool {
	return a == Area{}
}

// Contains reports whether the point lies inside the box, edges included.
func (a Area) Contains(lat, lon float64) bool {
	return lat <= a.North && lat >= a.South && lon <= a.East && lon >= a.West
}

// AreaAround builds a box centred on a point with the given half-extents in degrees.
func AreaAround(lat, lon, halfLat, halfLon float64) Area {
	return Area{North: lat + halfLat, South: lat - halfLat, East: lon + halfLon, West: lon - halfLon}
}

// knownAreas are the ~9 km boxes used throughout the Bergen/Oslo study.
var knownAreas = map[string]Area{
	"bergen": {North: 60.5, South: 60.3, East: 5.5, West: 5.1},
	"oslo":   {North: 60.0, South: 59.8, East: 10.9, West: 10.6},
}

// KnownArea returns the built-in box for a city, if any.
func KnownArea(city string) (Area, bool) {
	a, ok := knownAreas[strings.ToLower(strings.TrimSpace(city))]
	return a, ok
}

// AreaResolver turns a place name into a bounding box.
type AreaResolver interface {
	ResolveArea(ctx context.Context, city string) (Area, error)
}

// ResolveArea prefers the built-in boxes and falls back to the resolver.
// A nil resolver or a failed lookup yields the zero Area (all grid cells) and
// ok=false so callers can warn instead of aborting.
func ResolveArea(ctx context.Context, city string, resolver AreaResolver, logger *slog.Logger) (Area, bool) {
	if a, ok := KnownArea(city); ok {
		return a, true
	}
	if resolver == nil || strings.TrimSpace(city) == "" {
		return Area{}, false
	}

	a, err := resolver.ResolveArea(ctx, city)
	if err != nil {
		logger.Warn("area lookup failed, using full grid",
			"city", city,
			"error", err,
		)
		return Area{}, false
	}
	if a.IsZero() {
		logger.Warn("area lookup returned no match, using full grid", "city", city)
		return Area{}, false
	}
	return a, true
}

// String renders the box as N/W/S/E, the order the CDS API uses.
func (a Area) String() string {
	return fmt.Sprintf("N%.3f W%.3f S%.3f E%.3f", a.North, a.West, a.South, a.East)
}
