package geo

import (
	"math"

	"crisis-service/pkg/apperr"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (p Point) Validate() error {
	if p.Longitude < -180 || p.Longitude > 180 || p.Latitude < -90 || p.Latitude > 90 {
		return apperr.Validationf("invalid coordinates [%v, %v]", p.Longitude, p.Latitude)
	}
	return nil
}

// GeoJSON is the persisted shape of a point, compatible with Mongo's
// 2dsphere index: coordinates are [longitude, latitude].
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoJSON(p Point) GeoJSON {
	return GeoJSON{Type: "Point", Coordinates: []float64{p.Longitude, p.Latitude}}
}

func (g GeoJSON) Point() Point {
	if len(g.Coordinates) != 2 {
		return Point{}
	}
	return Point{Longitude: g.Coordinates[0], Latitude: g.Coordinates[1]}
}

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in meters,
// via the haversine formula. Coordinates span the full globe, so a planar
// approximation is not acceptable here.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
