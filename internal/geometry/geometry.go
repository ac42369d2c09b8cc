// Package geometry holds the parcel geometry value types and the bbox and
// polygon math used by providers and the batch resolver. All coordinates are
// longitude/latitude degrees (EPSG:4326).
package geometry

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Geometry type names as they appear on the wire.
const (
	TypePoint   = "Point"
	TypePolygon = "Polygon"
)

// Geometry is a parcel geometry: either a Point or a Polygon.
type Geometry interface {
	// Type returns the GeoJSON type name.
	Type() string
	// Orb converts the geometry to its orb equivalent.
	Orb() orb.Geometry

	isGeometry()
}

// Point is a single [lon, lat] position.
type Point struct {
	Coordinates [2]float64
}

// NewPoint returns a Point at lon/lat.
func NewPoint(lon, lat float64) Point {
	return Point{Coordinates: [2]float64{lon, lat}}
}

// Type implements Geometry.
func (Point) Type() string { return TypePoint }

// Orb implements Geometry.
func (p Point) Orb() orb.Geometry { return orb.Point(p.Coordinates) }

func (Point) isGeometry() {}

// Lon returns the longitude.
func (p Point) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude.
func (p Point) Lat() float64 { return p.Coordinates[1] }

// MarshalJSON encodes the point as a GeoJSON geometry object.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{TypePoint, p.Coordinates})
}

// Polygon is a list of closed rings. Interior rings (holes) are not modeled;
// every ring is treated as an outer boundary.
type Polygon struct {
	Coordinates [][][2]float64
}

// Type implements Geometry.
func (Polygon) Type() string { return TypePolygon }

// Orb implements Geometry.
func (p Polygon) Orb() orb.Geometry {
	poly := make(orb.Polygon, 0, len(p.Coordinates))
	for _, ring := range p.Coordinates {
		r := make(orb.Ring, len(ring))
		for i, c := range ring {
			r[i] = orb.Point(c)
		}
		poly = append(poly, r)
	}
	return poly
}

func (Polygon) isGeometry() {}

// MarshalJSON encodes the polygon as a GeoJSON geometry object.
func (p Polygon) MarshalJSON() ([]byte, error) {
	coords := p.Coordinates
	if coords == nil {
		coords = [][][2]float64{}
	}
	return json.Marshal(struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}{TypePolygon, coords})
}

// FromOrb converts an orb Point, Polygon, or MultiPolygon. A MultiPolygon
// keeps only its largest part; the Polygon variant has a single outer ring.
// Other orb types are rejected.
func FromOrb(g orb.Geometry) (Geometry, bool) {
	switch v := g.(type) {
	case orb.Point:
		return Point{Coordinates: [2]float64(v)}, true
	case orb.Polygon:
		return polygonFromOrbRings(v)
	case orb.MultiPolygon:
		var largest orb.Polygon
		best := -1.0
		for _, p := range v {
			if len(p) == 0 {
				continue
			}
			if a := planar.Area(p); a > best {
				largest, best = p, a
			}
		}
		return polygonFromOrbRings(largest)
	default:
		return nil, false
	}
}

func polygonFromOrbRings(rs []orb.Ring) (Geometry, bool) {
	rings := make([][][2]float64, 0, len(rs))
	for _, r := range rs {
		if len(r) == 0 {
			continue
		}
		ring := make([][2]float64, len(r))
		for i, p := range r {
			ring[i] = [2]float64(p)
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, false
	}
	return Polygon{Coordinates: rings}, true
}
