package geometry

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FromGeoJSON converts a loosely typed GeoJSON geometry into a Geometry.
// It accepts Geometry values, orb geometries, *geojson.Geometry, GeoJSON
// objects decoded into map[string]any, and raw GeoJSON text ([]byte,
// json.RawMessage, or string). Unsupported or malformed input reports false.
func FromGeoJSON(v any) (Geometry, bool) {
	switch g := v.(type) {
	case nil:
		return nil, false
	case Point:
		return g, true
	case *Point:
		if g == nil {
			return nil, false
		}
		return *g, true
	case Polygon:
		if len(g.Coordinates) == 0 {
			return nil, false
		}
		return g, true
	case *Polygon:
		if g == nil {
			return nil, false
		}
		return FromGeoJSON(*g)
	case Geometry:
		return g, true
	case *geojson.Geometry:
		if g == nil {
			return nil, false
		}
		return FromOrb(g.Geometry())
	case orb.Geometry:
		return FromOrb(g)
	case map[string]any:
		if _, ok := g["type"]; !ok {
			return nil, false
		}
		if g["coordinates"] == nil {
			return nil, false
		}
		raw, err := json.Marshal(g)
		if err != nil {
			return nil, false
		}
		return fromGeoJSONBytes(raw)
	case json.RawMessage:
		return fromGeoJSONBytes(g)
	case []byte:
		return fromGeoJSONBytes(g)
	case string:
		if !strings.HasPrefix(strings.TrimSpace(g), "{") {
			return nil, false
		}
		return fromGeoJSONBytes([]byte(g))
	default:
		return nil, false
	}
}

func fromGeoJSONBytes(b []byte) (Geometry, bool) {
	g, err := geojson.UnmarshalGeometry(b)
	if err != nil || g == nil || g.Coordinates == nil {
		return nil, false
	}
	return FromOrb(g.Geometry())
}
