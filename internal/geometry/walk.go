package geometry

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb"
)

// GeometryBBox returns the envelope of every [x, y] pair found in g, walking
// coordinate trees of any depth. It accepts Geometry values, orb geometries,
// GeoJSON-shaped maps, and raw nested slices. The second result is false when
// no coordinates are found.
func GeometryBBox(g any) (BBox, bool) {
	b := BBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	found := false
	walkCoords(g, func(x, y float64) {
		b.extend(x, y)
		found = true
	})
	if !found {
		return BBox{}, false
	}
	return b, true
}

func walkCoords(v any, visit func(x, y float64)) {
	switch c := v.(type) {
	case nil:
		return
	case Point:
		visit(c.Coordinates[0], c.Coordinates[1])
	case *Point:
		if c != nil {
			walkCoords(*c, visit)
		}
	case Polygon:
		walkCoords(c.Coordinates, visit)
	case *Polygon:
		if c != nil {
			walkCoords(*c, visit)
		}
	case orb.Point:
		visit(c[0], c[1])
	case orb.Geometry:
		walkOrb(c, visit)
	case map[string]any:
		walkCoords(c["coordinates"], visit)
	case [2]float64:
		visit(c[0], c[1])
	case []float64:
		if len(c) >= 2 {
			visit(c[0], c[1])
		}
	case [][2]float64:
		for _, p := range c {
			visit(p[0], p[1])
		}
	case [][][2]float64:
		for _, r := range c {
			walkCoords(r, visit)
		}
	case [][]float64:
		for _, p := range c {
			walkCoords(p, visit)
		}
	case [][][]float64:
		for _, r := range c {
			walkCoords(r, visit)
		}
	case []any:
		if len(c) >= 2 {
			x, okX := ToFloat(c[0])
			y, okY := ToFloat(c[1])
			if okX && okY {
				visit(x, y)
				return
			}
		}
		for _, child := range c {
			walkCoords(child, visit)
		}
	}
}

func walkOrb(g orb.Geometry, visit func(x, y float64)) {
	switch c := g.(type) {
	case orb.MultiPoint:
		for _, p := range c {
			visit(p[0], p[1])
		}
	case orb.LineString:
		for _, p := range c {
			visit(p[0], p[1])
		}
	case orb.Ring:
		for _, p := range c {
			visit(p[0], p[1])
		}
	case orb.Polygon:
		for _, r := range c {
			walkOrb(r, visit)
		}
	case orb.MultiLineString:
		for _, l := range c {
			walkOrb(l, visit)
		}
	case orb.MultiPolygon:
		for _, p := range c {
			walkOrb(p, visit)
		}
	case orb.Collection:
		for _, g := range c {
			walkCoords(g, visit)
		}
	}
}

// ToFloat coerces JSON-decoded and native numeric values to float64.
// Strings are not numbers here; callers that accept numeric strings parse them
// themselves.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
