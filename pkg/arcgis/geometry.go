package arcgis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

const minRingPoints = 4

// ToGeometry converts an Esri JSON geometry into a parcel geometry.
//
// Polygons ({"rings": [[[x, y], ...], ...]}) keep every ring that still has at
// least 4 valid points after malformed points are dropped. Points use numeric
// "x"/"y". Anything else, including a panic while coercing, reports false.
func ToGeometry(raw map[string]any) (g geometry.Geometry, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("arcgis: geometry conversion panicked", zap.String("panic", fmt.Sprint(r)))
			g, ok = nil, false
		}
	}()

	if len(raw) == 0 {
		return nil, false
	}
	if rings, present := raw["rings"]; present {
		return polygonFromRings(rings)
	}
	if _, present := raw["x"]; present {
		x, okX := geometry.ToFloat(raw["x"])
		y, okY := geometry.ToFloat(raw["y"])
		if !okX || !okY {
			return nil, false
		}
		return geometry.NewPoint(x, y), true
	}
	return nil, false
}

func polygonFromRings(v any) (geometry.Geometry, bool) {
	var rings [][][2]float64

	switch list := v.(type) {
	case []any:
		for _, r := range list {
			pts, ok := r.([]any)
			if !ok || len(pts) < minRingPoints {
				continue
			}
			ring := make([][2]float64, 0, len(pts))
			for _, p := range pts {
				if c, ok := coordPair(p); ok {
					ring = append(ring, c)
				}
			}
			if len(ring) >= minRingPoints {
				rings = append(rings, ring)
			}
		}
	case [][][]float64:
		for _, pts := range list {
			if len(pts) < minRingPoints {
				continue
			}
			ring := make([][2]float64, 0, len(pts))
			for _, p := range pts {
				if len(p) >= 2 {
					ring = append(ring, [2]float64{p[0], p[1]})
				}
			}
			if len(ring) >= minRingPoints {
				rings = append(rings, ring)
			}
		}
	default:
		return nil, false
	}

	if len(rings) == 0 {
		return nil, false
	}
	return geometry.Polygon{Coordinates: rings}, true
}

func coordPair(p any) ([2]float64, bool) {
	switch pair := p.(type) {
	case []any:
		if len(pair) < 2 {
			return [2]float64{}, false
		}
		x, okX := geometry.ToFloat(pair[0])
		y, okY := geometry.ToFloat(pair[1])
		if !okX || !okY {
			return [2]float64{}, false
		}
		return [2]float64{x, y}, true
	case []float64:
		if len(pair) < 2 {
			return [2]float64{}, false
		}
		return [2]float64{pair[0], pair[1]}, true
	default:
		return [2]float64{}, false
	}
}
