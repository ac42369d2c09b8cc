package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

var (
	// ErrDegenerateRing is returned for rings with fewer than 4 positions.
	ErrDegenerateRing = eris.New("geometry: ring has fewer than 4 positions")
	// ErrUnsupportedGeometry is returned for geometry types the planar strategy cannot handle.
	ErrUnsupportedGeometry = eris.New("geometry: unsupported geometry type")
)

// PlanarIntersector computes exact planar intersection with go-geom.
// Boundaries count as intersecting.
type PlanarIntersector struct{}

// Intersects implements Intersector.
func (PlanarIntersector) Intersects(a, b Geometry) (bool, error) {
	switch av := a.(type) {
	case Point:
		switch bv := b.(type) {
		case Point:
			return av.Coordinates == bv.Coordinates, nil
		case Polygon:
			return pointInPolygon(av, bv)
		}
	case Polygon:
		switch bv := b.(type) {
		case Point:
			return pointInPolygon(bv, av)
		case Polygon:
			return polygonsIntersect(av, bv)
		}
	}
	return false, ErrUnsupportedGeometry
}

func flatRings(p Polygon) ([][]float64, error) {
	if len(p.Coordinates) == 0 {
		return nil, ErrDegenerateRing
	}
	rings := make([][]float64, 0, len(p.Coordinates))
	for _, ring := range p.Coordinates {
		if len(ring) < 4 {
			return nil, ErrDegenerateRing
		}
		flat := make([]float64, 0, len(ring)*2)
		for _, c := range ring {
			flat = append(flat, c[0], c[1])
		}
		rings = append(rings, flat)
	}
	return rings, nil
}

func pointInPolygon(pt Point, poly Polygon) (bool, error) {
	rings, err := flatRings(poly)
	if err != nil {
		return false, err
	}
	c := geom.Coord{pt.Coordinates[0], pt.Coordinates[1]}
	return inAnyRing(c, rings), nil
}

func inAnyRing(c geom.Coord, rings [][]float64) bool {
	for _, ring := range rings {
		if xy.IsPointInRing(geom.XY, c, ring) {
			return true
		}
	}
	return false
}

func polygonsIntersect(a, b Polygon) (bool, error) {
	ar, err := flatRings(a)
	if err != nil {
		return false, err
	}
	br, err := flatRings(b)
	if err != nil {
		return false, err
	}

	if !BBoxOverlap(a, b) {
		return false, nil
	}

	for _, ra := range ar {
		for _, rb := range br {
			if ringsCross(ra, rb) {
				return true, nil
			}
		}
	}

	// No edge crossings: one polygon may still lie entirely inside the other.
	for _, ra := range ar {
		if inAnyRing(geom.Coord{ra[0], ra[1]}, br) {
			return true, nil
		}
	}
	for _, rb := range br {
		if inAnyRing(geom.Coord{rb[0], rb[1]}, ar) {
			return true, nil
		}
	}
	return false, nil
}

func ringsCross(a, b []float64) bool {
	strategy := lineintersector.RobustLineIntersector{}
	for i := 0; i+3 < len(a); i += 2 {
		a0 := geom.Coord{a[i], a[i+1]}
		a1 := geom.Coord{a[i+2], a[i+3]}
		for j := 0; j+3 < len(b); j += 2 {
			b0 := geom.Coord{b[j], b[j+1]}
			b1 := geom.Coord{b[j+2], b[j+3]}
			res := lineintersector.LineIntersectsLine(strategy, a0, a1, b0, b1)
			if res.HasIntersection() {
				return true
			}
		}
	}
	return false
}
