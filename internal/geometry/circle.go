package geometry

import "math"

const (
	// DefaultCircleSteps is the vertex count used when steps is unset.
	DefaultCircleSteps = 36
	// MinCircleSteps is the smallest vertex count CirclePolygon will emit.
	MinCircleSteps = 12

	milesPerDegreeLat = 69.0
	minCosLat         = 1e-6
)

// CirclePolygon approximates a search radius around a center as a regular
// polygon on a spherical earth. The returned ring has steps+1 vertices with
// the first repeated as the last. steps <= 0 selects DefaultCircleSteps and
// anything below MinCircleSteps is raised to it.
func CirclePolygon(centerLon, centerLat, radiusMiles float64, steps int) Polygon {
	if steps <= 0 {
		steps = DefaultCircleSteps
	}
	if steps < MinCircleSteps {
		steps = MinCircleSteps
	}

	dLat := radiusMiles / milesPerDegreeLat
	dLon := dLat / math.Max(math.Cos(centerLat*math.Pi/180), minCosLat)

	ring := make([][2]float64, 0, steps+1)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		ring = append(ring, [2]float64{
			centerLon + dLon*math.Cos(a),
			centerLat + dLat*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])

	return Polygon{Coordinates: [][][2]float64{ring}}
}
