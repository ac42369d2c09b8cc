package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCirclePolygon_ClosedRing(t *testing.T) {
	p := CirclePolygon(-81, 28, 10, 36)
	require.Len(t, p.Coordinates, 1)
	ring := p.Coordinates[0]
	assert.Len(t, ring, 37)
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestCirclePolygon_StepBounds(t *testing.T) {
	assert.Len(t, CirclePolygon(0, 0, 1, 0).Coordinates[0], DefaultCircleSteps+1)
	assert.Len(t, CirclePolygon(0, 0, 1, 4).Coordinates[0], MinCircleSteps+1)
	assert.Len(t, CirclePolygon(0, 0, 1, 64).Coordinates[0], 65)
}

func TestCirclePolygon_Extent(t *testing.T) {
	p := CirclePolygon(-81, 28, 69, 36)
	b, ok := GeometryBBox(p)
	require.True(t, ok)

	dLon := 1 / math.Cos(28*math.Pi/180)
	assert.InDelta(t, 27, b.MinLat, 1e-9)
	assert.InDelta(t, 29, b.MaxLat, 1e-9)
	assert.InDelta(t, -81-dLon, b.MinLon, 1e-9)
	assert.InDelta(t, -81+dLon, b.MaxLon, 1e-9)

	// First vertex sits due east of the center.
	assert.InDelta(t, -81+dLon, p.Coordinates[0][0][0], 1e-12)
	assert.InDelta(t, 28, p.Coordinates[0][0][1], 1e-12)
}

func TestCirclePolygon_PoleIsFinite(t *testing.T) {
	p := CirclePolygon(0, 90, 5, 12)
	for _, c := range p.Coordinates[0] {
		assert.False(t, math.IsInf(c[0], 0) || math.IsNaN(c[0]))
	}
}
