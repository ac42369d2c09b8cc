package parcel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sells-group/parcel-geo/internal/county"
	"github.com/sells-group/parcel-geo/internal/geometry"
)

// DefaultGridSteps is the synthetic grid resolution per axis.
const DefaultGridSteps = 5

// SyntheticProvider derives a deterministic grid of point parcels from the
// query region. It backs tests and demos: the same state, county and bbox
// always yield byte-identical output.
type SyntheticProvider struct {
	state  string
	county string
	steps  int
}

// NewSyntheticProvider returns a synthetic provider. steps <= 0 uses
// DefaultGridSteps.
func NewSyntheticProvider(state, county string, steps int) *SyntheticProvider {
	if steps <= 0 {
		steps = DefaultGridSteps
	}
	return &SyntheticProvider{state: state, county: county, steps: steps}
}

// County returns the county label.
func (p *SyntheticProvider) County() string { return p.county }

// Load is a no-op.
func (p *SyntheticProvider) Load(context.Context) error { return nil }

// Query partitions bbox into a steps×steps grid and emits one point per
// cell center. Cells are numbered row-major from the south-west corner.
func (p *SyntheticProvider) Query(_ context.Context, bbox geometry.BBox) ([]Feature, error) {
	if err := bbox.Validate(); err != nil {
		return []Feature{}, err
	}

	prefix := p.seedPrefix(bbox)
	code := county.Code(p.county)
	dLon := (bbox.MaxLon - bbox.MinLon) / float64(p.steps)
	dLat := (bbox.MaxLat - bbox.MinLat) / float64(p.steps)

	features := make([]Feature, 0, p.steps*p.steps)
	for row := 0; row < p.steps; row++ {
		lat := bbox.MinLat + (float64(row)+0.5)*dLat
		for col := 0; col < p.steps; col++ {
			lon := bbox.MinLon + (float64(col)+0.5)*dLon
			idx := row*p.steps + col
			parcelID := fmt.Sprintf("%s-%s-%03d", code, prefix, idx)
			features = append(features, NewFeature(p.county, parcelID, geometry.NewPoint(lon, lat)))
		}
	}
	return features, nil
}

// FetchByParcelID always reports absent: synthetic parcels exist only
// relative to a query region.
func (p *SyntheticProvider) FetchByParcelID(context.Context, string, string) (*Feature, error) {
	return nil, nil
}

// seedPrefix returns the first six hex characters of the region seed.
func (p *SyntheticProvider) seedPrefix(bbox geometry.BBox) string {
	sum := sha256.Sum256([]byte(p.state + ":" + p.county + ":" + bbox.String()))
	return hex.EncodeToString(sum[:])[:6]
}
