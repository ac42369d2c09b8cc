package parcel

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

// SearchRadius returns the features from p that intersect a circle of
// radiusMiles around lon/lat. The provider is queried with the circle's
// bbox and the candidates are filtered with matcher (nil uses
// geometry.DefaultMatcher).
func SearchRadius(ctx context.Context, p Provider, lon, lat, radiusMiles float64, matcher *geometry.Matcher) ([]Feature, error) {
	if radiusMiles <= 0 {
		return []Feature{}, geometry.NewValidationError("radius", strconv.FormatFloat(radiusMiles, 'f', -1, 64), "must be > 0")
	}
	if matcher == nil {
		matcher = geometry.DefaultMatcher
	}

	circle := geometry.CirclePolygon(lon, lat, radiusMiles, geometry.DefaultCircleSteps)
	bbox, ok := geometry.GeometryBBox(circle)
	if !ok {
		return []Feature{}, eris.New("parcel: circle has no extent")
	}

	candidates, err := p.Query(ctx, bbox)
	if err != nil {
		return []Feature{}, err
	}

	out := make([]Feature, 0, len(candidates))
	for _, f := range candidates {
		if matcher.Intersects(circle, f.Geometry()) {
			out = append(out, f)
		}
	}
	return out, nil
}
