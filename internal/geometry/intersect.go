package geometry

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Intersector is an exact geometry intersection strategy. Returning an error
// signals that the answer could not be computed and the caller should fall
// back to an approximation.
type Intersector interface {
	Intersects(a, b Geometry) (bool, error)
}

// Matcher tests geometries for intersection: exact first, bbox overlap when
// no exact strategy is configured or the exact computation fails.
type Matcher struct {
	precise Intersector
}

// NewMatcher returns a Matcher. A nil precise strategy means only bbox
// overlap is used.
func NewMatcher(precise Intersector) *Matcher {
	return &Matcher{precise: precise}
}

// DefaultMatcher uses PlanarIntersector with bbox fallback.
var DefaultMatcher = NewMatcher(PlanarIntersector{})

// Intersects reports whether the search geometry touches the feature geometry
// using DefaultMatcher.
func Intersects(search, feature Geometry) bool {
	return DefaultMatcher.Intersects(search, feature)
}

// Intersects never fails: exact-computation errors degrade to bbox overlap.
func (m *Matcher) Intersects(search, feature Geometry) bool {
	if search == nil || feature == nil {
		zap.L().Debug("geometry: intersects on nil geometry",
			zap.String("reason", "invalid_input"),
			zap.Bool("search_nil", search == nil),
			zap.Bool("feature_nil", feature == nil),
		)
		return false
	}

	if m.precise == nil {
		return BBoxOverlap(search, feature)
	}

	ok, err := m.tryPrecise(search, feature)
	if err != nil {
		zap.L().Debug("geometry: exact intersection unavailable, using bbox overlap",
			zap.String("reason", "precise_failed"),
			zap.String("search_type", search.Type()),
			zap.String("feature_type", feature.Type()),
			zap.Error(err),
		)
		return BBoxOverlap(search, feature)
	}
	return ok
}

func (m *Matcher) tryPrecise(a, b Geometry) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, eris.Errorf("geometry: exact intersection panicked: %v", r)
		}
	}()
	return m.precise.Intersects(a, b)
}

// BBoxOverlap reports whether the envelopes of a and b overlap. It returns
// false when either envelope cannot be extracted.
func BBoxOverlap(a, b any) bool {
	ab, ok := GeometryBBox(a)
	if !ok {
		return false
	}
	bb, ok := GeometryBBox(b)
	if !ok {
		return false
	}
	return ab.Overlaps(bb)
}
