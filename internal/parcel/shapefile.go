package parcel

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

const shapefileProviderName = "shapefile"

// indexEntry places one feature in the quadtree by its bbox center.
type indexEntry struct {
	idx    int
	center orb.Point
}

func (e indexEntry) Point() orb.Point { return e.center }

// ShapefileProvider serves parcels from a local ESRI shapefile. Load reads
// every record into memory and indexes bbox centers in a quadtree; the index
// is read-only afterwards.
type ShapefileProvider struct {
	county  string
	path    string
	idField string
	matcher *geometry.Matcher

	mu       sync.RWMutex
	loaded   bool
	features []Feature
	bboxes   []geometry.BBox
	byID     map[string]int
	tree     *quadtree.Quadtree
	halfLon  float64 // largest half-width of any feature bbox
	halfLat  float64 // largest half-height of any feature bbox
}

// NewShapefileProvider returns a provider reading path. An empty idField
// uses DefaultIDField; a nil matcher uses geometry.DefaultMatcher.
func NewShapefileProvider(county, path, idField string, matcher *geometry.Matcher) *ShapefileProvider {
	if strings.TrimSpace(idField) == "" {
		idField = DefaultIDField
	}
	if matcher == nil {
		matcher = geometry.DefaultMatcher
	}
	return &ShapefileProvider{county: county, path: path, idField: idField, matcher: matcher}
}

// County returns the county label.
func (p *ShapefileProvider) County() string { return p.county }

// Load reads and indexes the shapefile. Subsequent calls are no-ops.
func (p *ShapefileProvider) Load(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}

	features, err := p.read()
	if err != nil {
		return newProviderError(shapefileProviderName, p.county, "load", err)
	}
	p.index(features)
	p.loaded = true

	zap.L().Info("parcel: shapefile loaded",
		zap.String("county", p.county),
		zap.String("path", p.path),
		zap.Int("features", len(features)),
	)
	return nil
}

// Query returns the features intersecting bbox, in file order.
func (p *ShapefileProvider) Query(_ context.Context, bbox geometry.BBox) ([]Feature, error) {
	if err := bbox.Validate(); err != nil {
		return []Feature{}, newProviderError(shapefileProviderName, p.county, "query", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return []Feature{}, newProviderError(shapefileProviderName, p.county, "query", eris.New("shapefile not loaded"))
	}
	if p.tree == nil {
		return []Feature{}, nil
	}

	// Centers of intersecting features lie within the search box grown by
	// the largest feature half-extent.
	search := orb.Bound{
		Min: orb.Point{bbox.MinLon - p.halfLon, bbox.MinLat - p.halfLat},
		Max: orb.Point{bbox.MaxLon + p.halfLon, bbox.MaxLat + p.halfLat},
	}
	hits := p.tree.InBound(nil, search)
	idxs := make([]int, 0, len(hits))
	for _, h := range hits {
		idxs = append(idxs, h.(indexEntry).idx)
	}
	slices.Sort(idxs)

	region := bbox.Polygon()
	out := make([]Feature, 0, len(idxs))
	for _, i := range idxs {
		if !p.bboxes[i].Overlaps(bbox) {
			continue
		}
		if !p.matcher.Intersects(region, p.features[i].Geometry()) {
			continue
		}
		out = append(out, p.features[i])
	}
	return out, nil
}

// FetchByParcelID returns the parcel with the given identifier. An empty
// county uses the provider's own label.
func (p *ShapefileProvider) FetchByParcelID(_ context.Context, parcelID, county string) (*Feature, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return nil, newProviderError(shapefileProviderName, p.county, "fetch", eris.New("shapefile not loaded"))
	}
	i, ok := p.byID[strings.TrimSpace(parcelID)]
	if !ok {
		return nil, nil
	}
	f := p.features[i]
	if county != "" && county != f.County() {
		f = NewFeature(county, f.ParcelID(), f.Geometry())
	}
	return &f, nil
}

func (p *ShapefileProvider) read() ([]Feature, error) {
	reader, err := shp.Open(p.path)
	if err != nil {
		return nil, eris.Wrapf(err, "parcel: open shapefile %s", p.path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, p.idField) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, eris.Errorf("parcel: shapefile %s has no %s field", p.path, p.idField)
	}

	var features []Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		if id == "" {
			skipped++
			continue
		}
		g, ok := shapeGeometry(shape)
		if !ok {
			skipped++
			continue
		}
		features = append(features, NewFeature(p.county, id, g))
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "parcel: read shapefile %s", p.path)
	}

	if skipped > 0 {
		zap.L().Debug("parcel: skipped shapefile records",
			zap.String("county", p.county),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

// index builds the lookup structures. Callers hold the write lock.
func (p *ShapefileProvider) index(features []Feature) {
	p.features = features
	p.bboxes = make([]geometry.BBox, len(features))
	p.byID = make(map[string]int, len(features))
	if len(features) == 0 {
		return
	}

	var bound orb.Bound
	for i, f := range features {
		b, _ := geometry.GeometryBBox(f.Geometry())
		p.bboxes[i] = b
		if _, dup := p.byID[f.ParcelID()]; !dup {
			p.byID[f.ParcelID()] = i
		}
		p.halfLon = max(p.halfLon, (b.MaxLon-b.MinLon)/2)
		p.halfLat = max(p.halfLat, (b.MaxLat-b.MinLat)/2)
		if i == 0 {
			bound = b.Bound()
		} else {
			bound = bound.Union(b.Bound())
		}
	}

	p.tree = quadtree.New(bound)
	for i, b := range p.bboxes {
		lon, lat := b.Center()
		if err := p.tree.Add(indexEntry{idx: i, center: orb.Point{lon, lat}}); err != nil {
			zap.L().Debug("parcel: shapefile index add failed", zap.Int("record", i), zap.Error(err))
		}
	}
}

// shapeGeometry converts point and polygon shapes. Each polygon part
// becomes one ring; parts with fewer than four points are dropped.
func shapeGeometry(shape shp.Shape) (geometry.Geometry, bool) {
	switch s := shape.(type) {
	case *shp.Point:
		return geometry.NewPoint(s.X, s.Y), true
	case *shp.Polygon:
		return polygonFromParts(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygonFromParts(s.Parts, s.Points)
	default:
		return nil, false
	}
}

func polygonFromParts(parts []int32, points []shp.Point) (geometry.Geometry, bool) {
	if len(parts) == 0 || len(points) == 0 {
		return nil, false
	}
	var rings [][][2]float64
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 4 {
			continue
		}
		ring := make([][2]float64, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, [2]float64{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, false
	}
	return geometry.Polygon{Coordinates: rings}, true
}
