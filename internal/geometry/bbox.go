package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BBox is an axis-aligned lon/lat bounding box.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Validate reports an inverted box as a ValidationError.
func (b BBox) Validate() error {
	if b.MaxLon < b.MinLon {
		return NewValidationError("bbox", b.String(), "maxLon is less than minLon")
	}
	if b.MaxLat < b.MinLat {
		return NewValidationError("bbox", b.String(), "maxLat is less than minLat")
	}
	return nil
}

// String formats the box as "minLon,minLat,maxLon,maxLat" using the shortest
// representation that parses back to the same floats.
func (b BBox) String() string {
	parts := []string{
		strconv.FormatFloat(b.MinLon, 'f', -1, 64),
		strconv.FormatFloat(b.MinLat, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLon, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLat, 'f', -1, 64),
	}
	return strings.Join(parts, ",")
}

// Overlaps reports whether two boxes share any point, edges included.
func (b BBox) Overlaps(o BBox) bool {
	return !(b.MaxLon < o.MinLon || b.MinLon > o.MaxLon || b.MaxLat < o.MinLat || b.MinLat > o.MaxLat)
}

// Center returns the box midpoint.
func (b BBox) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

// Polygon returns the box as a closed counter-clockwise ring.
func (b BBox) Polygon() Polygon {
	return Polygon{Coordinates: [][][2]float64{{
		{b.MinLon, b.MinLat},
		{b.MaxLon, b.MinLat},
		{b.MaxLon, b.MaxLat},
		{b.MinLon, b.MaxLat},
		{b.MinLon, b.MinLat},
	}}}
}

// Bound converts the box to an orb.Bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// extend grows the box to include lon/lat.
func (b *BBox) extend(lon, lat float64) {
	b.MinLon = math.Min(b.MinLon, lon)
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLon = math.Max(b.MaxLon, lon)
	b.MaxLat = math.Max(b.MaxLat, lat)
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat". Any field-count, numeric, or
// ordering problem is returned as a *ValidationError.
func ParseBBox(raw string) (BBox, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return BBox{}, NewValidationError("bbox", raw, "expected 4 comma-separated numbers")
	}

	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return BBox{}, NewValidationError("bbox", raw, "field "+strconv.Itoa(i+1)+" is not a finite number")
		}
		vals[i] = v
	}

	b := BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}
