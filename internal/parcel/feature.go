package parcel

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

// Feature is one parcel's identity and geometry. Values are immutable once
// built; use NewFeature so the feature ID stays consistent.
type Feature struct {
	id       string
	county   string
	parcelID string
	geom     geometry.Geometry
}

// NewFeature builds a Feature whose ID is "{county}:{parcelID}".
func NewFeature(county, parcelID string, g geometry.Geometry) Feature {
	return Feature{
		id:       FeatureID(county, parcelID),
		county:   county,
		parcelID: parcelID,
		geom:     g,
	}
}

// FeatureID joins a county and parcel ID into a feature identifier.
func FeatureID(county, parcelID string) string {
	return county + ":" + parcelID
}

// ID returns the feature identifier.
func (f Feature) ID() string { return f.id }

// County returns the county label the feature was produced for.
func (f Feature) County() string { return f.county }

// ParcelID returns the source parcel identifier.
func (f Feature) ParcelID() string { return f.parcelID }

// Geometry returns the feature geometry.
func (f Feature) Geometry() geometry.Geometry { return f.geom }

type featureJSON struct {
	FeatureID string            `json:"feature_id"`
	County    string            `json:"county"`
	ParcelID  string            `json:"parcel_id"`
	Geometry  geometry.Geometry `json:"geometry"`
}

// MarshalJSON encodes the feature as a flat record.
func (f Feature) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureJSON{
		FeatureID: f.id,
		County:    f.county,
		ParcelID:  f.parcelID,
		Geometry:  f.geom,
	})
}

// GeoJSON returns the feature as a GeoJSON Feature carrying the identity
// fields as properties.
func (f Feature) GeoJSON() *geojson.Feature {
	var g orb.Geometry
	if f.geom != nil {
		g = f.geom.Orb()
	}
	gf := geojson.NewFeature(g)
	gf.ID = f.id
	gf.Properties["feature_id"] = f.id
	gf.Properties["county"] = f.county
	gf.Properties["parcel_id"] = f.parcelID
	return gf
}

// NewFeatureCollection wraps features in a GeoJSON FeatureCollection,
// preserving order.
func NewFeatureCollection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.GeoJSON())
	}
	return fc
}
