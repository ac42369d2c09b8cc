package parcel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

func TestNewFeature_ID(t *testing.T) {
	f := NewFeature("Orange", "123", geometry.NewPoint(-81, 27))
	assert.Equal(t, "Orange:123", f.ID())
	assert.Equal(t, "Orange", f.County())
	assert.Equal(t, "123", f.ParcelID())
	assert.Equal(t, geometry.NewPoint(-81, 27), f.Geometry())
}

func TestFeature_MarshalJSON(t *testing.T) {
	f := NewFeature("Orange", "123", geometry.NewPoint(-81, 27))
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"feature_id": "Orange:123",
		"county": "Orange",
		"parcel_id": "123",
		"geometry": {"type": "Point", "coordinates": [-81, 27]}
	}`, string(data))
}

func TestFeature_GeoJSON(t *testing.T) {
	poly := geometry.BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}.Polygon()
	gf := NewFeature("Lee", "A-1", poly).GeoJSON()

	assert.Equal(t, "Lee:A-1", gf.ID)
	assert.Equal(t, "Lee:A-1", gf.Properties["feature_id"])
	assert.Equal(t, "Lee", gf.Properties["county"])
	assert.Equal(t, "A-1", gf.Properties["parcel_id"])
	assert.Equal(t, "Polygon", gf.Geometry.GeoJSONType())
}

func TestNewFeatureCollection(t *testing.T) {
	fc := NewFeatureCollection([]Feature{
		NewFeature("Lee", "1", geometry.NewPoint(1, 1)),
		NewFeature("Lee", "2", geometry.NewPoint(2, 2)),
	})
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Lee:1", fc.Features[0].ID)
	assert.Equal(t, "Lee:2", fc.Features[1].ID)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
}

func TestNewFeatureCollection_Empty(t *testing.T) {
	data, err := json.Marshal(NewFeatureCollection(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
