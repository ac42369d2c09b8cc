package collection

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

func TestAssemble_LonLatRecord(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"lon": -81.0, "lat": 27.0, "properties": map[string]any{"PARCEL_ID": "123"}},
	}, "Orange")

	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, orb.Point{-81.0, 27.0}, f.Geometry)
	assert.Equal(t, map[string]any{
		"parcel_id": "123",
		"county":    "Orange",
		"address":   "",
	}, map[string]any(f.Properties))
}

func TestAssemble_EnvelopeJSON(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"lon": -81.0, "lat": 27.0, "properties": map[string]any{"PARCEL_ID": "123"}},
	}, "Orange")

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [-81, 27]},
			"properties": {"parcel_id": "123", "county": "Orange", "address": ""}
		}]
	}`, string(data))
}

func TestAssemble_GeometrySources(t *testing.T) {
	square := geometry.BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}.Polygon()
	records := []map[string]any{
		{"geometry": square},
		{"geometry": map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}},
		{"geometry": `{"type":"Point","coordinates":[3,4]}`},
		{"geom": orb.Point{5, 6}},
		{"geometry": map[string]any{"x": 7.0, "y": 8.0}},
		{"longitude": "9.5", "latitude": json.Number("10.5")},
	}
	fc := Assemble(records, "Lee")
	require.Len(t, fc.Features, 6)

	assert.Equal(t, "Polygon", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, orb.Point{1, 2}, fc.Features[1].Geometry)
	assert.Equal(t, orb.Point{3, 4}, fc.Features[2].Geometry)
	assert.Equal(t, orb.Point{5, 6}, fc.Features[3].Geometry)
	assert.Equal(t, orb.Point{7, 8}, fc.Features[4].Geometry)
	assert.Equal(t, orb.Point{9.5, 10.5}, fc.Features[5].Geometry)
}

func TestAssemble_GeometryFallsThrough(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"geometry": "not json", "geom": map[string]any{"type": "Point", "coordinates": []any{1.0, 1.0}}},
		{"geometry": nil, "lon": 2, "lat": 3},
	}, "Lee")
	require.Len(t, fc.Features, 2)
	assert.Equal(t, orb.Point{1, 1}, fc.Features[0].Geometry)
	assert.Equal(t, orb.Point{2, 3}, fc.Features[1].Geometry)
}

func TestAssemble_MultiPolygonPassesThrough(t *testing.T) {
	multi := `{"type":"MultiPolygon","coordinates":[` +
		`[[[0,0],[1,0],[1,1],[0,1],[0,0]]],` +
		`[[[5,5],[6,5],[6,6],[5,6],[5,5]]]]}`
	fc := Assemble([]map[string]any{
		{"geometry": multi, "parcel_id": "M-1"},
		{"geom": orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		}},
	}, "Orange")
	require.Len(t, fc.Features, 2)

	for _, f := range fc.Features {
		mp, ok := f.Geometry.(orb.MultiPolygon)
		require.True(t, ok, "got %T", f.Geometry)
		require.Len(t, mp, 2)
		assert.Len(t, mp[0], 1)
		assert.Len(t, mp[1], 1)
	}

	data, err := json.Marshal(fc.Features[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"MultiPolygon"`)
}

func TestAssemble_KeepsOtherGeoJSONTypes(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"geometry": map[string]any{"type": "LineString", "coordinates": []any{
			[]any{0.0, 0.0}, []any{1.0, 1.0},
		}}, "parcel_id": "L-1"},
		{"geometry": `{"type":"MultiPoint","coordinates":[[1,2],[3,4]]}`},
		{"geometry": `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[7,8]}]}`},
	}, "Orange")
	require.Len(t, fc.Features, 3)

	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, fc.Features[0].Geometry)
	assert.Equal(t, "L-1", fc.Features[0].Properties["parcel_id"])
	assert.Equal(t, orb.MultiPoint{{1, 2}, {3, 4}}, fc.Features[1].Geometry)
	assert.Equal(t, "GeometryCollection", fc.Features[2].Geometry.GeoJSONType())
}

func TestAssemble_EmptyGeoJSONFallsBackToLonLat(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"geometry": map[string]any{"type": "LineString", "coordinates": []any{}}, "lon": 1, "lat": 2},
	}, "Orange")
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.Point{1, 2}, fc.Features[0].Geometry)
}

func TestAssemble_DropsRecordsWithoutGeometry(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"parcel_id": "no-geom"},
		{"lon": -81.0},
		{"lon": -81.0, "lat": nil},
		{"lon": "east", "lat": 27.0},
		{"geometry": map[string]any{"type": "Point"}},
		{"geometry": map[string]any{"type": "Point", "coordinates": nil}},
		{"geometry": `{"type":"Polygon","coordinates":null}`},
		nil,
	}, "Orange")
	assert.Empty(t, fc.Features)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestLookup_Priority(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
		want string
	}{
		{"nested wins over top level", map[string]any{
			"parcel_id":  "top",
			"properties": map[string]any{"PIN": "nested"},
		}, "nested"},
		{"earlier key wins", map[string]any{"APN": "apn", "parcelId": "camel"}, "camel"},
		{"blank skipped", map[string]any{"parcel_id": "  ", "FOLIO": "f-1"}, "f-1"},
		{"numeric id", map[string]any{"PARCEL_NUMBER": 1234567890123.0}, "1234567890123"},
		{"json number", map[string]any{"pin": json.Number("00123")}, "00123"},
		{"missing", map[string]any{"other": "x"}, ""},
		{"properties not a map", map[string]any{"properties": "x", "parcel": "p"}, "p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.rec, ParcelIDKeys))
		})
	}
}

func TestAssemble_Address(t *testing.T) {
	fc := Assemble([]map[string]any{
		{"lon": 1, "lat": 1, "SITUS_ADDRESS": "1 Main St", "properties": map[string]any{"folio": "F1"}},
		{"lon": 1, "lat": 1, "properties": map[string]any{"site_address": "2 Oak Ave"}, "address": "ignored"},
	}, "Miami-Dade")
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "1 Main St", fc.Features[0].Properties["address"])
	assert.Equal(t, "F1", fc.Features[0].Properties["parcel_id"])
	assert.Equal(t, "2 Oak Ave", fc.Features[1].Properties["address"])
	assert.Len(t, fc.Features[1].Properties, 3)
}

func TestAssembleJSON(t *testing.T) {
	fc, err := AssembleJSON([]byte(`[
		{"lon": -81.0, "lat": 27.0, "properties": {"PARCEL_ID": "123"}},
		{"parcel_id": "dropped"}
	]`), "Orange")
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "123", fc.Features[0].Properties["parcel_id"])

	_, err = AssembleJSON([]byte(`{"not":"an array"}`), "Orange")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode records")
}
