// Package collection normalizes loosely shaped, geometry-bearing records
// into a GeoJSON FeatureCollection with a fixed property contract.
package collection

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
	"github.com/sells-group/parcel-geo/pkg/arcgis"
)

// Assemble converts records into a FeatureCollection. Records without a
// usable geometry are dropped. Each feature's properties are exactly
// parcel_id, county (the given label) and address.
func Assemble(records []map[string]any, county string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var dropped int
	for _, rec := range records {
		g, ok := RecordGeometry(rec)
		if !ok {
			dropped++
			continue
		}
		f := geojson.NewFeature(g)
		f.Properties[PropParcelID] = Lookup(rec, ParcelIDKeys)
		f.Properties[PropCounty] = county
		f.Properties[PropAddress] = Lookup(rec, AddressKeys)
		fc.Append(f)
	}
	if dropped > 0 {
		zap.L().Debug("collection: dropped records without geometry",
			zap.String("county", county),
			zap.Int("dropped", dropped),
		)
	}
	return fc
}

// AssembleJSON decodes a JSON array of records and assembles them.
func AssembleJSON(data []byte, county string) (*geojson.FeatureCollection, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "collection: decode records")
	}
	return Assemble(records, county), nil
}

// RecordGeometry extracts a geometry from rec: the geometry key, then geom,
// then a point built from lon/longitude and lat/latitude. GeoJSON values
// (typed, decoded or text) keep their own type; Esri JSON is converted
// through the Point/Polygon union.
func RecordGeometry(rec map[string]any) (orb.Geometry, bool) {
	if rec == nil {
		return nil, false
	}
	for _, key := range geometryKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if g, ok := decodeGeometry(v); ok {
			return g, true
		}
	}

	lon, ok := firstNumber(rec, longitudeKeys)
	if !ok {
		return nil, false
	}
	lat, ok := firstNumber(rec, latitudeKeys)
	if !ok {
		return nil, false
	}
	return orb.Point{lon, lat}, true
}

func decodeGeometry(v any) (orb.Geometry, bool) {
	switch g := v.(type) {
	case geometry.Geometry:
		pg, ok := geometry.FromGeoJSON(g)
		if !ok {
			return nil, false
		}
		return pg.Orb(), true
	case *geojson.Geometry:
		if g == nil {
			return nil, false
		}
		return usable(g.Geometry())
	case orb.Geometry:
		return usable(g)
	case map[string]any:
		if _, ok := g["type"]; ok {
			raw, err := json.Marshal(g)
			if err != nil {
				return nil, false
			}
			if og, ok := geoJSONGeometry(raw); ok {
				return og, true
			}
		}
		// Esri JSON (rings or x/y) as returned by feature services.
		if eg, ok := arcgis.ToGeometry(g); ok {
			return eg.Orb(), true
		}
		return nil, false
	case json.RawMessage:
		return geoJSONGeometry(g)
	case []byte:
		return geoJSONGeometry(g)
	case string:
		if !strings.HasPrefix(strings.TrimSpace(g), "{") {
			return nil, false
		}
		return geoJSONGeometry([]byte(g))
	default:
		return nil, false
	}
}

func geoJSONGeometry(b []byte) (orb.Geometry, bool) {
	// orb decodes "coordinates": null as the origin.
	var members struct {
		Coordinates json.RawMessage `json:"coordinates"`
		Geometries  json.RawMessage `json:"geometries"`
	}
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, false
	}
	if isNull(members.Coordinates) && isNull(members.Geometries) {
		return nil, false
	}

	g, err := geojson.UnmarshalGeometry(b)
	if err != nil || g == nil {
		return nil, false
	}
	return usable(g.Geometry())
}

func isNull(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

// usable rejects nil geometries and geometries without a single coordinate.
func usable(g orb.Geometry) (orb.Geometry, bool) {
	if g == nil {
		return nil, false
	}
	if _, ok := geometry.GeometryBBox(g); !ok {
		return nil, false
	}
	return g, true
}

// Lookup returns the first non-blank value for keys, checking a nested
// properties map before the record's top level. It returns "" when no key
// matches.
func Lookup(rec map[string]any, keys []string) string {
	if props, ok := rec["properties"].(map[string]any); ok {
		if s, ok := firstString(props, keys); ok {
			return s
		}
	}
	if s, ok := firstString(rec, keys); ok {
		return s
	}
	return ""
}

func firstString(m map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		s, ok := arcgis.Stringify(m[k])
		if ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func firstNumber(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := geometry.ToFloat(v); ok {
			return f, true
		}
		// Numeric strings ("27.5") are accepted too.
		if s, ok := v.(string); ok {
			if f, ok := geometry.ToFloat(json.Number(strings.TrimSpace(s))); ok {
				return f, true
			}
		}
	}
	return 0, false
}
