package parcel

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

const (
	postgisProviderName = "postgis"

	// DefaultParcelTable holds parcel polygons keyed by (county, parcel_id).
	DefaultParcelTable = "public.parcels"

	// DefaultQueryLimit caps rows returned by a bbox query.
	DefaultQueryLimit = 10000
)

// Pool is the subset of pgxpool.Pool used by the PostGIS provider.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostGISProvider serves parcels from a PostGIS table with columns
// county, parcel_id and geom (SRID 4326).
type PostGISProvider struct {
	county string
	table  string
	pool   Pool
	limit  int

	loaded atomic.Bool
}

// NewPostGISProvider returns a provider over table. An empty table uses
// DefaultParcelTable.
func NewPostGISProvider(county, table string, pool Pool) *PostGISProvider {
	if strings.TrimSpace(table) == "" {
		table = DefaultParcelTable
	}
	return &PostGISProvider{
		county: county,
		table:  sanitizeTable(table),
		pool:   pool,
		limit:  DefaultQueryLimit,
	}
}

// sanitizeTable quotes a possibly schema-qualified table name.
func sanitizeTable(table string) string {
	return pgx.Identifier(strings.Split(strings.TrimSpace(table), ".")).Sanitize()
}

// County returns the county label.
func (p *PostGISProvider) County() string { return p.county }

// Load checks the database is reachable.
func (p *PostGISProvider) Load(ctx context.Context) error {
	if p.loaded.Load() {
		return nil
	}
	if err := p.pool.Ping(ctx); err != nil {
		return newProviderError(postgisProviderName, p.county, "load", eris.Wrap(err, "parcel: ping"))
	}
	p.loaded.Store(true)
	return nil
}

// Query returns parcels whose geometry bbox overlaps bbox, ordered by
// parcel ID.
func (p *PostGISProvider) Query(ctx context.Context, bbox geometry.BBox) ([]Feature, error) {
	if err := bbox.Validate(); err != nil {
		return []Feature{}, newProviderError(postgisProviderName, p.county, "query", err)
	}

	sql := fmt.Sprintf(
		`SELECT parcel_id, ST_AsGeoJSON(geom) FROM %s WHERE county = $1 AND geom && ST_MakeEnvelope($2, $3, $4, $5, 4326) ORDER BY parcel_id LIMIT $6`,
		p.table,
	)
	rows, err := p.pool.Query(ctx, sql, p.county, bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat, p.limit)
	if err != nil {
		return []Feature{}, newProviderError(postgisProviderName, p.county, "query", eris.Wrap(err, "parcel: query bbox"))
	}
	defer rows.Close()

	features := []Feature{}
	var skipped int
	for rows.Next() {
		var parcelID, geojson string
		if err := rows.Scan(&parcelID, &geojson); err != nil {
			return []Feature{}, newProviderError(postgisProviderName, p.county, "query", eris.Wrap(err, "parcel: scan parcel"))
		}
		g, ok := geometry.FromGeoJSON(geojson)
		if !ok {
			skipped++
			continue
		}
		features = append(features, NewFeature(p.county, parcelID, g))
	}
	if err := rows.Err(); err != nil {
		return []Feature{}, newProviderError(postgisProviderName, p.county, "query", eris.Wrap(err, "parcel: iterate parcels"))
	}

	if skipped > 0 {
		zap.L().Debug("parcel: skipped postgis rows",
			zap.String("county", p.county),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

// FetchByParcelID looks up one parcel. An empty county uses the provider's
// own label.
func (p *PostGISProvider) FetchByParcelID(ctx context.Context, parcelID, county string) (*Feature, error) {
	parcelID = strings.TrimSpace(parcelID)
	if parcelID == "" {
		return nil, nil
	}
	if county == "" {
		county = p.county
	}

	sql := fmt.Sprintf(
		`SELECT parcel_id, ST_AsGeoJSON(geom) FROM %s WHERE county = $1 AND parcel_id = $2 LIMIT 1`,
		p.table,
	)
	var id, geojson string
	err := p.pool.QueryRow(ctx, sql, county, parcelID).Scan(&id, &geojson)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, newProviderError(postgisProviderName, county, "fetch", eris.Wrap(err, "parcel: fetch parcel"))
	}

	g, ok := geometry.FromGeoJSON(geojson)
	if !ok {
		return nil, nil
	}
	f := NewFeature(county, id, g)
	return &f, nil
}

// EnsureSchema creates the parcel table and its spatial index when missing.
func (p *PostGISProvider) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			county    TEXT NOT NULL,
			parcel_id TEXT NOT NULL,
			geom      geometry(Geometry, 4326) NOT NULL,
			PRIMARY KEY (county, parcel_id)
		)`, p.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geom)`,
			pgx.Identifier{indexName(p.table)}.Sanitize(), p.table),
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "parcel: ensure schema")
		}
	}
	return nil
}

// indexName derives a GiST index name from a sanitized table name.
func indexName(sanitized string) string {
	name := strings.NewReplacer(`"`, "", ".", "_").Replace(sanitized)
	return name + "_geom_idx"
}
