package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-geo/internal/boundary"
	"github.com/sells-group/parcel-geo/internal/config"
	"github.com/sells-group/parcel-geo/internal/county"
	"github.com/sells-group/parcel-geo/internal/geometry"
	"github.com/sells-group/parcel-geo/internal/parcel"
	"github.com/sells-group/parcel-geo/pkg/arcgis"
)

var parcelsCmd = &cobra.Command{
	Use:   "parcels",
	Short: "Parcel geometry queries",
	Long:  "Query county parcel providers, resolve parcel polygons in bulk, and assemble GeoJSON.",
}

func init() { rootCmd.AddCommand(parcelsCmd) }

// newArcgisClient builds the feature-service client from config.
func newArcgisClient(pc config.ParcelConfig) *arcgis.Client {
	return arcgis.NewClient(
		arcgis.WithTimeout(pc.Timeout()),
		arcgis.WithRateLimit(pc.RateLimit),
	)
}

// parcelPool opens the PostGIS pool when any county needs it. It returns a
// nil pool when no database is configured.
func parcelPool(ctx context.Context, pc config.ParcelConfig) (*pgxpool.Pool, error) {
	if pc.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, pc.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "parcels: create connection pool")
	}
	return pool, nil
}

// buildRegistry wires one provider per configured county. A countyFlag that
// matches no configured county gets a synthetic provider. The returned
// cleanup releases the database pool.
func buildRegistry(ctx context.Context, pc config.ParcelConfig, countyFlag string) (*parcel.Registry, func(), error) {
	counties := append([]config.CountyConfig(nil), pc.Counties...)
	if countyFlag != "" && !hasCounty(counties, countyFlag) {
		counties = append(counties, config.CountyConfig{Name: countyFlag, Source: config.SourceSynthetic})
	}

	pool, err := parcelPool(ctx, pc)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
	}

	deps := parcel.Deps{
		State:     pc.State,
		GridSteps: pc.Synthetic.GridSteps,
		Client:    newArcgisClient(pc),
		Matcher:   geometry.DefaultMatcher,
	}
	if pool != nil {
		deps.Pool = pool
	}

	reg, err := parcel.BuildRegistry(counties, deps)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return reg, cleanup, nil
}

func hasCounty(counties []config.CountyConfig, name string) bool {
	key := county.Fold(name)
	for _, cc := range counties {
		if county.Fold(cc.Name) == key {
			return true
		}
	}
	return false
}

// countyProvider resolves and loads the provider for one county.
func countyProvider(ctx context.Context, reg *parcel.Registry, name string) (parcel.Provider, error) {
	if name == "" {
		return nil, eris.Errorf("parcels: --county is required (configured: %s)", strings.Join(reg.Counties(), ", "))
	}
	p, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// newResolver composes discovery and batch resolution from config.
func newResolver(pc config.ParcelConfig, client *arcgis.Client) (*boundary.Resolver, *boundary.Discoverer) {
	disc := boundary.NewDiscoverer(client, pc.Polygon.LayerURL, pc.Polygon.DefaultLayerURL, pc.Timeout())
	res := boundary.NewResolver(disc, client,
		boundary.WithIDField(pc.Polygon.IDField),
		boundary.WithBatchSize(pc.Polygon.BatchSize),
		boundary.WithConcurrency(pc.Polygon.Concurrency),
		boundary.WithMaxRecords(pc.Polygon.MaxRecords),
	)
	return res, disc
}

// writeJSON encodes v to w, indented when pretty is set.
func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "parcels: encode output")
	}
	return nil
}

// openInput opens path for reading; "-" or "" reads stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parcels: open %s", path)
	}
	return f, nil
}

// readIDs reads one identifier per line, skipping blanks and # comments.
func readIDs(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "parcels: read ids")
	}
	return ids, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...) //nolint:errcheck
}
