package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
)

var parcelsResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Batch-resolve parcel polygons by identifier",
	Long: `Resolves parcel identifiers to polygon geometries from the configured
cadastral polygon layer. Identifiers come from --ids (comma separated) or
--file (one per line, "-" for stdin). Output is a JSON object keyed by
parcel identifier; identifiers with no usable polygon are omitted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rawIDs, _ := cmd.Flags().GetString("ids")
		file, _ := cmd.Flags().GetString("file")
		pretty, _ := cmd.Flags().GetBool("pretty")

		ids, err := collectIDs(cmd, rawIDs, file)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return eris.New("parcels resolve: no identifiers given (use --ids or --file)")
		}

		geoms, err := resolvePolygons(ctx, ids)
		if err != nil {
			return err
		}

		zap.L().Info("parcels resolve complete",
			zap.Int("requested", len(ids)),
			zap.Int("resolved", len(geoms)),
		)

		return writeJSON(cmd.OutOrStdout(), geoms, pretty)
	},
}

// collectIDs gathers identifiers from the --ids flag and the --file input.
func collectIDs(cmd *cobra.Command, rawIDs, file string) ([]string, error) {
	ids := splitAndTrim(rawIDs)
	if file == "" {
		return ids, nil
	}
	rc, err := openInput(cmd, file)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	fromFile, err := readIDs(rc)
	if err != nil {
		return nil, err
	}
	return append(ids, fromFile...), nil
}

func resolvePolygons(ctx context.Context, ids []string) (map[string]geometry.Geometry, error) {
	res, _ := newResolver(cfg.Parcel, newArcgisClient(cfg.Parcel))
	return res.FetchParcelGeometries(ctx, ids)
}

var parcelsDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Report the cadastral polygon layer in use",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		_, disc := newResolver(cfg.Parcel, newArcgisClient(cfg.Parcel))
		layerURL, ok := disc.PolygonLayerURL(ctx)
		if !ok {
			printf(cmd, "No polygon layer available\n")
			return nil
		}
		printf(cmd, "Polygon layer: %s\n", layerURL)
		return nil
	},
}

func init() {
	parcelsResolveCmd.Flags().String("ids", "", "comma-separated parcel identifiers")
	parcelsResolveCmd.Flags().String("file", "", `file of identifiers, one per line ("-" for stdin)`)
	parcelsResolveCmd.Flags().Bool("pretty", false, "indent JSON output")
	parcelsCmd.AddCommand(parcelsResolveCmd)
	parcelsCmd.AddCommand(parcelsDiscoverCmd)
}
