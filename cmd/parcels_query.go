package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/geometry"
	"github.com/sells-group/parcel-geo/internal/parcel"
)

var parcelsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a county's parcels by bounding box or radius",
	Long: `Queries one county provider and prints the intersecting parcels as a
GeoJSON FeatureCollection. Pass --bbox "minLon,minLat,maxLon,maxLat", or
--lon/--lat with --radius in miles.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		county, _ := cmd.Flags().GetString("county")
		rawBBox, _ := cmd.Flags().GetString("bbox")
		radius, _ := cmd.Flags().GetFloat64("radius")
		pretty, _ := cmd.Flags().GetBool("pretty")

		if rawBBox == "" && radius == 0 {
			return eris.New("parcels query: one of --bbox or --radius is required")
		}
		if rawBBox != "" && radius != 0 {
			return eris.New("parcels query: --bbox and --radius are mutually exclusive")
		}

		reg, cleanup, err := buildRegistry(ctx, cfg.Parcel, county)
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := countyProvider(ctx, reg, county)
		if err != nil {
			return err
		}

		var features []parcel.Feature
		if rawBBox != "" {
			bbox, err := geometry.ParseBBox(rawBBox)
			if err != nil {
				return err
			}
			features, err = p.Query(ctx, bbox)
			if err != nil {
				return err
			}
		} else {
			lon, _ := cmd.Flags().GetFloat64("lon")
			lat, _ := cmd.Flags().GetFloat64("lat")
			features, err = parcel.SearchRadius(ctx, p, lon, lat, radius, geometry.DefaultMatcher)
			if err != nil {
				return err
			}
		}

		zap.L().Info("parcels query complete",
			zap.String("county", p.County()),
			zap.Int("features", len(features)),
		)

		return writeJSON(cmd.OutOrStdout(), parcel.NewFeatureCollection(features), pretty)
	},
}

var parcelsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch one parcel by identifier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		county, _ := cmd.Flags().GetString("county")
		id, _ := cmd.Flags().GetString("id")
		pretty, _ := cmd.Flags().GetBool("pretty")

		if id == "" {
			return eris.New("parcels get: --id is required")
		}

		reg, cleanup, err := buildRegistry(ctx, cfg.Parcel, county)
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := countyProvider(ctx, reg, county)
		if err != nil {
			return err
		}

		f, err := p.FetchByParcelID(ctx, id, p.County())
		if err != nil {
			return err
		}
		if f == nil {
			return eris.Errorf("parcels get: parcel %q not found in %s", id, p.County())
		}

		return writeJSON(cmd.OutOrStdout(), f.GeoJSON(), pretty)
	},
}

func init() {
	parcelsQueryCmd.Flags().String("county", "", "county to query")
	parcelsQueryCmd.Flags().String("bbox", "", "bounding box as minLon,minLat,maxLon,maxLat")
	parcelsQueryCmd.Flags().Float64("lon", 0, "search center longitude")
	parcelsQueryCmd.Flags().Float64("lat", 0, "search center latitude")
	parcelsQueryCmd.Flags().Float64("radius", 0, "search radius in miles")
	parcelsQueryCmd.Flags().Bool("pretty", false, "indent JSON output")
	parcelsCmd.AddCommand(parcelsQueryCmd)

	parcelsGetCmd.Flags().String("county", "", "county to query")
	parcelsGetCmd.Flags().String("id", "", "parcel identifier")
	parcelsGetCmd.Flags().Bool("pretty", false, "indent JSON output")
	parcelsCmd.AddCommand(parcelsGetCmd)
}
