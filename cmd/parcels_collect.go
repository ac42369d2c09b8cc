package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/collection"
)

var parcelsCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Assemble loosely shaped records into a GeoJSON FeatureCollection",
	Long: `Reads a JSON array of records and prints a FeatureCollection. Records without a usable geometry or coordinate
pair are dropped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		county, _ := cmd.Flags().GetString("county")
		input, _ := cmd.Flags().GetString("input")
		pretty, _ := cmd.Flags().GetBool("pretty")

		rc, err := openInput(cmd, input)
		if err != nil {
			return err
		}
		defer rc.Close() //nolint:errcheck

		data, err := io.ReadAll(rc)
		if err != nil {
			return eris.Wrap(err, "parcels collect: read input")
		}

		fc, err := collection.AssembleJSON(data, county)
		if err != nil {
			return err
		}

		zap.L().Info("parcels collect complete",
			zap.String("county", county),
			zap.Int("features", len(fc.Features)),
		)

		return writeJSON(cmd.OutOrStdout(), fc, pretty)
	},
}

func init() {
	parcelsCollectCmd.Flags().String("county", "", "county stamped on every feature")
	parcelsCollectCmd.Flags().String("input", "-", `records file ("-" for stdin)`)
	parcelsCollectCmd.Flags().Bool("pretty", false, "indent JSON output")
	parcelsCmd.AddCommand(parcelsCollectCmd)
}
