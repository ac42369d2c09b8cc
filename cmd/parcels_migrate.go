package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-geo/internal/config"
	"github.com/sells-group/parcel-geo/internal/parcel"
)

var parcelsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create PostGIS parcel tables for postgis counties",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reg, cleanup, err := buildRegistry(ctx, cfg.Parcel, "")
		if err != nil {
			return err
		}
		defer cleanup()

		migrated := 0
		for _, cc := range cfg.Parcel.Counties {
			if cc.Source != config.SourcePostGIS {
				continue
			}
			p, err := reg.Get(cc.Name)
			if err != nil {
				return err
			}
			pg, ok := p.(*parcel.PostGISProvider)
			if !ok {
				continue
			}
			if err := pg.EnsureSchema(ctx); err != nil {
				return err
			}
			migrated++
			zap.L().Info("parcel schema ready", zap.String("county", cc.Name))
		}

		printf(cmd, "Migrated %d postgis counties\n", migrated)
		return nil
	},
}

func init() {
	parcelsCmd.AddCommand(parcelsMigrateCmd)
}
