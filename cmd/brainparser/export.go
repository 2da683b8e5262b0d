package main

import (
	"errors"

	"github.com/maltedev/brain-product-parser/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored products to a CSV file",
		Args:  cobra.NoArgs,
		RunE: guarded(a, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				output = a.cfg.Export.CSVPath
			}

			db, err := connectDB(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = export.ExportAll(ctx, db, output, a.logger)
			if errors.Is(err, export.ErrNoProducts) {
				return nil
			}
			return err
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path (default EXPORT_CSV_PATH)")

	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the products table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: guarded(a, func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := connectDB(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.EnsureSchema(ctx); err != nil {
				return err
			}
			a.logger.Info("schema is up to date")
			return nil
		}),
	}
}
