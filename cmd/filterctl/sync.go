package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/app"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
)

// newSyncCmd runs a full facet synchronization and prints the report.
func newSyncCmd(load configLoader) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Derive filter options from every active product",
		Long: `sync scans every active product, derives filter keys and options from
specs and specs_detail, and rewrites each product's facet values. Running it
twice on an unchanged catalog changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report, err := a.Sync.SyncFilterOptionsFromProducts(ctx)
			if err != nil {
				return err
			}
			logger.WithComponent("filterctl").Info().
				Int("created", report.Created).
				Int("updated", report.Updated).
				Int("skipped", report.SkippedEntries).
				Msg("sync finished")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "abort the run after this long")
	return cmd
}
