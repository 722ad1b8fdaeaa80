package main

import (
	"context"

	"github.com/spf13/cobra"

	"bibliophage/internal/app"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation sweep",
		Long: `Removes PDFs abandoned mid-ingestion, deletes vectors whose parent record
no longer exists, and reports PDFs whose chunk count disagrees with the index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
				report, err := engine.Reconciler.Sweep(ctx)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, report)
				}
				cmd.Printf("Stale PDFs removed:     %d\n", len(report.StalePdfs))
				cmd.Printf("Orphan vector sets:     %d\n", len(report.OrphanVectors))
				cmd.Printf("Inconsistent PDFs:      %d\n", len(report.Inconsistent))
				for _, id := range report.Inconsistent {
					cmd.Printf("  %s\n", id)
				}
				return nil
			})
		},
	}
}
