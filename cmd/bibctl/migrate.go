package main

import (
	"github.com/spf13/cobra"

	"bibliophage/internal/app"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schemas of the configured stores",
		Long: `Creates the SQLite tables, the MongoDB indexes when DOC_STORE=mongo,
and the pgvector schema when VECTOR_BACKEND=pgvector. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			cmd.Println("Migrations applied.")
			return nil
		},
	}
}
