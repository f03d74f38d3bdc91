package main

import (
	"codegen-backend/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requirePostgres(); err != nil {
			return err
		}
		migrator, err := database.NewMigrator(a.db)
		if err != nil {
			return err
		}
		return migrator.RunMigrations(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
