package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"codegen-backend/internal/cache"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

var resetYes bool

// Tables cleared by reset-pool; per-generation unit tables are left alone.
var resetTables = []string{
	"codes_generated",
	"code_generation_summary",
	"sscc_code_summary",
	"sscc_codes",
}

var resetPoolCmd = &cobra.Command{
	Use:   "reset-pool",
	Short: "Clear the master pool and allocation cursors (test environments only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requirePostgres(); err != nil {
			return err
		}

		if !resetYes {
			fmt.Println("WARNING: this deletes every pool code and allocation cursor.")
			fmt.Print("Type 'yes' to confirm: ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(answer) != "yes" {
				fmt.Println("Reset cancelled.")
				return nil
			}
		}

		tx, err := a.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin reset: %w", err)
		}
		defer tx.Rollback(ctx)

		for _, table := range resetTables {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
				return fmt.Errorf("check %s: %w", table, err)
			}
			if !exists {
				continue
			}
			if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()+" RESTART IDENTITY"); err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
			fmt.Printf("  Cleared %s\n", table)
		}

		if _, err := tx.Exec(ctx, `UPDATE superadmin_configuration SET total_code_generated = 0, updated_at = NOW()`); err != nil {
			return fmt.Errorf("reset generated total: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit reset: %w", err)
		}
		cache.InvalidateSuperConfig(ctx)

		fmt.Println("Pool reset complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetPoolCmd)
	resetPoolCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}
