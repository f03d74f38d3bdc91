package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one request processing pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.processor.RunPass(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nPass Summary:")
		fmt.Printf("  Pending requests:  %d\n", stats.Pending)
		fmt.Printf("  Completed:         %d\n", stats.Completed)
		fmt.Printf("  Skipped:           %d\n", stats.Skipped)
		fmt.Printf("  Unit codes:        %d\n", stats.UnitCodes)
		fmt.Printf("  SSCC codes:        %d\n", stats.ContainerCodes)
		if stats.Shortfall > 0 {
			fmt.Printf("  Pool shortfall:    %d\n", stats.Shortfall)
		}
		fmt.Printf("  Duration:          %s\n", stats.FinishedAt.Sub(stats.StartedAt))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
