package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generatePoolCmd = &cobra.Command{
	Use:   "generate-pool",
	Short: "Run one master pool generation synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.generator.Generate(cmd.Context())
		if stats != nil {
			fmt.Println("\nPool Generation Summary:")
			fmt.Printf("  Mode:        %s\n", stats.Mode)
			fmt.Printf("  Target:      %d\n", stats.Target)
			fmt.Printf("  Inserted:    %d\n", stats.Inserted)
			fmt.Printf("  Collisions:  %d\n", stats.Collisions)
			fmt.Printf("  Lots:        %d\n", stats.Lots)
			fmt.Printf("  Duration:    %s\n", stats.FinishedAt.Sub(stats.StartedAt))
		}
		return err
	},
}

var checkCapacityCmd = &cobra.Command{
	Use:   "check-capacity",
	Short: "Run one capacity check and wait for any triggered pool run",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.monitor.Check(cmd.Context())
		if err != nil {
			return err
		}
		a.generator.Wait()

		fmt.Printf("Total generated: %d, threshold: %.0f, outcome: %s\n",
			report.TotalCodeGenerated, report.Threshold, report.Outcome)
		if stats := a.generator.LastStats(); stats != nil && stats.Error != "" {
			return fmt.Errorf("pool run failed: %s", stats.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generatePoolCmd)
	rootCmd.AddCommand(checkCapacityCmd)
}
