package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codegen",
	Short: "Serialization code generation worker",
	Long: `Generates the master pool of serialization codes and allocates unit
codes and SSCCs to pending code generation requests.`,
	SilenceUsage: true,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
