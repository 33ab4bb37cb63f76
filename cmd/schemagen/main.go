package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "schemagen",
	Short: "Maintain the lookup-server bootstrap configuration files",
	Long: `schemagen maintains the YAML bootstrap files the lookup server reads at
startup (configs/providers.yml, configs/vocabulary.yml).

Examples:
  # Regenerate JSON Schemas and YAML defaults under configs/
  schemagen generate

  # Check hand-edited bootstrap files before deploying them
  schemagen validate --providers my-providers.yml`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
}
