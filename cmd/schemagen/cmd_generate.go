package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/definitie-platform/lookup-server/internal/config/codegen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate JSON Schemas and YAML defaults from the Go bootstrap structs",
	Long: `Generate JSON Schema files and default YAML bootstrap files from the
definitions in internal/config. The committed configs/ files are the output of
this command; edit the Go defaults and regenerate instead of editing YAML.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("output", "o", "configs", "Output directory for generated files")
	generateCmd.Flags().Bool("schema-only", false, "Generate only JSON schemas")
	generateCmd.Flags().Bool("yaml-only", false, "Generate only YAML defaults")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	schemaOnly, _ := cmd.Flags().GetBool("schema-only")
	yamlOnly, _ := cmd.Flags().GetBool("yaml-only")

	if !yamlOnly {
		schemaDir := filepath.Join(outputDir, "schema")
		if err := codegen.GenerateJSONSchema(schemaDir); err != nil {
			return fmt.Errorf("generate JSON schema: %w", err)
		}
	}

	if !schemaOnly {
		if err := codegen.GenerateDefaultsYAML(outputDir); err != nil {
			return fmt.Errorf("generate YAML defaults: %w", err)
		}
	}

	return nil
}
