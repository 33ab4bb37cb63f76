package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/definitie-platform/lookup-server/internal/config"
)

const providersHeader = `# Lookup Server Provider Registry
# Generated from internal/config/providers.go
# DO NOT EDIT MANUALLY - this file is auto-generated
#
# Provider order is the ranking tie-break order.

`

const vocabularyHeader = `# Lookup Server Classifier Vocabulary
# Generated from internal/config/vocabulary.go
# DO NOT EDIT MANUALLY - this file is auto-generated

`

// GenerateDefaultsYAML writes providers.yml and vocabulary.yml from the
// compiled-in bootstrap defaults
func GenerateDefaultsYAML(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	providersPath := filepath.Join(outputDir, "providers.yml")
	doc := config.ProviderDocument{Providers: config.DefaultProviders()}
	if err := writeYAMLFile(providersPath, providersHeader, doc); err != nil {
		return fmt.Errorf("write providers defaults: %w", err)
	}
	fmt.Printf("✓ Generated %s\n", providersPath)

	vocabularyPath := filepath.Join(outputDir, "vocabulary.yml")
	if err := writeYAMLFile(vocabularyPath, vocabularyHeader, config.DefaultVocabulary()); err != nil {
		return fmt.Errorf("write vocabulary defaults: %w", err)
	}
	fmt.Printf("✓ Generated %s\n", vocabularyPath)

	return nil
}

func writeYAMLFile(path, header string, value any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return encoder.Close()
}
