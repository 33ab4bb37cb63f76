// Package codegen renders the bootstrap file formats from their Go
// definitions: JSON Schemas for editor tooling and YAML defaults matching the
// compiled-in bootstrap. internal/config stays the single source of truth.
package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

// GenerateJSONSchema generates JSON Schema files for the YAML bootstrap documents
func GenerateJSONSchema(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		ExpandedStruct:            true,
	}

	providers := reflector.Reflect(&config.ProviderDocument{})
	providers.Title = "Lookup Provider Registry"
	providers.Description = "Ordered upstream provider registry; declaration order is the ranking tie-break order"

	providersPath := filepath.Join(outputDir, "providers.schema.json")
	if err := writeSchemaFile(providersPath, providers); err != nil {
		return fmt.Errorf("write providers schema: %w", err)
	}
	fmt.Printf("✓ Generated %s\n", providersPath)

	vocabulary := reflector.Reflect(&lookup.Vocabulary{})
	vocabulary.Title = "Context Classifier Vocabulary"
	vocabulary.Description = "Token sets and regular expressions backing the organizational, juridical and legal-basis categories"

	vocabularyPath := filepath.Join(outputDir, "vocabulary.schema.json")
	if err := writeSchemaFile(vocabularyPath, vocabulary); err != nil {
		return fmt.Errorf("write vocabulary schema: %w", err)
	}
	fmt.Printf("✓ Generated %s\n", vocabularyPath)

	return nil
}

func writeSchemaFile(path string, schema *jsonschema.Schema) error {
	data, err := schema.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
