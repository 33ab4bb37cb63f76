package codegen_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/config/codegen"
	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

// TestBootstrapDrift regenerates the bootstrap defaults and verifies that the
// committed configs/ files still describe the same providers and vocabulary.
// Changes belong in internal/config; the YAML files follow via schemagen.
func TestBootstrapDrift(t *testing.T) {
	projectRoot, err := getProjectRoot()
	if err != nil {
		t.Fatalf("locate project root: %v", err)
	}

	genDir := t.TempDir()
	if err := codegen.GenerateDefaultsYAML(genDir); err != nil {
		t.Fatalf("generate YAML defaults: %v", err)
	}

	var generated, committed config.ProviderDocument
	decodeYAML(t, filepath.Join(genDir, "providers.yml"), &generated)
	decodeYAML(t, filepath.Join(projectRoot, "configs", "providers.yml"), &committed)
	if !reflect.DeepEqual(generated, committed) {
		t.Errorf("provider drift: configs/providers.yml no longer matches DefaultProviders()\n"+
			"regenerate with: go run ./cmd/schemagen generate\ngenerated: %+v\ncommitted: %+v",
			generated, committed)
	}

	var generatedVocab, committedVocab lookup.Vocabulary
	decodeYAML(t, filepath.Join(genDir, "vocabulary.yml"), &generatedVocab)
	decodeYAML(t, filepath.Join(projectRoot, "configs", "vocabulary.yml"), &committedVocab)
	if !reflect.DeepEqual(generatedVocab, committedVocab) {
		t.Errorf("vocabulary drift: configs/vocabulary.yml no longer matches DefaultVocabulary()\n"+
			"regenerate with: go run ./cmd/schemagen generate\ngenerated: %+v\ncommitted: %+v",
			generatedVocab, committedVocab)
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	dir := t.TempDir()
	if err := codegen.GenerateJSONSchema(dir); err != nil {
		t.Fatalf("generate JSON schemas: %v", err)
	}

	wantProperties := map[string][]string{
		"providers.schema.json":  {"providers"},
		"vocabulary.schema.json": {"organizational", "juridical", "legal_basis", "legal_basis_patterns"},
	}
	for name, want := range wantProperties {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var schema struct {
			Title      string                     `json:"title"`
			Properties map[string]json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(data, &schema); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if schema.Title == "" {
			t.Errorf("%s: missing title", name)
		}
		for _, property := range want {
			if _, ok := schema.Properties[property]; !ok {
				t.Errorf("%s: missing property %q", name, property)
			}
		}
	}
}

func decodeYAML(t *testing.T, path string, out any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
