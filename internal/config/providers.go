package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/logger"
)

// ProviderDocument is the on-disk shape of a providers bootstrap file.
type ProviderDocument struct {
	Providers []provider.Config `yaml:"providers" json:"providers"`
}

// DefaultProviders returns the compiled-in provider set: the Dutch statute and
// case-law registries plus the encyclopedic fallback. Declaration order is the
// ranking tie-break order.
func DefaultProviders() []provider.Config {
	return []provider.Config{
		{
			ID:            "bwb",
			Endpoint:      "https://zoekservice.overheid.nl/sru/Search",
			Family:        provider.FamilySRU,
			RecallBias:    provider.BiasStructuredIndex,
			Weight:        0.95,
			Authoritative: true,
			Enabled:       true,
			RecordSchemas: []string{"gzd", "dc"},
			LinkTemplate:  "https://wetten.overheid.nl/%s",
			Params:        map[string]string{"x-connection": "BWB"},
		},
		{
			ID:            "cvdr",
			Endpoint:      "https://zoekservice.overheid.nl/sru/Search",
			Family:        provider.FamilySRU,
			RecallBias:    provider.BiasStructuredIndex,
			Weight:        0.85,
			Authoritative: true,
			Enabled:       true,
			RecordSchemas: []string{"gzd", "dc"},
			LinkTemplate:  "https://lokaleregelgeving.overheid.nl/%s",
			Params:        map[string]string{"x-connection": "cvdr"},
		},
		{
			ID:           "rechtspraak",
			Endpoint:     "https://data.rechtspraak.nl/uitspraken/zoeken",
			Family:       provider.FamilySRU,
			RecallBias:   provider.BiasBroadRecall,
			Weight:       0.8,
			Enabled:      true,
			Preflight:    true,
			LinkTemplate: "https://uitspraken.rechtspraak.nl/details?id=%s",
		},
		{
			ID:            "ecli",
			Endpoint:      "https://data.rechtspraak.nl/uitspraken/content",
			Family:        provider.FamilyECLI,
			Weight:        0.9,
			Authoritative: true,
			Enabled:       true,
			LinkTemplate:  "https://uitspraken.rechtspraak.nl/details?id=%s",
		},
		{
			ID:       "wikipedia",
			Endpoint: "https://nl.wikipedia.org/api/rest_v1",
			Family:   provider.FamilyWiki,
			Weight:   0.6,
			Enabled:  true,
		},
	}
}

// LoadProviders builds the registry from LOOKUP_PROVIDERS_FILE, or from the
// compiled-in defaults when no file is configured. Invalid entries fail the
// whole load; a server with a half-valid provider set must not start.
func LoadProviders(cfg *Config) (*provider.Registry, error) {
	entries := DefaultProviders()
	if cfg.ProvidersFile != "" {
		log := logger.GetLogger()
		cleanPath := filepath.Clean(cfg.ProvidersFile)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("read providers file %q: %w", cleanPath, err)
		}
		var doc ProviderDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse providers file %q: %w", cleanPath, err)
		}
		if len(doc.Providers) == 0 {
			return nil, fmt.Errorf("providers file %q has no providers defined", cleanPath)
		}
		log.Info().Str("path", cleanPath).Int("providers", len(doc.Providers)).Msg("loading providers file")
		entries = doc.Providers
	}
	return provider.NewRegistry(entries, cfg.BreakerThreshold)
}
