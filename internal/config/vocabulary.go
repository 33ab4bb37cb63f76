package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/logger"
)

// DefaultVocabulary returns the compiled-in classifier vocabulary: Dutch
// executive agencies, fields of law and statute abbreviations, plus patterns
// for the canonical statute-name and article-reference shapes the sets cannot
// enumerate.
func DefaultVocabulary() lookup.Vocabulary {
	return lookup.Vocabulary{
		Organizational: []string{
			"UWV", "SVB", "IND", "DUO", "CJIB", "OM", "DJI", "RDW", "NVWA",
			"Belastingdienst", "Kadaster", "KVK",
		},
		Juridical: []string{
			"bestuursrecht", "strafrecht", "civielrecht", "privaatrecht",
			"belastingrecht", "vreemdelingenrecht", "arbeidsrecht",
			"socialezekerheidsrecht", "omgevingsrecht", "insolventierecht",
		},
		LegalBasis: []string{
			"Awb", "BW", "Sr", "Sv", "Rv", "WW", "WIA", "ZW", "Wmo", "Wlz",
			"Zvw", "AWR", "Wabo", "Gw", "WOZ", "Wob", "Woo",
		},
		LegalBasisPatterns: []string{
			`^W[a-z]{2,8}$`,
			`^[0-9]+:[0-9]+[a-z]?$`,
		},
	}
}

// LoadVocabulary reads LOOKUP_VOCABULARY_FILE, or returns the compiled-in
// defaults when no file is configured. Pattern validity is checked by the
// classifier constructor, not here.
func LoadVocabulary(cfg *Config) (lookup.Vocabulary, error) {
	if cfg.VocabularyFile == "" {
		return DefaultVocabulary(), nil
	}
	log := logger.GetLogger()
	cleanPath := filepath.Clean(cfg.VocabularyFile)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return lookup.Vocabulary{}, fmt.Errorf("read vocabulary file %q: %w", cleanPath, err)
	}
	var vocab lookup.Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return lookup.Vocabulary{}, fmt.Errorf("parse vocabulary file %q: %w", cleanPath, err)
	}
	if len(vocab.Organizational) == 0 && len(vocab.Juridical) == 0 &&
		len(vocab.LegalBasis) == 0 && len(vocab.LegalBasisPatterns) == 0 {
		return lookup.Vocabulary{}, fmt.Errorf("vocabulary file %q defines no categories", cleanPath)
	}
	log.Info().Str("path", cleanPath).Msg("loading vocabulary file")
	return vocab, nil
}
