package provider

import (
	"fmt"
	"net/url"
)

// Family identifies the wire protocol a provider speaks.
type Family string

const (
	// FamilySRU covers searchRetrieve registries queried with CQL (statute and
	// case-law collections).
	FamilySRU Family = "sru"
	// FamilyECLI covers case-law identifier resolution endpoints.
	FamilyECLI Family = "ecli"
	// FamilyWiki covers encyclopedic best-match title lookups.
	FamilyWiki Family = "wiki"
)

// RecallBias groups SRU providers by how added query context affects their
// recall. Broad-recall registries regress when context narrows the query, so
// they are tried term-first; structured indexes benefit from legal-basis
// context and are tried context-first.
type RecallBias string

const (
	BiasBroadRecall     RecallBias = "broad-recall"
	BiasStructuredIndex RecallBias = "structured-index"
)

// Config describes one upstream provider. Instances are immutable after the
// registry is constructed.
type Config struct {
	ID               string            `yaml:"id" json:"id"`
	Endpoint         string            `yaml:"endpoint" json:"endpoint"`
	Family           Family            `yaml:"family" json:"family"`
	RecallBias       RecallBias        `yaml:"recall_bias,omitempty" json:"recall_bias,omitempty"`
	Weight           float64           `yaml:"weight" json:"weight"`
	Authoritative    bool              `yaml:"authoritative" json:"authoritative"`
	Enabled          bool              `yaml:"enabled" json:"enabled"`
	BreakerThreshold int               `yaml:"breaker_threshold,omitempty" json:"breaker_threshold,omitempty"`
	Preflight        bool              `yaml:"preflight,omitempty" json:"preflight,omitempty"`
	RecordSchemas    []string          `yaml:"record_schemas,omitempty" json:"record_schemas,omitempty"`
	// LinkTemplate renders a browsable URL from a bare record identifier
	// ("https://wetten.overheid.nl/%s"). Records carrying their own URL win.
	LinkTemplate string `yaml:"link_template,omitempty" json:"link_template,omitempty"`
	// Params are extra query parameters sent verbatim on every request to the
	// provider.
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// ConfigError reports an invalid provider configuration field.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q: invalid field %q: %s", e.Provider, e.Field, e.Message)
}

func configErr(provider, field, message string) error {
	return &ConfigError{Provider: provider, Field: field, Message: message}
}

// Validate checks a single provider config. The registry calls it after
// applying global defaults, so BreakerThreshold must already be resolved.
func (c Config) Validate() error {
	if c.ID == "" {
		return configErr(c.ID, "id", "must not be empty")
	}
	if c.Endpoint == "" {
		return configErr(c.ID, "endpoint", "must not be empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		return configErr(c.ID, "endpoint", "must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return configErr(c.ID, "endpoint", "scheme must be http or https")
	}
	switch c.Family {
	case FamilySRU:
		if c.RecallBias != BiasBroadRecall && c.RecallBias != BiasStructuredIndex {
			return configErr(c.ID, "recall_bias", "sru providers must declare broad-recall or structured-index")
		}
	case FamilyECLI, FamilyWiki:
		if c.RecallBias != "" {
			return configErr(c.ID, "recall_bias", fmt.Sprintf("not applicable to family %q", c.Family))
		}
		if len(c.RecordSchemas) > 0 {
			return configErr(c.ID, "record_schemas", fmt.Sprintf("not applicable to family %q", c.Family))
		}
	default:
		return configErr(c.ID, "family", fmt.Sprintf("unknown family %q", c.Family))
	}
	if c.Weight < 0 || c.Weight > 1 {
		return configErr(c.ID, "weight", "must be within [0.0, 1.0]")
	}
	if c.BreakerThreshold < 1 {
		return configErr(c.ID, "breaker_threshold", "must be >= 1")
	}
	return nil
}
