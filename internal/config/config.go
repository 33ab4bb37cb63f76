package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the lookup server.
type Config struct {
	// HTTP server, using LOOKUP_ prefix to avoid collisions
	HTTPPort        string `env:"LOOKUP_HTTP_PORT" envDefault:"8094"`
	ShutdownTimeout int    `env:"LOOKUP_SHUTDOWN_TIMEOUT" envDefault:"10"`
	LogLevel        string `env:"LOOKUP_LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOOKUP_LOG_FORMAT" envDefault:"json"` // json or console

	// Engine tuning. Durations are in seconds.
	Workers           int `env:"LOOKUP_WORKERS" envDefault:"4"`
	DefaultTimeout    int `env:"LOOKUP_DEFAULT_TIMEOUT" envDefault:"15"`
	AttemptTimeout    int `env:"LOOKUP_ATTEMPT_TIMEOUT" envDefault:"5"`
	PreflightTimeout  int `env:"LOOKUP_PREFLIGHT_TIMEOUT" envDefault:"2"`
	DefaultMaxResults int `env:"LOOKUP_DEFAULT_MAX_RESULTS" envDefault:"10"`
	BreakerThreshold  int `env:"LOOKUP_BREAKER_THRESHOLD" envDefault:"6"`
	SRUMaxRecords     int `env:"LOOKUP_SRU_MAX_RECORDS" envDefault:"20"`

	// Bootstrap files. Empty values fall back to the compiled-in defaults.
	ProvidersFile  string `env:"LOOKUP_PROVIDERS_FILE"`
	VocabularyFile string `env:"LOOKUP_VOCABULARY_FILE"`

	// Outbound HTTP client performance
	HTTPMaxConnsPerHost int    `env:"LOOKUP_HTTP_MAX_CONNS_PER_HOST" envDefault:"50"`
	HTTPMaxIdleConns    int    `env:"LOOKUP_HTTP_MAX_IDLE_CONNS" envDefault:"100"`
	HTTPIdleConnTimeout int    `env:"LOOKUP_HTTP_IDLE_CONN_TIMEOUT" envDefault:"90"`
	HTTPUserAgent       string `env:"LOOKUP_HTTP_USER_AGENT" envDefault:"definitie-lookup-server/1.0"`

	// CORS
	CORSAllowOrigins []string `env:"LOOKUP_CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	// Observability
	ServiceName      string `env:"LOOKUP_SERVICE_NAME" envDefault:"lookup-server"`
	ServiceNamespace string `env:"LOOKUP_SERVICE_NAMESPACE" envDefault:"definitie"`
	Environment      string `env:"LOOKUP_ENVIRONMENT" envDefault:"development"`
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("LOOKUP_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("LOOKUP_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}

	if cfg.ShutdownTimeout < 1 {
		return nil, fmt.Errorf("LOOKUP_SHUTDOWN_TIMEOUT must be >= 1, got %d", cfg.ShutdownTimeout)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("LOOKUP_WORKERS must be >= 1, got %d", cfg.Workers)
	}
	if cfg.DefaultTimeout < 1 {
		return nil, fmt.Errorf("LOOKUP_DEFAULT_TIMEOUT must be >= 1, got %d", cfg.DefaultTimeout)
	}
	if cfg.AttemptTimeout < 1 {
		return nil, fmt.Errorf("LOOKUP_ATTEMPT_TIMEOUT must be >= 1, got %d", cfg.AttemptTimeout)
	}
	if cfg.PreflightTimeout < 1 {
		return nil, fmt.Errorf("LOOKUP_PREFLIGHT_TIMEOUT must be >= 1, got %d", cfg.PreflightTimeout)
	}
	if cfg.DefaultMaxResults < 1 {
		return nil, fmt.Errorf("LOOKUP_DEFAULT_MAX_RESULTS must be >= 1, got %d", cfg.DefaultMaxResults)
	}
	if cfg.BreakerThreshold < 1 {
		return nil, fmt.Errorf("LOOKUP_BREAKER_THRESHOLD must be >= 1, got %d", cfg.BreakerThreshold)
	}
	if cfg.SRUMaxRecords < 1 {
		return nil, fmt.Errorf("LOOKUP_SRU_MAX_RECORDS must be >= 1, got %d", cfg.SRUMaxRecords)
	}
	return cfg, nil
}
