package infrastructure

import (
	"time"

	"github.com/google/wire"
	"go.opentelemetry.io/otel"

	"github.com/definitie-platform/lookup-server/internal/config"
	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/ecli"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/httpclient"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/metrics"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/observability"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/sru"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/wiki"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Provider registry and classifier vocabulary
	ProvideRegistry,
	ProvideVocabulary,

	// Protocol clients
	ProvideProtocolClients,

	// Engine tuning and instrumentation
	ProvideEngineOptions,
	ProvideObserver,
	ProvideUnitInstrumenter,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideRegistry builds the provider registry from the bootstrap file, or
// from the compiled-in defaults when none is configured.
func ProvideRegistry(cfg *config.Config) (*provider.Registry, error) {
	return config.LoadProviders(cfg)
}

// ProvideVocabulary loads the context-classifier vocabulary.
func ProvideVocabulary(cfg *config.Config) (lookup.Vocabulary, error) {
	return config.LoadVocabulary(cfg)
}

// ProvideProtocolClients provides one client per protocol family. The engine
// routes each provider to its family's client, so the slice order carries no
// meaning.
func ProvideProtocolClients(cfg *config.Config) []lookup.ProtocolClient {
	preflight := time.Duration(cfg.PreflightTimeout) * time.Second
	return []lookup.ProtocolClient{
		sru.NewClient(sru.ClientConfig{
			HTTP:             outboundHTTP(cfg),
			PreflightTimeout: preflight,
			MaxRecords:       cfg.SRUMaxRecords,
		}),
		ecli.NewClient(ecli.ClientConfig{
			HTTP:             outboundHTTP(cfg),
			PreflightTimeout: preflight,
		}),
		wiki.NewClient(wiki.ClientConfig{
			HTTP:             outboundHTTP(cfg),
			PreflightTimeout: preflight,
		}),
	}
}

func outboundHTTP(cfg *config.Config) httpclient.Config {
	return httpclient.Config{
		Timeout:         time.Duration(cfg.AttemptTimeout) * time.Second,
		MaxConnsPerHost: cfg.HTTPMaxConnsPerHost,
		MaxIdleConns:    cfg.HTTPMaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.HTTPIdleConnTimeout) * time.Second,
		UserAgent:       cfg.HTTPUserAgent,
	}
}

// ProvideEngineOptions maps configuration onto engine tuning options.
func ProvideEngineOptions(cfg *config.Config) lookup.Options {
	return lookup.Options{
		Workers:           cfg.Workers,
		DefaultTimeout:    time.Duration(cfg.DefaultTimeout) * time.Second,
		DefaultMaxResults: cfg.DefaultMaxResults,
	}
}

// ProvideObserver provides the Prometheus-backed engine observer.
func ProvideObserver() lookup.Observer {
	return metrics.NewEngineObserver()
}

// ProvideUnitInstrumenter provides the tracing wrapper around provider units.
// The global tracer and meter delegate to the real providers once
// observability.Setup installs them at startup.
func ProvideUnitInstrumenter(cfg *config.Config) (lookup.UnitInstrumenter, error) {
	return observability.NewUnitInstrumenter(
		otel.Tracer(cfg.ServiceName),
		otel.Meter(cfg.ServiceName),
		cfg.ServiceName,
	)
}
