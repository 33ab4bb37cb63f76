package provider

import "fmt"

// defaultSRUSchemas is requested when an SRU provider does not pin its own
// response-schema fallback order.
var defaultSRUSchemas = []string{"dc"}

// Registry is the ordered, validated provider set. Declaration order doubles
// as the ranking tie-break priority, so the registry preserves it exactly as
// configured. A registry never changes after construction.
type Registry struct {
	configs []Config
	index   map[string]int
}

// NewRegistry validates every config, applies the global breaker threshold to
// entries that do not override it, and freezes the declaration order.
func NewRegistry(configs []Config, defaultThreshold int) (*Registry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("provider registry: no providers configured")
	}
	if defaultThreshold < 1 {
		return nil, fmt.Errorf("provider registry: default breaker threshold must be >= 1, got %d", defaultThreshold)
	}

	r := &Registry{
		configs: make([]Config, 0, len(configs)),
		index:   make(map[string]int, len(configs)),
	}
	for i, cfg := range configs {
		if cfg.BreakerThreshold == 0 {
			cfg.BreakerThreshold = defaultThreshold
		}
		if cfg.Family == FamilySRU && len(cfg.RecordSchemas) == 0 {
			cfg.RecordSchemas = append([]string(nil), defaultSRUSchemas...)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("provider registry: entry %d: %w", i, err)
		}
		if _, dup := r.index[cfg.ID]; dup {
			return nil, fmt.Errorf("provider registry: duplicate provider id %q", cfg.ID)
		}
		r.index[cfg.ID] = i
		r.configs = append(r.configs, cfg)
	}
	return r, nil
}

// All returns every provider in declaration order.
func (r *Registry) All() []Config {
	out := make([]Config, len(r.configs))
	copy(out, r.configs)
	return out
}

// Enabled returns the enabled providers in declaration order.
func (r *Registry) Enabled() []Config {
	out := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out
}

// ByID looks a provider up by identifier.
func (r *Registry) ByID(id string) (Config, bool) {
	i, ok := r.index[id]
	if !ok {
		return Config{}, false
	}
	return r.configs[i], true
}

// Order returns the declaration index of a provider, or len(registry) for an
// unknown id so unknown sources always sort last.
func (r *Registry) Order(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return len(r.configs)
}

// Len reports the number of registered providers.
func (r *Registry) Len() int {
	return len(r.configs)
}
