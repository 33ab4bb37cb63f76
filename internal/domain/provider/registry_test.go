package provider

import (
	"strings"
	"testing"
)

func validConfigs() []Config {
	return []Config{
		{
			ID:            "bwb",
			Endpoint:      "https://zoekservice.overheid.nl/sru/Search",
			Family:        FamilySRU,
			RecallBias:    BiasStructuredIndex,
			Weight:        0.95,
			Authoritative: true,
			Enabled:       true,
		},
		{
			ID:         "rechtspraak",
			Endpoint:   "https://data.rechtspraak.nl/uitspraken/zoeken",
			Family:     FamilySRU,
			RecallBias: BiasBroadRecall,
			Weight:     0.8,
			Enabled:    true,
			Preflight:  true,
		},
		{
			ID:       "wikipedia",
			Endpoint: "https://nl.wikipedia.org/api/rest_v1",
			Family:   FamilyWiki,
			Weight:   0.6,
			Enabled:  false,
		},
	}
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]Config) []Config
		wantErr string
	}{
		{
			name:   "valid set",
			mutate: func(c []Config) []Config { return c },
		},
		{
			name:    "empty set",
			mutate:  func(c []Config) []Config { return nil },
			wantErr: "no providers",
		},
		{
			name: "duplicate id",
			mutate: func(c []Config) []Config {
				dup := c[0]
				return append(c, dup)
			},
			wantErr: "duplicate provider id",
		},
		{
			name: "missing endpoint",
			mutate: func(c []Config) []Config {
				c[1].Endpoint = ""
				return c
			},
			wantErr: "endpoint",
		},
		{
			name: "relative endpoint",
			mutate: func(c []Config) []Config {
				c[0].Endpoint = "/sru/Search"
				return c
			},
			wantErr: "absolute URL",
		},
		{
			name: "unknown family",
			mutate: func(c []Config) []Config {
				c[2].Family = "gopher"
				return c
			},
			wantErr: "unknown family",
		},
		{
			name: "weight above one",
			mutate: func(c []Config) []Config {
				c[0].Weight = 1.5
				return c
			},
			wantErr: "weight",
		},
		{
			name: "sru without recall bias",
			mutate: func(c []Config) []Config {
				c[0].RecallBias = ""
				return c
			},
			wantErr: "recall_bias",
		},
		{
			name: "recall bias on wiki provider",
			mutate: func(c []Config) []Config {
				c[2].RecallBias = BiasBroadRecall
				return c
			},
			wantErr: "not applicable",
		},
		{
			name: "negative threshold",
			mutate: func(c []Config) []Config {
				c[1].BreakerThreshold = -2
				return c
			},
			wantErr: "breaker_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.mutate(validConfigs()), 2)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewRegistry() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("NewRegistry() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewRegistry() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg, err := NewRegistry(validConfigs(), 3)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	bwb, ok := reg.ByID("bwb")
	if !ok {
		t.Fatal("ByID(bwb) not found")
	}
	if bwb.BreakerThreshold != 3 {
		t.Errorf("default threshold not applied: got %d, want 3", bwb.BreakerThreshold)
	}
	if len(bwb.RecordSchemas) != 1 || bwb.RecordSchemas[0] != "dc" {
		t.Errorf("default record schemas not applied: got %v", bwb.RecordSchemas)
	}
}

func TestRegistryOrderAndEnabled(t *testing.T) {
	reg, err := NewRegistry(validConfigs(), 2)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("Enabled() returned %d providers, want 2", len(enabled))
	}
	if enabled[0].ID != "bwb" || enabled[1].ID != "rechtspraak" {
		t.Errorf("Enabled() order = [%s %s], want declaration order", enabled[0].ID, enabled[1].ID)
	}

	if got := reg.Order("bwb"); got != 0 {
		t.Errorf("Order(bwb) = %d, want 0", got)
	}
	if got := reg.Order("wikipedia"); got != 2 {
		t.Errorf("Order(wikipedia) = %d, want 2", got)
	}
	if got := reg.Order("nosuch"); got != reg.Len() {
		t.Errorf("Order(nosuch) = %d, want %d", got, reg.Len())
	}
}
