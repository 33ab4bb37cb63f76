package lookup

import "time"

// Request is one lookup invocation. Instances are owned by the caller and
// never mutated by the engine.
type Request struct {
	// Term is the expression to resolve. The only fatal input error is an
	// empty term.
	Term string `json:"term"`
	// Context is an opaque free-form hint string ("UWV | bestuursrecht | Awb").
	// May be empty.
	Context string `json:"context,omitempty"`
	// MaxResults bounds the ranked output. Values below 1 fall back to the
	// configured default.
	MaxResults int `json:"max_results,omitempty"`
	// Timeout is the overall deadline for the whole fan-out. Zero falls back
	// to the configured default.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Source describes where a result came from.
type Source struct {
	Provider      string  `json:"provider"`
	URL           string  `json:"url"`
	Weight        float64 `json:"weight"`
	Authoritative bool    `json:"authoritative"`
}

// Result is one candidate definition snippet. Produced by a protocol client,
// re-ranked by the aggregator, read-only afterwards.
type Result struct {
	Term    string `json:"term"`
	Snippet string `json:"snippet"`
	Source  Source `json:"source"`
	// Confidence is the effective ranking score (base weight scaled by context
	// relevance). Populated by the aggregator.
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ContextTokens holds the classified context split into three disjoint
// categories. Built once per request and shared read-only by every provider
// unit.
type ContextTokens struct {
	Organizational []string `json:"organizational,omitempty"`
	Juridical      []string `json:"juridical,omitempty"`
	LegalBasis     []string `json:"legal_basis,omitempty"`
}

// Empty reports whether no context token was classified.
func (t ContextTokens) Empty() bool {
	return len(t.Organizational) == 0 && len(t.Juridical) == 0 && len(t.LegalBasis) == 0
}

// All returns every token, most specific category first.
func (t ContextTokens) All() []string {
	out := make([]string, 0, len(t.LegalBasis)+len(t.Juridical)+len(t.Organizational))
	out = append(out, t.LegalBasis...)
	out = append(out, t.Juridical...)
	out = append(out, t.Organizational...)
	return out
}

// Stage labels. A stage names the context subset a query attempt carries.
const (
	StageLegalBasis = "legal-basis"
	StageTermOnly   = "term-only"
)

// QueryStage pairs a stage label with the token subset it carries. Stages for
// a provider are planned once and consumed in order.
type QueryStage struct {
	Label  string   `json:"label"`
	Tokens []string `json:"tokens,omitempty"`
}

func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Vocabulary is the static classifier configuration: which abbreviations and
// names fall into which category, plus regex patterns recognizing canonical
// statute-abbreviation shapes.
type Vocabulary struct {
	Organizational     []string `yaml:"organizational" json:"organizational"`
	Juridical          []string `yaml:"juridical" json:"juridical"`
	LegalBasis         []string `yaml:"legal_basis" json:"legal_basis"`
	LegalBasisPatterns []string `yaml:"legal_basis_patterns" json:"legal_basis_patterns"`
}
