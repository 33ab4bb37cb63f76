package lookup

import (
	"net/url"
	"sort"
	"strings"

	"github.com/definitie-platform/lookup-server/internal/domain/provider"
)

// relevanceFloor keeps a zero-overlap result from erasing its provider's base
// weight entirely: context mismatch halves the score at worst.
const relevanceFloor = 0.5

// Aggregator merges, deduplicates, scores and bounds the union of all
// provider results for one request.
type Aggregator struct {
	registry *provider.Registry
}

// NewAggregator creates an aggregator. The registry supplies the declaration
// order used to break ranking ties.
func NewAggregator(registry *provider.Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// Aggregate deduplicates on the normalized (term, source URL) pair keeping
// the higher raw weight, computes each survivor's effective confidence (base
// weight scaled by context-token overlap), sorts descending with registry
// order breaking ties, and truncates to max. Empty input returns an empty
// slice, never an error.
func (a *Aggregator) Aggregate(results []Result, tokens ContextTokens, max int) []Result {
	if len(results) == 0 {
		return []Result{}
	}

	type keyed struct {
		result Result
		order  int
	}
	index := make(map[string]int, len(results))
	merged := make([]keyed, 0, len(results))
	for _, r := range results {
		key := normalizeTerm(r.Term) + "\x00" + normalizeURL(r.Source.URL)
		if i, dup := index[key]; dup {
			if r.Source.Weight > merged[i].result.Source.Weight {
				merged[i] = keyed{result: r, order: a.registry.Order(r.Source.Provider)}
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, keyed{result: r, order: a.registry.Order(r.Source.Provider)})
	}

	for i := range merged {
		r := &merged[i].result
		r.Confidence = r.Source.Weight * relevance(*r, tokens)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].result.Confidence != merged[j].result.Confidence {
			return merged[i].result.Confidence > merged[j].result.Confidence
		}
		return merged[i].order < merged[j].order
	})

	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	out := make([]Result, len(merged))
	for i, k := range merged {
		out[i] = k.result
	}
	return out
}

// relevance scores word-boundary overlap between the request's context tokens
// and the result's text. No context means no penalty.
func relevance(r Result, tokens ContextTokens) float64 {
	all := tokens.All()
	if len(all) == 0 {
		return 1.0
	}

	words := wordSet(r.Snippet, r.Term)
	for _, v := range r.Metadata {
		addWords(words, v)
	}

	matched := 0
	for _, tok := range all {
		if _, ok := words[strings.ToLower(tok)]; ok {
			matched++
		}
	}
	return relevanceFloor + (1-relevanceFloor)*float64(matched)/float64(len(all))
}

func wordSet(texts ...string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, t := range texts {
		addWords(words, t)
	}
	return words
}

func addWords(words map[string]struct{}, text string) {
	for _, f := range strings.FieldsFunc(strings.ToLower(text), isTokenSeparator) {
		f = strings.Trim(f, tokenTrimCutset)
		if f != "" {
			words[f] = struct{}{}
		}
	}
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// normalizeURL lowercases the scheme and host, drops fragments and trailing
// slashes so cosmetic URL variants of the same document deduplicate.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
