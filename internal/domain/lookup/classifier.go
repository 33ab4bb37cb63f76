package lookup

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenTrimCutset strips decoration around tokens. Colons stay because they
// carry meaning in article references ("6:162") and ECLI identifiers.
const tokenTrimCutset = ".()[]{}\"'`«»"

// Classifier splits an opaque context string into the three token categories.
// It is a pure function over the static vocabulary: identical input always
// yields identical output and nothing is cached between calls.
type Classifier struct {
	organizational map[string]struct{}
	juridical      map[string]struct{}
	legalBasis     map[string]struct{}
	patterns       []*regexp.Regexp
}

// NewClassifier compiles the vocabulary. Pattern compilation failures are
// configuration errors and abort startup.
func NewClassifier(v Vocabulary) (*Classifier, error) {
	c := &Classifier{
		organizational: lowerSet(v.Organizational),
		juridical:      lowerSet(v.Juridical),
		legalBasis:     lowerSet(v.LegalBasis),
	}
	for _, p := range v.LegalBasisPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("vocabulary: legal-basis pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

func lowerSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '|', ',', ';', '/', '+':
		return true
	}
	return false
}

// Classify tokenizes the context and buckets each token into exactly one
// category. Precedence when a token could match several: legal-basis >
// juridical > organizational. Unmatched tokens are discarded, never folded
// into the term. Empty input yields three empty sets.
func (c *Classifier) Classify(context string) ContextTokens {
	var tokens ContextTokens
	if strings.TrimSpace(context) == "" {
		return tokens
	}

	seen := make(map[string]struct{})
	for _, raw := range strings.FieldsFunc(context, isTokenSeparator) {
		token := strings.Trim(raw, tokenTrimCutset)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case c.isLegalBasis(token, key):
			tokens.LegalBasis = append(tokens.LegalBasis, token)
		case contains(c.juridical, key):
			tokens.Juridical = append(tokens.Juridical, token)
		case contains(c.organizational, key):
			tokens.Organizational = append(tokens.Organizational, token)
		}
	}
	return tokens
}

func (c *Classifier) isLegalBasis(token, key string) bool {
	if contains(c.legalBasis, key) {
		return true
	}
	for _, re := range c.patterns {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
