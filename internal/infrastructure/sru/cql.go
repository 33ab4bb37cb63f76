package sru

import (
	"fmt"
	"strings"
	"unicode"
)

// Strategy labels, ordered most precise to most permissive. The engine walks
// them in this order within every stage.
const (
	StrategyExactField     = "exact-field"
	StrategyBroadField     = "broad-field"
	StrategyPunctVariant   = "punct-variant"
	StrategyAnyWord        = "any-word"
	StrategyPrefixWildcard = "prefix-wildcard"
)

// Strategies returns the full cascade in execution order.
func Strategies() []string {
	return []string{
		StrategyExactField,
		StrategyBroadField,
		StrategyPunctVariant,
		StrategyAnyWord,
		StrategyPrefixWildcard,
	}
}

// prefixLength bounds the prefix-wildcard strategy to the leading word's
// first runes; shorter words are used whole.
const prefixLength = 6

// buildQuery renders the CQL for one (strategy, term, stage tokens) attempt.
// Every strategy produces a distinct query shape, so no two attempts within
// one stage ever issue the same request.
func buildQuery(strategy, term string, tokens []string) (string, error) {
	switch strategy {
	case StrategyExactField:
		var b strings.Builder
		fmt.Fprintf(&b, `dcterms.title exact "%s"`, escapeCQL(term))
		for _, tok := range tokens {
			fmt.Fprintf(&b, ` and cql.serverChoice = "%s"`, escapeCQL(tok))
		}
		return b.String(), nil
	case StrategyBroadField:
		clause := fmt.Sprintf(`cql.serverChoice all "%s"`, escapeCQL(term))
		switch len(tokens) {
		case 0:
			return clause, nil
		case 1:
			return fmt.Sprintf(`%s and cql.serverChoice = "%s"`, clause, escapeCQL(tokens[0])), nil
		}
		parts := make([]string, len(tokens))
		for i, tok := range tokens {
			parts[i] = fmt.Sprintf(`cql.serverChoice = "%s"`, escapeCQL(tok))
		}
		return fmt.Sprintf(`%s and (%s)`, clause, strings.Join(parts, " or ")), nil
	case StrategyPunctVariant:
		// No token constraint: this variant exists for registries whose
		// indexing trips over compound-word punctuation, and tokens would
		// only re-narrow what the variant just widened.
		return fmt.Sprintf(`cql.serverChoice = "%s"`, escapeCQL(punctVariant(term))), nil
	case StrategyAnyWord:
		words := append(strings.Fields(stripPunct(term)), tokens...)
		return fmt.Sprintf(`cql.serverChoice any "%s"`, escapeCQL(strings.Join(words, " "))), nil
	case StrategyPrefixWildcard:
		return fmt.Sprintf(`cql.serverChoice = "%s*"`, escapeCQL(prefixOf(term))), nil
	default:
		return "", fmt.Errorf("unknown query strategy %q", strategy)
	}
}

// escapeCQL escapes backslashes and double quotes for embedding in a quoted
// CQL search clause. Backslashes first, so escaped quotes stay escaped.
func escapeCQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// stripPunct replaces every non-letter, non-digit rune with a space and
// collapses the whitespace, turning "Wet werk en inkomen (WIA)" into
// "Wet werk en inkomen WIA".
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// punctVariant collapses dotted abbreviations ("O.M." becomes "OM") and
// hyphen-joins the remaining words, the compound form several registries
// index multi-word titles under.
func punctVariant(s string) string {
	return strings.Join(strings.Fields(stripPunct(strings.ReplaceAll(s, ".", ""))), "-")
}

func firstWord(s string) string {
	fields := strings.Fields(stripPunct(s))
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

// prefixOf truncates the leading word to prefixLength runes.
func prefixOf(s string) string {
	word := firstWord(s)
	runes := []rune(word)
	if len(runes) <= prefixLength {
		return word
	}
	return string(runes[:prefixLength])
}
