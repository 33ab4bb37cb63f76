package lookup

import (
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
)

// stagePolicy maps a provider's recall bias to its stage ordering. This is a
// tuning table, not protocol law: broad-recall registries (case law) lose
// recall when context narrows the query, structured indexes (statute
// registries) gain precision from legal-basis context. Swap entries here to
// retune, never branch on provider names.
var stagePolicy = map[provider.RecallBias][]string{
	provider.BiasBroadRecall:     {StageTermOnly, StageLegalBasis},
	provider.BiasStructuredIndex: {StageLegalBasis, StageTermOnly},
}

// Planner turns classified context tokens into an ordered stage list for one
// provider. Stateless; a single instance serves all requests.
type Planner struct{}

// NewPlanner creates a stage planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan produces the ordered, de-duplicated stage list for a provider.
// Identifier and title lookups always get a bare term-only plan because
// context tokens cannot sharpen them. Stages that would carry no tokens
// normalize to term-only, adjacent stages with identical token sets collapse,
// and every plan contains a term-only stage so at least one attempt runs
// without context.
func (p *Planner) Plan(tokens ContextTokens, cfg provider.Config) []QueryStage {
	if cfg.Family != provider.FamilySRU {
		return []QueryStage{{Label: StageTermOnly}}
	}

	kinds, ok := stagePolicy[cfg.RecallBias]
	if !ok {
		return []QueryStage{{Label: StageTermOnly}}
	}

	plan := make([]QueryStage, 0, len(kinds)+1)
	for _, kind := range kinds {
		stage := buildStage(kind, tokens)
		if n := len(plan); n > 0 && sameTokens(plan[n-1].Tokens, stage.Tokens) {
			continue
		}
		plan = append(plan, stage)
	}

	if !hasTermOnly(plan) {
		plan = append(plan, QueryStage{Label: StageTermOnly})
	}
	return plan
}

func buildStage(kind string, tokens ContextTokens) QueryStage {
	var subset []string
	if kind == StageLegalBasis {
		subset = append([]string(nil), tokens.LegalBasis...)
	}
	if len(subset) == 0 {
		return QueryStage{Label: StageTermOnly}
	}
	return QueryStage{Label: kind, Tokens: subset}
}

func hasTermOnly(plan []QueryStage) bool {
	for _, s := range plan {
		if s.Label == StageTermOnly {
			return true
		}
	}
	return false
}
