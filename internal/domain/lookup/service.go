package lookup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/definitie-platform/lookup-server/internal/domain/breaker"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
)

// PreflightLabel tags the single recorded attempt of a failed reachability
// preflight in the attempts log.
const PreflightLabel = "preflight"

// Outcome is the classified result of one executed attempt. Clients never
// return Go errors from Execute: every failure mode maps onto a status so the
// orchestrator's loop stays uniform and degradation stays local.
type Outcome struct {
	// Query is the concrete outbound query, recorded for observability.
	Query string
	// Status classifies what happened.
	Status AttemptStatus
	// Results carries extracted records on success.
	Results []Result
	// Diagnostic holds the provider's structured complaint or a transport
	// error description.
	Diagnostic string
}

// ProtocolClient executes attempts for one protocol family.
type ProtocolClient interface {
	// Family names the protocol family this client serves.
	Family() provider.Family
	// Strategies returns the ordered query-strategy cascade for a provider.
	// Families without a cascade return a single label.
	Strategies(cfg provider.Config) []string
	// Preflight checks endpoint reachability cheaply (host resolution).
	// Families that do not need it return nil.
	Preflight(ctx context.Context, cfg provider.Config) error
	// Execute runs one attempt: build the query for (term, stage, strategy),
	// issue it within the per-attempt timeout, parse, classify.
	Execute(ctx context.Context, cfg provider.Config, term string, stage QueryStage, strategy string) Outcome
}

// Observer receives engine events for metric recording. Implementations must
// be safe for concurrent use; all hooks are fire-and-forget.
type Observer interface {
	RecordAttempt(a QueryAttempt)
	RecordBreakerOpen(providerID string)
	RecordLookup(outcome string, elapsed time.Duration, results int)
}

// UnitInstrumenter wraps one provider unit for tracing. The engine calls fn
// exactly once; the wrapper owns span lifecycle and unit-level metrics.
type UnitInstrumenter interface {
	InstrumentUnit(ctx context.Context, providerID string, fn func(context.Context) error) error
}

// Options tunes the engine. Zero values fall back to conservative defaults.
type Options struct {
	// Workers bounds the provider fan-out so a single lookup cannot open an
	// unbounded number of upstream connections.
	Workers int
	// DefaultTimeout applies when a request does not carry its own deadline.
	DefaultTimeout time.Duration
	// DefaultMaxResults applies when a request asks for fewer than one result.
	DefaultMaxResults int
}

const (
	defaultWorkers    = 4
	defaultTimeout    = 15 * time.Second
	defaultMaxResults = 10
)

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = defaultWorkers
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = defaultTimeout
	}
	if o.DefaultMaxResults < 1 {
		o.DefaultMaxResults = defaultMaxResults
	}
	return o
}

// Engine is the lookup orchestrator and the subsystem's public entry point.
// It fans out to every enabled provider with bounded concurrency, drives each
// provider's stage/strategy loop sequentially, enforces the overall deadline
// and aggregates whatever the providers produced. Apart from the most recent
// attempts log it keeps no state between requests.
type Engine struct {
	registry   *provider.Registry
	classifier *Classifier
	planner    *Planner
	aggregator *Aggregator
	clients    map[provider.Family]ProtocolClient
	opts       Options
	observer   Observer
	instr      UnitInstrumenter

	mu   sync.Mutex
	last *AttemptLog
}

// NewEngine assembles the orchestrator. observer and instr may be nil.
func NewEngine(
	registry *provider.Registry,
	classifier *Classifier,
	planner *Planner,
	aggregator *Aggregator,
	clients []ProtocolClient,
	opts Options,
	observer Observer,
	instr UnitInstrumenter,
) *Engine {
	byFamily := make(map[provider.Family]ProtocolClient, len(clients))
	for _, c := range clients {
		byFamily[c.Family()] = c
	}
	return &Engine{
		registry:   registry,
		classifier: classifier,
		planner:    planner,
		aggregator: aggregator,
		clients:    byFamily,
		opts:       opts.withDefaults(),
		observer:   observer,
		instr:      instr,
	}
}

// Lookup resolves a term against all enabled providers and returns a ranked,
// bounded result list. The only error it ever returns is an invalid request
// (empty term); every provider-side failure degrades into a shorter result
// list and an attempts-log trail instead.
func (e *Engine) Lookup(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()
	term := strings.TrimSpace(req.Term)
	if term == "" {
		e.observeLookup("invalid", time.Since(start), 0)
		return nil, NewInvalidRequest("term must not be empty")
	}

	maxResults := req.MaxResults
	if maxResults < 1 {
		maxResults = e.opts.DefaultMaxResults
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.opts.DefaultTimeout
	}

	alog := NewAttemptLog()
	e.mu.Lock()
	e.last = alog
	e.mu.Unlock()

	tokens := e.classifier.Classify(req.Context)
	providers := e.registry.Enabled()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	collector := &resultCollector{}
	var eg errgroup.Group
	eg.SetLimit(e.opts.Workers)
	for _, prov := range providers {
		eg.Go(func() error {
			unit := func(ctx context.Context) error {
				e.runProvider(ctx, prov, term, tokens, alog, collector)
				return nil
			}
			if e.instr != nil {
				return e.instr.InstrumentUnit(ctx, prov.ID, unit)
			}
			return unit(ctx)
		})
	}
	// Units contain their own failures, so Wait only synchronizes.
	_ = eg.Wait()

	ranked := e.aggregator.Aggregate(collector.snapshot(), tokens, maxResults)

	outcome := "ok"
	if ctx.Err() != nil {
		outcome = "deadline"
	}
	elapsed := time.Since(start)
	e.observeLookup(outcome, elapsed, len(ranked))
	log.Info().
		Str("term", term).
		Int("providers", len(providers)).
		Int("attempts", alog.Len()).
		Int("results", len(ranked)).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("lookup completed")
	return ranked, nil
}

// LastAttempts exposes the attempts log of the most recent request,
// read-only. This is the primary debugging contract: it shows which stages
// and strategies ran, which breakers opened and why a provider came back
// empty.
func (e *Engine) LastAttempts() []QueryAttempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return []QueryAttempt{}
	}
	return e.last.Snapshot()
}

// runProvider drives one provider's attempt loop sequentially: stages in
// planned order, the strategy cascade inside each stage. Sequential is a hard
// requirement, not a simplification: every attempt's outcome feeds the
// breaker decision for the next one.
func (e *Engine) runProvider(ctx context.Context, cfg provider.Config, term string, tokens ContextTokens, alog *AttemptLog, collector *resultCollector) {
	client, ok := e.clients[cfg.Family]
	if !ok {
		log.Error().Str("provider", cfg.ID).Str("family", string(cfg.Family)).Msg("no client registered for protocol family")
		return
	}

	if cfg.Preflight {
		pfStart := time.Now()
		if err := client.Preflight(ctx, cfg); err != nil {
			e.record(alog, QueryAttempt{
				Provider:   cfg.ID,
				Stage:      PreflightLabel,
				Strategy:   PreflightLabel,
				Status:     AttemptError,
				Diagnostic: "preflight: " + err.Error(),
				Elapsed:    time.Since(pfStart),
			})
			log.Warn().Str("provider", cfg.ID).Err(err).Msg("preflight failed, provider skipped for this request")
			return
		}
	}

	plan := e.planner.Plan(tokens, cfg)
	strategies := client.Strategies(cfg)
	br := breaker.New(cfg.BreakerThreshold)

	for _, stage := range plan {
		for _, strategy := range strategies {
			if ctx.Err() != nil {
				return
			}
			if br.Open() {
				e.record(alog, QueryAttempt{
					Provider: cfg.ID,
					Stage:    stage.Label,
					Strategy: strategy,
					Status:   AttemptSkipped,
				})
				continue
			}

			attemptStart := time.Now()
			out := client.Execute(ctx, cfg, term, stage, strategy)
			e.record(alog, QueryAttempt{
				Provider:   cfg.ID,
				Stage:      stage.Label,
				Strategy:   strategy,
				Query:      out.Query,
				Status:     out.Status,
				Diagnostic: out.Diagnostic,
				Elapsed:    time.Since(attemptStart),
			})

			switch {
			case out.Status == AttemptSuccess:
				br.RecordSuccess()
				collector.add(out.Results)
				return
			case out.Status == AttemptNotApplicable:
				return
			case out.Status.CountsAsEmpty():
				br.RecordEmpty()
				if br.Open() {
					e.observeBreakerOpen(cfg.ID)
					log.Warn().
						Str("provider", cfg.ID).
						Int("consecutive_empty", br.ConsecutiveEmpty()).
						Int("threshold", br.Threshold()).
						Msg("circuit breaker opened, remaining attempts will be skipped")
				}
			}
			// Diagnostics fall through: the strategy is abandoned but the
			// consecutive-empty run is neither extended nor reset.
		}
	}
}

func (e *Engine) record(alog *AttemptLog, a QueryAttempt) {
	alog.Append(a)
	if e.observer != nil {
		e.observer.RecordAttempt(a)
	}
}

func (e *Engine) observeBreakerOpen(providerID string) {
	if e.observer != nil {
		e.observer.RecordBreakerOpen(providerID)
	}
}

func (e *Engine) observeLookup(outcome string, elapsed time.Duration, results int) {
	if e.observer != nil {
		e.observer.RecordLookup(outcome, elapsed, results)
	}
}

// resultCollector gathers results from concurrent provider units. Units add
// records the moment an attempt completes, so work finished before a deadline
// cancellation is never lost.
type resultCollector struct {
	mu      sync.Mutex
	results []Result
}

func (c *resultCollector) add(rs []Result) {
	if len(rs) == 0 {
		return
	}
	c.mu.Lock()
	c.results = append(c.results, rs...)
	c.mu.Unlock()
}

func (c *resultCollector) snapshot() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}
