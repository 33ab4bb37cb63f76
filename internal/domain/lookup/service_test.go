package lookup

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/definitie-platform/lookup-server/internal/domain/provider"
)

var fiveStrategies = []string{"exact-field", "broad-field", "punct-variant", "any-word", "prefix-wildcard"}

// scriptedClient is a ProtocolClient whose Execute outcomes follow a script
// indexed by call number.
type scriptedClient struct {
	family       provider.Family
	strategies   []string
	preflightErr error
	outcome      func(call int, cfg provider.Config, term string, stage QueryStage, strategy string) Outcome

	mu    sync.Mutex
	calls int
}

var _ ProtocolClient = (*scriptedClient)(nil)

func (c *scriptedClient) Family() provider.Family             { return c.family }
func (c *scriptedClient) Strategies(provider.Config) []string { return c.strategies }

func (c *scriptedClient) Preflight(context.Context, provider.Config) error {
	return c.preflightErr
}

func (c *scriptedClient) Execute(ctx context.Context, cfg provider.Config, term string, stage QueryStage, strategy string) Outcome {
	c.mu.Lock()
	call := c.calls
	c.calls++
	c.mu.Unlock()
	return c.outcome(call, cfg, term, stage, strategy)
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeObserver struct {
	mu           sync.Mutex
	attempts     []QueryAttempt
	breakerOpens []string
	lookups      int
}

var _ Observer = (*fakeObserver)(nil)

func (o *fakeObserver) RecordAttempt(a QueryAttempt) {
	o.mu.Lock()
	o.attempts = append(o.attempts, a)
	o.mu.Unlock()
}

func (o *fakeObserver) RecordBreakerOpen(providerID string) {
	o.mu.Lock()
	o.breakerOpens = append(o.breakerOpens, providerID)
	o.mu.Unlock()
}

func (o *fakeObserver) RecordLookup(string, time.Duration, int) {
	o.mu.Lock()
	o.lookups++
	o.mu.Unlock()
}

func sruProvider(id string, bias provider.RecallBias, threshold int, weight float64) provider.Config {
	return provider.Config{
		ID:               id,
		Endpoint:         "https://" + id + ".example.org/sru",
		Family:           provider.FamilySRU,
		RecallBias:       bias,
		Weight:           weight,
		Enabled:          true,
		BreakerThreshold: threshold,
	}
}

func newTestEngine(t *testing.T, configs []provider.Config, clients []ProtocolClient, obs Observer) *Engine {
	t.Helper()
	reg, err := provider.NewRegistry(configs, 6)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	cls, err := NewClassifier(testVocabulary())
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}
	opts := Options{Workers: 4, DefaultTimeout: 2 * time.Second, DefaultMaxResults: 10}
	return NewEngine(reg, cls, NewPlanner(), NewAggregator(reg), clients, opts, obs, nil)
}

func successOutcome(cfg provider.Config, term, url, snippet string) Outcome {
	return Outcome{
		Query:  term,
		Status: AttemptSuccess,
		Results: []Result{{
			Term:    term,
			Snippet: snippet,
			Source: Source{
				Provider:      cfg.ID,
				URL:           url,
				Weight:        cfg.Weight,
				Authoritative: cfg.Authoritative,
			},
		}},
	}
}

func attemptsFor(attempts []QueryAttempt, providerID string) []QueryAttempt {
	out := make([]QueryAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Provider == providerID {
			out = append(out, a)
		}
	}
	return out
}

func countStatus(attempts []QueryAttempt, status AttemptStatus) int {
	n := 0
	for _, a := range attempts {
		if a.Status == status {
			n++
		}
	}
	return n
}

func TestLookupRejectsEmptyTerm(t *testing.T) {
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptEmpty}
		},
	}
	engine := newTestEngine(t, []provider.Config{sruProvider("bwb", provider.BiasStructuredIndex, 6, 0.9)}, []ProtocolClient{client}, nil)

	for _, term := range []string{"", "   ", "\t\n"} {
		if _, err := engine.Lookup(context.Background(), Request{Term: term}); !IsCode(err, CodeInvalidRequest) {
			t.Errorf("Lookup(%q) error = %v, want code %s", term, err, CodeInvalidRequest)
		}
	}
	if n := client.callCount(); n != 0 {
		t.Errorf("invalid requests must not reach providers, got %d calls", n)
	}
}

func TestLookupBreakerContainsAttempts(t *testing.T) {
	// Two stages of five strategies each plan ten attempts; a threshold of six
	// must cap execution at six and record the last four as skipped.
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(_ int, _ provider.Config, _ string, _ QueryStage, strategy string) Outcome {
			return Outcome{Query: "q-" + strategy, Status: AttemptEmpty}
		},
	}
	obs := &fakeObserver{}
	engine := newTestEngine(t, []provider.Config{sruProvider("bwb", provider.BiasBroadRecall, 6, 0.9)}, []ProtocolClient{client}, obs)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", Context: "Awb"})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}

	attempts := engine.LastAttempts()
	if len(attempts) != 10 {
		t.Fatalf("expected 10 recorded attempts, got %d: %+v", len(attempts), attempts)
	}
	if got := client.callCount(); got != 6 {
		t.Errorf("expected 6 executed attempts, got %d", got)
	}
	if got := countStatus(attempts, AttemptEmpty); got != 6 {
		t.Errorf("expected 6 empty attempts, got %d", got)
	}
	if got := countStatus(attempts, AttemptSkipped); got != 4 {
		t.Errorf("expected 4 skipped attempts, got %d", got)
	}
	for i, a := range attempts[6:] {
		if a.Status != AttemptSkipped {
			t.Errorf("attempt %d after breaker opened: status %s, want %s", 6+i, a.Status, AttemptSkipped)
		}
	}
	if len(obs.breakerOpens) != 1 || obs.breakerOpens[0] != "bwb" {
		t.Errorf("breaker open observations = %v, want [bwb]", obs.breakerOpens)
	}
	if len(obs.attempts) != 10 {
		t.Errorf("observer saw %d attempts, want 10", len(obs.attempts))
	}
}

func TestLookupBreakerStateIsPerRequest(t *testing.T) {
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptEmpty}
		},
	}
	engine := newTestEngine(t, []provider.Config{sruProvider("bwb", provider.BiasBroadRecall, 6, 0.9)}, []ProtocolClient{client}, nil)

	req := Request{Term: "dwangsom", Context: "Awb"}
	if _, err := engine.Lookup(context.Background(), req); err != nil {
		t.Fatalf("first Lookup() error: %v", err)
	}
	first := client.callCount()
	if _, err := engine.Lookup(context.Background(), req); err != nil {
		t.Fatalf("second Lookup() error: %v", err)
	}
	second := client.callCount() - first

	if first != 6 || second != 6 {
		t.Errorf("executed attempts per request = %d then %d, want 6 each; breaker state leaked across requests", first, second)
	}
	if got := len(engine.LastAttempts()); got != 10 {
		t.Errorf("LastAttempts() after second request = %d entries, want 10", got)
	}
}

func TestLookupStopsCascadeOnFirstSuccess(t *testing.T) {
	// Third strategy of the first stage hits; the rest of the cascade and the
	// whole second stage must never run.
	cfg := sruProvider("rechtspraak", provider.BiasBroadRecall, 6, 0.8)
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(call int, cfg provider.Config, term string, _ QueryStage, _ string) Outcome {
			if call < 2 {
				return Outcome{Status: AttemptEmpty}
			}
			return successOutcome(cfg, term, "https://example.org/dwangsom", "dwangsom volgens de Awb")
		},
	}
	engine := newTestEngine(t, []provider.Config{cfg}, []ProtocolClient{client}, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", Context: "Awb"})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 1 || results[0].Source.Provider != "rechtspraak" {
		t.Fatalf("results = %+v, want one rechtspraak result", results)
	}

	attempts := engine.LastAttempts()
	wantStatuses := []AttemptStatus{AttemptEmpty, AttemptEmpty, AttemptSuccess}
	if len(attempts) != len(wantStatuses) {
		t.Fatalf("expected %d attempts, got %d: %+v", len(wantStatuses), len(attempts), attempts)
	}
	for i, want := range wantStatuses {
		if attempts[i].Status != want {
			t.Errorf("attempt %d status = %s, want %s", i, attempts[i].Status, want)
		}
		if attempts[i].Stage != StageTermOnly {
			t.Errorf("attempt %d stage = %s, want %s (later stages must not run after success)", i, attempts[i].Stage, StageTermOnly)
		}
	}
}

func TestLookupDiagnosticsDoNotTripBreaker(t *testing.T) {
	// Alternating diagnostic/empty outcomes: only the empties feed the
	// consecutive-empty counter, so a threshold of two opens the breaker on the
	// fourth executed attempt, not the second.
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(call int, _ provider.Config, _ string, _ QueryStage, _ string) Outcome {
			if call%2 == 0 {
				return Outcome{Status: AttemptDiagnostic, Diagnostic: "info:srw/diagnostic/1/10 unsupported index"}
			}
			return Outcome{Status: AttemptEmpty}
		},
	}
	engine := newTestEngine(t, []provider.Config{sruProvider("cvdr", provider.BiasBroadRecall, 2, 0.7)}, []ProtocolClient{client}, nil)

	if _, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", Context: "Awb"}); err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if got := client.callCount(); got != 4 {
		t.Errorf("executed attempts = %d, want 4 (diagnostics must not count as empty)", got)
	}

	attempts := engine.LastAttempts()
	if len(attempts) != 10 {
		t.Fatalf("expected 10 recorded attempts, got %d", len(attempts))
	}
	if got := countStatus(attempts, AttemptDiagnostic); got != 2 {
		t.Errorf("diagnostic attempts = %d, want 2", got)
	}
	if got := countStatus(attempts, AttemptSkipped); got != 6 {
		t.Errorf("skipped attempts = %d, want 6", got)
	}
}

func TestLookupNotApplicableEndsUnit(t *testing.T) {
	client := &scriptedClient{
		family:     provider.FamilyECLI,
		strategies: []string{"identifier"},
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptNotApplicable, Diagnostic: "term carries no case-law identifier"}
		},
	}
	cfg := provider.Config{
		ID:               "ecli",
		Endpoint:         "https://ecli.example.org/resolve",
		Family:           provider.FamilyECLI,
		Weight:           0.9,
		Enabled:          true,
		BreakerThreshold: 6,
	}
	engine := newTestEngine(t, []provider.Config{cfg}, []ProtocolClient{client}, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom"})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
	attempts := engine.LastAttempts()
	if len(attempts) != 1 || attempts[0].Status != AttemptNotApplicable {
		t.Fatalf("attempts = %+v, want exactly one not_applicable entry", attempts)
	}
	if client.callCount() != 1 {
		t.Errorf("Execute called %d times, want 1", client.callCount())
	}
}

func TestLookupPreflightFailureSkipsProvider(t *testing.T) {
	client := &scriptedClient{
		family:       provider.FamilySRU,
		strategies:   fiveStrategies,
		preflightErr: context.DeadlineExceeded,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptEmpty}
		},
	}
	cfg := sruProvider("rechtspraak", provider.BiasBroadRecall, 6, 0.8)
	cfg.Preflight = true
	engine := newTestEngine(t, []provider.Config{cfg}, []ProtocolClient{client}, nil)

	if _, err := engine.Lookup(context.Background(), Request{Term: "dwangsom"}); err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	attempts := engine.LastAttempts()
	if len(attempts) != 1 {
		t.Fatalf("expected a single preflight attempt, got %d: %+v", len(attempts), attempts)
	}
	a := attempts[0]
	if a.Stage != PreflightLabel || a.Strategy != PreflightLabel || a.Status != AttemptError {
		t.Errorf("preflight attempt = %+v", a)
	}
	if !strings.Contains(a.Diagnostic, "preflight") {
		t.Errorf("diagnostic %q should name the preflight", a.Diagnostic)
	}
	if client.callCount() != 0 {
		t.Errorf("Execute called %d times after failed preflight, want 0", client.callCount())
	}
}

func TestLookupOneBrokenProviderDoesNotStarveOthers(t *testing.T) {
	broken := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptError, Diagnostic: "connection refused"}
		},
	}
	healthy := &scriptedClient{
		family:     provider.FamilyWiki,
		strategies: []string{"title"},
		outcome: func(_ int, cfg provider.Config, term string, _ QueryStage, _ string) Outcome {
			return successOutcome(cfg, term, "https://nl.wikipedia.org/wiki/Dwangsom", "dwangsom is een rechtsmiddel")
		},
	}
	configs := []provider.Config{
		sruProvider("bwb", provider.BiasStructuredIndex, 2, 0.95),
		{
			ID:               "wikipedia",
			Endpoint:         "https://nl.wikipedia.org/api/rest_v1",
			Family:           provider.FamilyWiki,
			Weight:           0.6,
			Enabled:          true,
			BreakerThreshold: 6,
		},
	}
	engine := newTestEngine(t, configs, []ProtocolClient{broken, healthy}, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom"})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 1 || results[0].Source.Provider != "wikipedia" {
		t.Fatalf("results = %+v, want the wikipedia result despite bwb failing", results)
	}

	attempts := engine.LastAttempts()
	bwb := attemptsFor(attempts, "bwb")
	if got := countStatus(bwb, AttemptError); got != 2 {
		t.Errorf("bwb executed attempts = %d, want 2 (threshold)", got)
	}
	if got := countStatus(bwb, AttemptSkipped); got != 3 {
		t.Errorf("bwb skipped attempts = %d, want 3", got)
	}
	wiki := attemptsFor(attempts, "wikipedia")
	if len(wiki) != 1 || wiki[0].Status != AttemptSuccess {
		t.Errorf("wikipedia attempts = %+v, want one success", wiki)
	}
}

func TestLookupDeadlineReturnsPartialResults(t *testing.T) {
	fast := &scriptedClient{
		family:     provider.FamilyWiki,
		strategies: []string{"title"},
		outcome: func(_ int, cfg provider.Config, term string, _ QueryStage, _ string) Outcome {
			return successOutcome(cfg, term, "https://nl.wikipedia.org/wiki/Dwangsom", "dwangsom")
		},
	}
	slow := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptTimeout, Diagnostic: "context deadline exceeded"}
		},
	}
	// The slow client reports timeouts immediately; a blocking variant would
	// only stretch the test without changing the control flow under test.
	configs := []provider.Config{
		sruProvider("bwb", provider.BiasStructuredIndex, 6, 0.95),
		{
			ID:               "wikipedia",
			Endpoint:         "https://nl.wikipedia.org/api/rest_v1",
			Family:           provider.FamilyWiki,
			Weight:           0.6,
			Enabled:          true,
			BreakerThreshold: 6,
		},
	}
	engine := newTestEngine(t, configs, []ProtocolClient{slow, fast}, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 1 || results[0].Source.Provider != "wikipedia" {
		t.Fatalf("results = %+v, want the completed provider's result", results)
	}
}

func TestLookupDeadlineStopsBlockedUnit(t *testing.T) {
	release := make(chan struct{})
	blocked := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
	}
	blocked.outcome = func(int, provider.Config, string, QueryStage, string) Outcome {
		<-release
		return Outcome{Status: AttemptTimeout, Diagnostic: "context deadline exceeded"}
	}
	engine := newTestEngine(t, []provider.Config{sruProvider("bwb", provider.BiasStructuredIndex, 6, 0.95)}, []ProtocolClient{blocked}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", Timeout: 20 * time.Millisecond}); err != nil {
			t.Errorf("Lookup() error: %v", err)
		}
	}()

	time.Sleep(60 * time.Millisecond)
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Lookup() did not return after the blocked attempt was released")
	}

	if got := blocked.callCount(); got != 1 {
		t.Errorf("executed attempts = %d, want 1 (deadline must stop the loop)", got)
	}
}

func TestLookupBoundsResults(t *testing.T) {
	client := &scriptedClient{
		family:     provider.FamilyWiki,
		strategies: []string{"title"},
		outcome: func(_ int, cfg provider.Config, term string, _ QueryStage, _ string) Outcome {
			out := Outcome{Query: term, Status: AttemptSuccess}
			for _, suffix := range []string{"a", "b", "c", "d", "e"} {
				out.Results = append(out.Results, Result{
					Term:    term + "-" + suffix,
					Snippet: "variant " + suffix,
					Source: Source{
						Provider: cfg.ID,
						URL:      "https://nl.wikipedia.org/wiki/Dwangsom_" + suffix,
						Weight:   cfg.Weight,
					},
				})
			}
			return out
		},
	}
	cfg := provider.Config{
		ID:               "wikipedia",
		Endpoint:         "https://nl.wikipedia.org/api/rest_v1",
		Family:           provider.FamilyWiki,
		Weight:           0.6,
		Enabled:          true,
		BreakerThreshold: 6,
	}
	engine := newTestEngine(t, []provider.Config{cfg}, []ProtocolClient{client}, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom", MaxResults: 2})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestLookupRanksAcrossProviders(t *testing.T) {
	mkClient := func(family provider.Family, url string) *scriptedClient {
		return &scriptedClient{
			family:     family,
			strategies: []string{"title"},
			outcome: func(_ int, cfg provider.Config, term string, _ QueryStage, _ string) Outcome {
				return successOutcome(cfg, term, url, "dwangsom")
			},
		}
	}
	configs := []provider.Config{
		{
			ID:               "ecli",
			Endpoint:         "https://ecli.example.org/resolve",
			Family:           provider.FamilyECLI,
			Weight:           0.9,
			Authoritative:    true,
			Enabled:          true,
			BreakerThreshold: 6,
		},
		{
			ID:               "wikipedia",
			Endpoint:         "https://nl.wikipedia.org/api/rest_v1",
			Family:           provider.FamilyWiki,
			Weight:           0.6,
			Enabled:          true,
			BreakerThreshold: 6,
		},
	}
	clients := []ProtocolClient{
		mkClient(provider.FamilyECLI, "https://ecli.example.org/ECLI:NL:HR:2020:1"),
		mkClient(provider.FamilyWiki, "https://nl.wikipedia.org/wiki/Dwangsom"),
	}
	engine := newTestEngine(t, configs, clients, nil)

	results, err := engine.Lookup(context.Background(), Request{Term: "dwangsom"})
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Source.Provider != "ecli" || results[1].Source.Provider != "wikipedia" {
		t.Errorf("ranking = [%s %s], want the heavier provider first", results[0].Source.Provider, results[1].Source.Provider)
	}
	if results[0].Confidence <= results[1].Confidence {
		t.Errorf("confidences %v not strictly descending", []float64{results[0].Confidence, results[1].Confidence})
	}
}

func TestLastAttemptsBeforeAnyLookup(t *testing.T) {
	client := &scriptedClient{
		family:     provider.FamilySRU,
		strategies: fiveStrategies,
		outcome: func(int, provider.Config, string, QueryStage, string) Outcome {
			return Outcome{Status: AttemptEmpty}
		},
	}
	engine := newTestEngine(t, []provider.Config{sruProvider("bwb", provider.BiasStructuredIndex, 6, 0.9)}, []ProtocolClient{client}, nil)
	if got := engine.LastAttempts(); got == nil || len(got) != 0 {
		t.Errorf("LastAttempts() before any lookup = %v, want empty non-nil slice", got)
	}
}
