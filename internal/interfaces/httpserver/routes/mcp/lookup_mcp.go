package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/metrics"
)

// Tool key constants.
const (
	ToolKeyLookupTerm     = "lookup_term"
	ToolKeyLookupAttempts = "lookup_attempts"
)

var toolDescriptions = map[string]string{
	ToolKeyLookupTerm: "Resolve a term against the configured registries (statute, local regulation, " +
		"case law, encyclopedia) and return confidence-ranked definition snippets with source links. " +
		"Pass the surrounding context string (organisation names, fields of law, statute abbreviations) " +
		"to sharpen provider queries and ranking.",
	ToolKeyLookupAttempts: "Return the per-attempt trail (provider, stage, strategy, status, diagnostic) " +
		"of the most recent lookup. Use it to see why a provider contributed nothing.",
}

// LookupArgs defines the arguments for the lookup_term tool.
type LookupArgs struct {
	Term       string `json:"term"`
	Context    string `json:"context,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	TimeoutMS  int    `json:"timeout_ms,omitempty"`
}

// AttemptsArgs defines the arguments for the lookup_attempts tool.
type AttemptsArgs struct{}

type lookupToolResult struct {
	Term          string            `json:"term"`
	Snippet       string            `json:"snippet"`
	SourceURL     string            `json:"source_url"`
	Provider      string            `json:"provider"`
	Confidence    float64           `json:"confidence"`
	Authoritative bool              `json:"authoritative"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type lookupToolPayload struct {
	Term          string               `json:"term"`
	ContextTokens lookup.ContextTokens `json:"context_tokens"`
	Results       []lookupToolResult   `json:"results"`
	Count         int                  `json:"count"`
	ElapsedMS     int64                `json:"elapsed_ms"`
}

type attemptToolRecord struct {
	Provider   string `json:"provider"`
	Stage      string `json:"stage"`
	Strategy   string `json:"strategy"`
	Query      string `json:"query,omitempty"`
	Status     string `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

type attemptsToolPayload struct {
	Attempts []attemptToolRecord `json:"attempts"`
	Count    int                 `json:"count"`
}

// LookupMCP exposes the lookup engine as MCP tools.
type LookupMCP struct {
	engine     *lookup.Engine
	classifier *lookup.Classifier
}

// NewLookupMCP creates the MCP tool handler.
func NewLookupMCP(engine *lookup.Engine, classifier *lookup.Classifier) *LookupMCP {
	return &LookupMCP{engine: engine, classifier: classifier}
}

// RegisterTools registers the lookup tools with the MCP server.
func (l *LookupMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyLookupTerm,
		Description: toolDescriptions[ToolKeyLookupTerm],
	}, l.handleLookupTerm)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyLookupAttempts,
		Description: toolDescriptions[ToolKeyLookupAttempts],
	}, l.handleLookupAttempts)
}

func (l *LookupMCP) handleLookupTerm(ctx context.Context, _ *mcp.CallToolRequest, input LookupArgs) (*mcp.CallToolResult, lookupToolPayload, error) {
	start := time.Now()

	log.Info().
		Str("tool", ToolKeyLookupTerm).
		Str("term", input.Term).
		Str("context", input.Context).
		Msg("MCP tool call received")

	results, err := l.engine.Lookup(ctx, lookup.Request{
		Term:       input.Term,
		Context:    input.Context,
		MaxResults: input.MaxResults,
		Timeout:    time.Duration(input.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		metrics.RecordToolCall(ToolKeyLookupTerm, "error", time.Since(start).Seconds())
		payload := lookupToolPayload{Term: input.Term, Results: []lookupToolResult{}}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}, payload, nil
	}

	payload := lookupToolPayload{
		Term:          input.Term,
		ContextTokens: l.classifier.Classify(input.Context),
		Results:       make([]lookupToolResult, len(results)),
		Count:         len(results),
		ElapsedMS:     time.Since(start).Milliseconds(),
	}
	for i, r := range results {
		payload.Results[i] = lookupToolResult{
			Term:          r.Term,
			Snippet:       r.Snippet,
			SourceURL:     r.Source.URL,
			Provider:      r.Source.Provider,
			Confidence:    r.Confidence,
			Authoritative: r.Source.Authoritative,
			Metadata:      r.Metadata,
		}
	}

	text := fmt.Sprintf("no results for %q", input.Term)
	if len(results) > 0 {
		top := results[0]
		text = fmt.Sprintf("%d result(s) for %q; best: %s (%s, confidence %.2f) %s",
			len(results), input.Term, top.Term, top.Source.Provider, top.Confidence, top.Source.URL)
	}

	metrics.RecordToolCall(ToolKeyLookupTerm, "success", time.Since(start).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, payload, nil
}

func (l *LookupMCP) handleLookupAttempts(_ context.Context, _ *mcp.CallToolRequest, _ AttemptsArgs) (*mcp.CallToolResult, attemptsToolPayload, error) {
	start := time.Now()

	attempts := l.engine.LastAttempts()
	payload := attemptsToolPayload{
		Attempts: make([]attemptToolRecord, len(attempts)),
		Count:    len(attempts),
	}
	for i, a := range attempts {
		payload.Attempts[i] = attemptToolRecord{
			Provider:   a.Provider,
			Stage:      a.Stage,
			Strategy:   a.Strategy,
			Query:      a.Query,
			Status:     string(a.Status),
			Diagnostic: a.Diagnostic,
			ElapsedMS:  a.Elapsed.Milliseconds(),
		}
	}

	metrics.RecordToolCall(ToolKeyLookupAttempts, "success", time.Since(start).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%d attempt(s) recorded", len(attempts))}},
	}, payload, nil
}
