package sru

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/httpclient"
)

const sruVersion = "1.2"

// fallbackSchema is requested when a provider pins no schema order.
const fallbackSchema = "dc"

// ClientConfig captures the knobs exposed to operators for the SRU client.
type ClientConfig struct {
	HTTP             httpclient.Config
	PreflightTimeout time.Duration
	// MaxRecords caps maximumRecords on every searchRetrieve request.
	MaxRecords int
}

// Client speaks SRU searchRetrieve 1.2 with CQL queries. One client serves
// every SRU provider; per-provider differences live entirely in the registry
// config passed to each call.
type Client struct {
	cfg      ClientConfig
	http     *resty.Client
	resolver *net.Resolver
}

var _ lookup.ProtocolClient = (*Client)(nil)

// NewClient wires the shared HTTP client for all SRU registries.
func NewClient(cfg ClientConfig) *Client {
	if cfg.PreflightTimeout <= 0 {
		cfg.PreflightTimeout = 2 * time.Second
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 20
	}
	return &Client{
		cfg:      cfg,
		http:     httpclient.New(cfg.HTTP),
		resolver: net.DefaultResolver,
	}
}

// Family implements lookup.ProtocolClient.
func (c *Client) Family() provider.Family {
	return provider.FamilySRU
}

// Strategies implements lookup.ProtocolClient.
func (c *Client) Strategies(provider.Config) []string {
	return Strategies()
}

// Preflight resolves the endpoint host with a short deadline. A registry that
// cannot even be resolved is skipped for the whole request instead of eating
// one timeout per planned attempt.
func (c *Client) Preflight(ctx context.Context, cfg provider.Config) error {
	return httpclient.ResolveHost(ctx, c.resolver, cfg.Endpoint, c.cfg.PreflightTimeout)
}

// Execute implements lookup.ProtocolClient. A schema diagnostic triggers one
// request per remaining fallback schema; any other outcome is final, so the
// same query is never re-issued unchanged.
func (c *Client) Execute(ctx context.Context, cfg provider.Config, term string, stage lookup.QueryStage, strategy string) lookup.Outcome {
	query, err := buildQuery(strategy, term, stage.Tokens)
	if err != nil {
		return lookup.Outcome{Status: lookup.AttemptError, Diagnostic: err.Error()}
	}

	schemas := cfg.RecordSchemas
	if len(schemas) == 0 {
		schemas = []string{fallbackSchema}
	}

	var out lookup.Outcome
	for i, schema := range schemas {
		out = c.search(ctx, cfg, query, schema)
		if out.Status == lookup.AttemptDiagnostic && isSchemaDiagnostic(out.Diagnostic) && i+1 < len(schemas) {
			log.Debug().
				Str("provider", cfg.ID).
				Str("schema", schema).
				Str("next_schema", schemas[i+1]).
				Msg("record schema rejected, retrying with fallback schema")
			continue
		}
		break
	}
	return out
}

func (c *Client) search(ctx context.Context, cfg provider.Config, query, schema string) lookup.Outcome {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("operation", "searchRetrieve").
		SetQueryParam("version", sruVersion).
		SetQueryParam("query", query).
		SetQueryParam("maximumRecords", strconv.Itoa(c.cfg.MaxRecords)).
		SetQueryParam("recordSchema", schema)
	for k, v := range cfg.Params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(cfg.Endpoint)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return lookup.Outcome{Query: query, Status: lookup.AttemptTimeout, Diagnostic: err.Error()}
		}
		log.Warn().Err(err).Str("provider", cfg.ID).Str("endpoint", cfg.Endpoint).Msg("sru request failed")
		return lookup.Outcome{Query: query, Status: lookup.AttemptError, Diagnostic: "transport: " + err.Error()}
	}
	if resp.IsError() {
		return lookup.Outcome{Query: query, Status: lookup.AttemptError, Diagnostic: fmt.Sprintf("http status %d", resp.StatusCode())}
	}

	parsed, err := parseResponse(resp.Body())
	if err != nil {
		return lookup.Outcome{Query: query, Status: lookup.AttemptError, Diagnostic: "parse: " + err.Error()}
	}
	if parsed.diagnostic != "" {
		return lookup.Outcome{Query: query, Status: lookup.AttemptDiagnostic, Diagnostic: parsed.diagnostic}
	}

	results := make([]lookup.Result, 0, len(parsed.records))
	for _, rec := range parsed.records {
		if r, ok := recordToResult(cfg, schema, rec); ok {
			results = append(results, r)
		}
	}
	if len(results) == 0 {
		return lookup.Outcome{Query: query, Status: lookup.AttemptEmpty}
	}
	return lookup.Outcome{Query: query, Status: lookup.AttemptSuccess, Results: results}
}

// recordFields are the element local names captured per record, covering both
// dc/gzd searchRetrieve payloads and the Atom-flavoured case-law feed.
var recordFields = map[string]struct{}{
	"title":       {},
	"identifier":  {},
	"id":          {},
	"description": {},
	"abstract":    {},
	"summary":     {},
	"subject":     {},
	"creator":     {},
	"type":        {},
	"date":        {},
}

type sruResponse struct {
	records    []map[string]string
	diagnostic string
}

// parseResponse walks the XML token stream instead of unmarshalling into a
// fixed struct: the registries disagree on namespaces and wrapper elements,
// and local names are the only stable part of the format.
func parseResponse(body []byte) (sruResponse, error) {
	var out sruResponse
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		current   map[string]string
		field     string
		fieldBuf  strings.Builder
		inDiag    bool
		diagField string
		diagParts = map[string]string{}
	)

	commitField := func() {
		if current == nil || field == "" {
			return
		}
		text := squash(fieldBuf.String())
		if text != "" {
			if existing := current[field]; existing != "" {
				current[field] = existing + "; " + text
			} else {
				current[field] = text
			}
		}
		field = ""
		fieldBuf.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sruResponse{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			switch {
			case local == "record" || local == "entry":
				current = map[string]string{}
			case local == "diagnostic":
				inDiag = true
			case inDiag && (local == "uri" || local == "message" || local == "details"):
				diagField = local
			case current != nil && local == "link":
				for _, attr := range t.Attr {
					if attr.Name.Local == "href" && current["link"] == "" {
						current["link"] = attr.Value
					}
				}
			case current != nil:
				if _, ok := recordFields[local]; ok {
					commitField()
					field = local
				}
			}
		case xml.CharData:
			if inDiag && diagField != "" {
				diagParts[diagField] += string(t)
			} else if current != nil && field != "" {
				fieldBuf.Write(t)
			}
		case xml.EndElement:
			local := t.Name.Local
			switch {
			case local == "record" || local == "entry":
				commitField()
				if len(current) > 0 {
					out.records = append(out.records, current)
				}
				current = nil
			case local == "diagnostic":
				inDiag = false
				diagField = ""
			case inDiag && local == diagField:
				diagField = ""
			case current != nil && local == field:
				commitField()
			}
		}
	}

	out.diagnostic = squash(diagParts["uri"] + " " + diagParts["message"] + " " + diagParts["details"])
	return out, nil
}

// isSchemaDiagnostic recognizes the "unknown schema for retrieval" family of
// diagnostics (info:srw/diagnostic/1/66) that justify a schema fallback.
func isSchemaDiagnostic(diagnostic string) bool {
	lower := strings.ToLower(diagnostic)
	return strings.Contains(lower, "diagnostic/1/66") || strings.Contains(lower, "schema")
}

func recordToResult(cfg provider.Config, schema string, rec map[string]string) (lookup.Result, bool) {
	identifier := firstNonEmpty(rec["identifier"], rec["id"])
	title := firstNonEmpty(rec["title"], identifier)
	snippet := firstNonEmpty(rec["abstract"], rec["description"], rec["summary"], rec["title"])
	if title == "" || snippet == "" {
		return lookup.Result{}, false
	}

	metadata := map[string]string{"schema": schema}
	if identifier != "" {
		metadata["identifier"] = identifier
	}
	for _, k := range []string{"subject", "type", "creator", "date"} {
		if v := rec[k]; v != "" {
			metadata[k] = v
		}
	}

	return lookup.Result{
		Term:    title,
		Snippet: snippet,
		Source: lookup.Source{
			Provider:      cfg.ID,
			URL:           resultURL(cfg, rec),
			Weight:        cfg.Weight,
			Authoritative: cfg.Authoritative,
		},
		Metadata: metadata,
	}, true
}

func resultURL(cfg provider.Config, rec map[string]string) string {
	if link := rec["link"]; link != "" {
		return link
	}
	id := strings.TrimSpace(firstNonEmpty(rec["identifier"], rec["id"]))
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	if strings.Contains(cfg.LinkTemplate, "%s") {
		return fmt.Sprintf(cfg.LinkTemplate, id)
	}
	return id
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
