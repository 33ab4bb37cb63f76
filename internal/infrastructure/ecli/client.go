// Package ecli resolves European Case Law Identifiers against the open
// case-law content endpoint. Unlike the search families it never queries by
// words: a term either carries an identifier or the provider reports that it
// does not apply.
package ecli

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/httpclient"
)

// StrategyIdentifier is the family's only strategy: the identifier found in
// the term either resolves or it does not, so there is nothing to cascade to.
const StrategyIdentifier = "identifier"

// ecliPattern matches ECLI:<country>:<court>:<year>:<serial>. Serial numbers
// may legitimately contain dots, so a dot at the very end is treated as
// sentence punctuation and trimmed after matching.
var ecliPattern = regexp.MustCompile(`(?i)\bECLI:[A-Z]{2}:[A-Z0-9]{1,7}:\d{4}:[A-Z0-9.]{1,25}`)

// ClientConfig carries the transport knobs for the resolver client.
type ClientConfig struct {
	HTTP             httpclient.Config
	PreflightTimeout time.Duration
}

// Client resolves case-law identifiers to judgment metadata.
type Client struct {
	cfg      ClientConfig
	http     *resty.Client
	resolver *net.Resolver
}

// NewClient builds a resolver client around a pooled HTTP transport.
func NewClient(cfg ClientConfig) *Client {
	if cfg.PreflightTimeout <= 0 {
		cfg.PreflightTimeout = 2 * time.Second
	}
	return &Client{cfg: cfg, http: httpclient.New(cfg.HTTP), resolver: net.DefaultResolver}
}

// Family implements lookup.ProtocolClient.
func (c *Client) Family() provider.Family { return provider.FamilyECLI }

// Strategies implements lookup.ProtocolClient.
func (c *Client) Strategies(provider.Config) []string { return []string{StrategyIdentifier} }

// Preflight implements lookup.ProtocolClient.
func (c *Client) Preflight(ctx context.Context, cfg provider.Config) error {
	return httpclient.ResolveHost(ctx, c.resolver, cfg.Endpoint, c.cfg.PreflightTimeout)
}

// Execute implements lookup.ProtocolClient. When the term carries no
// identifier the outcome is not applicable and no request is sent; an unknown
// identifier (404) counts as an empty attempt like any other miss.
func (c *Client) Execute(ctx context.Context, cfg provider.Config, term string, _ lookup.QueryStage, _ string) lookup.Outcome {
	id, ok := ExtractIdentifier(term)
	if !ok {
		return lookup.Outcome{Query: term, Status: lookup.AttemptNotApplicable, Diagnostic: "term carries no case-law identifier"}
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", id)
	for k, v := range cfg.Params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(cfg.Endpoint)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return lookup.Outcome{Query: id, Status: lookup.AttemptTimeout, Diagnostic: err.Error()}
		}
		log.Warn().Err(err).Str("provider", cfg.ID).Str("endpoint", cfg.Endpoint).Msg("ecli request failed")
		return lookup.Outcome{Query: id, Status: lookup.AttemptError, Diagnostic: "transport: " + err.Error()}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return lookup.Outcome{Query: id, Status: lookup.AttemptEmpty}
	}
	if resp.IsError() {
		return lookup.Outcome{Query: id, Status: lookup.AttemptError, Diagnostic: fmt.Sprintf("http status %d", resp.StatusCode())}
	}

	doc, err := parseJudgment(resp.Body())
	if err != nil {
		return lookup.Outcome{Query: id, Status: lookup.AttemptError, Diagnostic: "parse: " + err.Error()}
	}

	title := firstNonEmpty(doc["title"], id)
	snippet := firstNonEmpty(doc["inhoudsindicatie"], doc["abstract"], doc["title"])
	if snippet == "" {
		return lookup.Outcome{Query: id, Status: lookup.AttemptEmpty}
	}

	metadata := map[string]string{"identifier": id}
	for _, k := range []string{"creator", "date", "subject", "zaaknummer"} {
		if v := doc[k]; v != "" {
			metadata[k] = v
		}
	}

	return lookup.Outcome{
		Query:  id,
		Status: lookup.AttemptSuccess,
		Results: []lookup.Result{{
			Term:    title,
			Snippet: snippet,
			Source: lookup.Source{
				Provider:      cfg.ID,
				URL:           judgmentURL(cfg, id),
				Weight:        cfg.Weight,
				Authoritative: cfg.Authoritative,
			},
			Metadata: metadata,
		}},
	}
}

// ExtractIdentifier returns the first case-law identifier found in the term,
// normalized to upper case.
func ExtractIdentifier(term string) (string, bool) {
	m := ecliPattern.FindString(term)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(strings.TrimRight(m, ".")), true
}

// docFields are the element local names captured from the judgment document:
// the RDF metadata block plus the summary element preceding the judgment body.
var docFields = map[string]struct{}{
	"identifier":       {},
	"title":            {},
	"creator":          {},
	"date":             {},
	"subject":          {},
	"zaaknummer":       {},
	"abstract":         {},
	"inhoudsindicatie": {},
}

// parseJudgment collects metadata by element local name, namespace-agnostic
// like the searchRetrieve parser. The walk stops at the judgment body, which
// reuses local names such as title with an unrelated meaning.
func parseJudgment(body []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	doc := map[string]string{}

	var (
		field    string
		depth    int
		fieldBuf strings.Builder
	)
	commit := func() {
		if field == "" {
			return
		}
		if text := squash(fieldBuf.String()); text != "" {
			if existing := doc[field]; existing != "" {
				doc[field] = existing + "; " + text
			} else {
				doc[field] = text
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
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if local == "uitspraak" || local == "conclusie" {
				commit()
				return doc, nil
			}
			if field != "" {
				depth++
				continue
			}
			if _, ok := docFields[local]; ok {
				field = local
				depth = 0
			}
		case xml.CharData:
			if field != "" {
				fieldBuf.Write(t)
			}
		case xml.EndElement:
			if field == "" {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			if t.Name.Local == field {
				commit()
			}
		}
	}
	return doc, nil
}

func judgmentURL(cfg provider.Config, id string) string {
	if cfg.LinkTemplate != "" {
		return fmt.Sprintf(cfg.LinkTemplate, id)
	}
	return cfg.Endpoint + "?id=" + url.QueryEscape(id)
}

// squash collapses runs of whitespace left behind by pretty-printed XML.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
