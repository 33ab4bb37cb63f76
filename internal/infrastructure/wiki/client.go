// Package wiki queries an encyclopedia REST API for the best-match summary of
// a term. One request per unit: the endpoint does its own title matching and
// redirect resolution, so there is no cascade worth running.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/httpclient"
)

// StrategyTitle is the family's only strategy.
const StrategyTitle = "title"

// ClientConfig carries the transport knobs for the summary client.
type ClientConfig struct {
	HTTP             httpclient.Config
	PreflightTimeout time.Duration
}

// Client fetches page summaries over the REST v1 API.
type Client struct {
	cfg      ClientConfig
	http     *resty.Client
	resolver *net.Resolver
}

// NewClient builds a summary client around a pooled HTTP transport.
func NewClient(cfg ClientConfig) *Client {
	if cfg.PreflightTimeout <= 0 {
		cfg.PreflightTimeout = 2 * time.Second
	}
	return &Client{cfg: cfg, http: httpclient.New(cfg.HTTP), resolver: net.DefaultResolver}
}

// Family implements lookup.ProtocolClient.
func (c *Client) Family() provider.Family { return provider.FamilyWiki }

// Strategies implements lookup.ProtocolClient.
func (c *Client) Strategies(provider.Config) []string { return []string{StrategyTitle} }

// Preflight implements lookup.ProtocolClient.
func (c *Client) Preflight(ctx context.Context, cfg provider.Config) error {
	return httpclient.ResolveHost(ctx, c.resolver, cfg.Endpoint, c.cfg.PreflightTimeout)
}

// pageSummary is the subset of the REST page/summary payload the lookup uses.
type pageSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Lang        string `json:"lang"`
	Timestamp   string `json:"timestamp"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Execute implements lookup.ProtocolClient. A 404 means the encyclopedia has
// no article under the title, which is an ordinary empty attempt.
func (c *Client) Execute(ctx context.Context, cfg provider.Config, term string, _ lookup.QueryStage, _ string) lookup.Outcome {
	pageTitle := strings.Join(strings.Fields(term), "_")

	req := c.http.R().SetContext(ctx)
	for k, v := range cfg.Params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(strings.TrimSuffix(cfg.Endpoint, "/") + "/page/summary/" + url.PathEscape(pageTitle))
	if err != nil {
		if httpclient.IsTimeout(err) {
			return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptTimeout, Diagnostic: err.Error()}
		}
		log.Warn().Err(err).Str("provider", cfg.ID).Str("endpoint", cfg.Endpoint).Msg("summary request failed")
		return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptError, Diagnostic: "transport: " + err.Error()}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptEmpty}
	}
	if resp.IsError() {
		return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptError, Diagnostic: fmt.Sprintf("http status %d", resp.StatusCode())}
	}

	var summary pageSummary
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptError, Diagnostic: "parse: " + err.Error()}
	}

	snippet := firstNonEmpty(summary.Extract, visibleText(summary.ExtractHTML), summary.Description)
	if strings.TrimSpace(snippet) == "" {
		return lookup.Outcome{Query: pageTitle, Status: lookup.AttemptEmpty}
	}

	metadata := map[string]string{}
	for k, v := range map[string]string{
		"description": summary.Description,
		"type":        summary.Type,
		"lang":        summary.Lang,
		"timestamp":   summary.Timestamp,
	} {
		if v != "" {
			metadata[k] = v
		}
	}

	return lookup.Outcome{
		Query:  pageTitle,
		Status: lookup.AttemptSuccess,
		Results: []lookup.Result{{
			Term:    firstNonEmpty(summary.Title, strings.TrimSpace(term)),
			Snippet: snippet,
			Source: lookup.Source{
				Provider:      cfg.ID,
				URL:           pageURL(cfg, summary, pageTitle),
				Weight:        cfg.Weight,
				Authoritative: cfg.Authoritative,
			},
			Metadata: metadata,
		}},
	}
}

func pageURL(cfg provider.Config, summary pageSummary, title string) string {
	if summary.ContentURLs.Desktop.Page != "" {
		return summary.ContentURLs.Desktop.Page
	}
	if cfg.LinkTemplate != "" {
		return fmt.Sprintf(cfg.LinkTemplate, title)
	}
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host + "/wiki/" + url.PathEscape(title)
	}
	return cfg.Endpoint
}

// visibleText strips markup from an HTML fragment, keeping the text nodes
// outside script and style elements.
func visibleText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			val := strings.TrimSpace(n.Data)
			if val != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return builder.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
