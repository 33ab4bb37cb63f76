package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config mirrors the operator knobs for outbound HTTP clients.
type Config struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	UserAgent       string
}

// New builds a resty client with a pooled transport and no implicit retries.
// Re-issuing a request is always an explicit planner decision, never the
// transport's.
func New(cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 50
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "definitie-lookup-server/1.0"
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		DisableKeepAlives:   false,
		ForceAttemptHTTP2:   true,
	}

	return resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetTransport(transport)
}

// IsTimeout reports whether err is a context deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ResolveHost resolves an endpoint's host within the given timeout. Used as a
// cheap reachability preflight before committing to a full attempt loop.
func ResolveHost(ctx context.Context, resolver *net.Resolver, endpoint string, timeout time.Duration) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if _, err := resolver.LookupHost(ctx, u.Hostname()); err != nil {
		return fmt.Errorf("resolve %s: %w", u.Hostname(), err)
	}
	return nil
}
