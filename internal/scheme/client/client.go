// Package client implements scheme.Source over HTTP.
//
// GET {baseURL}/schemes/{scheme_id} returns the rule document as JSON. Status
// codes map onto the scheme error taxonomy: 404 not_found, 401/403
// authentication, 429 rate_limited, 5xx provider_outage. The client never
// retries; compose scheme.Retrying for that.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pensio/internal/scheme"
	"pensio/internal/scheme/metrics"
)

const maxResponseBytes = 1 << 20

// Client fetches rule sets from the scheme rule service.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outbound requests per second across all callers.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMetrics records fetch latency by outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock overrides the time used to stamp FetchedAt, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a client for the rule service at baseURL.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get fetches the rule set for schemeID.
func (c *Client) Get(ctx context.Context, schemeID string) (*scheme.RuleSet, error) {
	start := time.Now()
	rules, err := c.get(ctx, schemeID)
	outcome := "ok"
	if err != nil {
		outcome = string(scheme.GetCategory(err))
	}
	c.metrics.ObserveFetch(outcome, time.Since(start))
	return rules, err
}

func (c *Client) get(ctx context.Context, schemeID string) (*scheme.RuleSet, error) {
	if strings.TrimSpace(schemeID) == "" {
		return nil, scheme.NewSourceError(scheme.ErrorNotFound, schemeID, "scheme id is empty", nil)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, classifyTransportError(ctx, schemeID, err)
			}
			// Wait fails early when the deadline cannot accommodate a token.
			return nil, scheme.NewSourceError(scheme.ErrorRateLimited, schemeID, "outbound rate limit", err)
		}
	}

	endpoint := c.baseURL + "/schemes/" + url.PathEscape(schemeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, scheme.NewSourceError(scheme.ErrorInternal, schemeID, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, schemeID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, schemeID, err)
	}

	return parseRuleSetResponse(schemeID, resp.StatusCode, body, c.now())
}

// Health probes GET {baseURL}/health.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, "", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return scheme.NewSourceError(scheme.ErrorProviderOutage, "", fmt.Sprintf("health returned %d", resp.StatusCode), nil)
	}
	return nil
}

// parseRuleSetResponse maps an upstream response onto a rule set or a categorized error.
func parseRuleSetResponse(schemeID string, status int, body []byte, fetchedAt time.Time) (*scheme.RuleSet, error) {
	switch {
	case status == http.StatusNotFound:
		return nil, scheme.NewSourceError(scheme.ErrorNotFound, schemeID, "scheme not found", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, scheme.NewSourceError(scheme.ErrorAuthentication, schemeID, fmt.Sprintf("upstream returned %d", status), nil)
	case status == http.StatusTooManyRequests:
		return nil, scheme.NewSourceError(scheme.ErrorRateLimited, schemeID, "upstream rate limited", nil)
	case status >= 500:
		return nil, scheme.NewSourceError(scheme.ErrorProviderOutage, schemeID, fmt.Sprintf("upstream returned %d", status), nil)
	case status != http.StatusOK:
		return nil, scheme.NewSourceError(scheme.ErrorInternal, schemeID, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var rules scheme.RuleSet
	if err := json.Unmarshal(body, &rules); err != nil {
		return nil, scheme.NewSourceError(scheme.ErrorBadData, schemeID, "malformed rule document", err)
	}
	if rules.SchemeID == "" {
		rules.SchemeID = schemeID
	}
	if rules.SchemeID != schemeID {
		return nil, scheme.NewSourceError(scheme.ErrorBadData, schemeID,
			fmt.Sprintf("rule document is for scheme %q", rules.SchemeID), nil)
	}
	rules.ApplyDefaults()
	if err := rules.Validate(); err != nil {
		return nil, scheme.NewSourceError(scheme.ErrorBadData, schemeID, "invalid rule document", err)
	}
	rules.FetchedAt = fetchedAt
	return &rules, nil
}

func classifyTransportError(ctx context.Context, schemeID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return scheme.NewSourceError(scheme.ErrorInternal, schemeID, "request canceled", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return scheme.NewSourceError(scheme.ErrorTimeout, schemeID, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return scheme.NewSourceError(scheme.ErrorTimeout, schemeID, "request timed out", err)
	}
	return scheme.NewSourceError(scheme.ErrorProviderOutage, schemeID, "request failed", err)
}
