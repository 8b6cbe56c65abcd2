// Package oddsapi is a client for The Odds API v4, the upstream provider of
// sport catalogs and bookmaker odds.
package oddsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.the-odds-api.com/v4"

// maxErrBody caps how much of an error response body ends up in messages.
const maxErrBody = 200

// Usage carries the quota counters the provider reports in response
// headers. Reported is false when the headers were absent.
type Usage struct {
	Remaining int
	Used      int
	Reported  bool
}

// Client calls The Odds API. Every request is addressed by an explicit API
// key so the caller can rotate credentials per request.
type Client struct {
	baseURL    string
	regions    []string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRegions sets the bookmaker regions requested for odds queries.
func WithRegions(regions []string) Option {
	return func(c *Client) {
		if len(regions) > 0 {
			c.regions = regions
		}
	}
}

// WithRateLimit replaces the default request limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a Client with sane defaults: the production base URL,
// eu and uk regions, a 30 second timeout, and a 5 req/s limiter.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		regions: []string{"eu", "uk"},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sports fetches the sport catalog. The raw payload is returned so the
// caller can cache it verbatim.
func (c *Client) Sports(ctx context.Context, apiKey string) ([]byte, Usage, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)

	return c.doGet(ctx, "/sports", params)
}

// Odds fetches odds for one sport, markets, and optional bookmaker filter.
// The raw payload is returned so the caller can cache it verbatim.
func (c *Client) Odds(ctx context.Context, apiKey string, req domain.QuoteRequest) ([]byte, Usage, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(req.Markets, ","))
	params.Set("oddsFormat", "decimal")
	if len(req.Bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(req.Bookmakers, ","))
	}

	path := "/sports/" + url.PathEscape(req.Sport) + "/odds"
	return c.doGet(ctx, path, params)
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, Usage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, Usage{}, fmt.Errorf("oddsapi: rate limiter: %w", err)
	}

	// The error URL never includes the query string, so credentials stay
	// out of logs.
	errURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("oddsapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Usage{}, &domain.UpstreamError{URL: errURL, Msg: err.Error()}
	}
	defer resp.Body.Close()

	usage := parseUsage(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, usage, &domain.UpstreamError{URL: errURL, Msg: "read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrBody {
			msg = msg[:maxErrBody]
		}
		return nil, usage, &domain.UpstreamError{Status: resp.StatusCode, URL: errURL, Msg: msg}
	}

	return body, usage, nil
}

// parseUsage reads the x-requests-remaining and x-requests-used headers.
func parseUsage(h http.Header) Usage {
	remaining := h.Get("x-requests-remaining")
	if remaining == "" {
		return Usage{}
	}
	u := Usage{Reported: true}
	if n, err := strconv.Atoi(remaining); err == nil {
		u.Remaining = n
	}
	if n, err := strconv.Atoi(h.Get("x-requests-used")); err == nil {
		u.Used = n
	}
	return u
}
