// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wiki talks to a MediaWiki installation: category listings,
// revision lookups and revision-pinned page fetches. Every request goes
// through one Pacer so the wiki sees at most one request per RequestDelay.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/wikifacts/internal/httputil"
	"github.com/pdiddy/wikifacts/pkg/types"
)

const (
	defaultListLimit = 500
	defaultUserAgent = "wikifacts/0.1 (+https://github.com/pdiddy/wikifacts)"

	// maxBodyBytes bounds a single rendered page or API response.
	maxBodyBytes = 32 << 20
)

// PageCache stores rendered page bodies keyed by normalized title and
// revision id. Revisions are immutable so entries never go stale.
type PageCache interface {
	Get(title string, revID int64) ([]byte, bool, error)
	Put(title string, revID int64, body []byte) error
}

// Client is a MediaWiki API client. It is not safe for concurrent use; the
// pipeline issues requests one at a time.
type Client struct {
	http       *http.Client
	apiURL     string
	pageURL    string
	userAgent  string
	limit      int
	maxRetries int
	pacer      httputil.Pacer
	cache      PageCache
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPacer replaces the pacer derived from WikiConfig.RequestDelay.
func WithPacer(p httputil.Pacer) Option {
	return func(c *Client) { c.pacer = p }
}

// WithCache enables the revision-pinned page cache.
func WithCache(pc PageCache) Option {
	return func(c *Client) { c.cache = pc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a Client from cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(httpClient *http.Client, cfg types.WikiConfig, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		http:       httpClient,
		apiURL:     cfg.APIURL,
		pageURL:    cfg.PageURL,
		userAgent:  cfg.UserAgent,
		limit:      cfg.ListLimit,
		maxRetries: cfg.MaxRetries,
		pacer:      httputil.NewPacer(cfg.RequestDelay),
		logger:     slog.Default().With("component", "wiki"),
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.limit <= 0 {
		c.limit = defaultListLimit
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the rendered-page URL for title. With revID > 0 the URL
// is pinned to that revision; otherwise it is the canonical URL.
func (c *Client) PageURL(title string, revID int64) string {
	u := c.pageURL + titlePath(title)
	if revID > 0 {
		u += fmt.Sprintf("?oldid=%d", revID)
	}
	return u
}

// pageRef builds a PageRef for a title returned by the API.
func (c *Client) pageRef(title string) types.PageRef {
	return types.PageRef{Title: title, CanonicalURL: c.PageURL(title, 0)}
}

// titlePath turns a title into a URL path segment: spaces become
// underscores, everything else is escaped except "/" which MediaWiki uses
// for subpages.
func titlePath(title string) string {
	return strings.ReplaceAll(url.PathEscape(types.NormalizeTitle(title)), "%2F", "/")
}

// apiError is the error object MediaWiki returns with HTTP 200.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

// getJSON issues one paced API request and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, op string, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	reqURL := c.apiURL + "?" + params.Encode()

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return &TransportError{Op: op, URL: reqURL, Err: err}
	}
	if status != http.StatusOK {
		return &TransportError{Op: op, URL: reqURL, Status: status}
	}

	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if envelope.Error != nil {
		return &TransportError{Op: op, URL: reqURL, Err: envelope.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// get waits for the pacer, performs a GET with retry on throttling and
// returns the body and status code.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading body: %w", err)
	}
	return body, resp.StatusCode, nil
}
