package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/bookarr/pkg/retry"
)

// Client talks to one book metadata provider over HTTP.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	policy     retry.Policy
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "metadata", "provider", c.provider) }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a metadata provider client tagged with its provider code.
func NewClient(provider, baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		policy:   retry.DefaultPolicy,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider code this client is tagged with.
func (c *Client) Provider() string {
	return c.provider
}

// Search queries the provider by title and/or author.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()

	params := url.Values{}
	if req.Title != "" {
		params.Set("title", req.Title)
	}
	if req.Author != "" {
		params.Set("author", req.Author)
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}

	var result SearchResult
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		return c.getJSON(ctx, "/search?"+params.Encode(), &result)
	})
	if err != nil {
		return nil, c.classify("search", err)
	}

	if c.log != nil {
		c.log.Debug("search complete",
			"title", req.Title,
			"results", len(result.Items),
			"total", result.Total,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return &result, nil
}

// GetDetails fetches one book by its provider-local key.
// Returns nil, nil when the provider has no such book.
func (c *Client) GetDetails(ctx context.Context, key string) (*BookDetail, error) {
	start := time.Now()

	var detail BookDetail
	var missing bool
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		missing = false
		err := c.getJSON(ctx, "/books/"+url.PathEscape(key), &detail)
		if errors.Is(err, errNotFound) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, c.classify("details", err)
	}
	if missing {
		if c.log != nil {
			c.log.Debug("book not found", "key", key)
		}
		return nil, nil
	}

	if c.log != nil {
		c.log.Debug("fetched details", "key", key, "title", detail.Title, "duration_ms", time.Since(start).Milliseconds())
	}
	return &detail, nil
}

// errNotFound marks a provider 404; callers translate it to nil details.
var errNotFound = errors.New("provider 404")

// getJSON performs one GET and decodes the body, classifying failures
// for the retry policy.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retry.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case retry.TransientStatus(resp.StatusCode):
		return retry.Transient(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classify maps a retry outcome onto the package's error taxonomy,
// tagging it with the provider code.
func (c *Client) classify(op string, err error) error {
	switch {
	case errors.Is(err, retry.ErrExhausted):
		return fmt.Errorf("provider %s %s: %w: %v", c.provider, op, ErrUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("provider %s %s: %w: %v", c.provider, op, ErrRejected, err)
	}
}
