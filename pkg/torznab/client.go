// Package torznab implements the Torznab torrent indexer API protocol.
package torznab

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/bookarr/pkg/retry"
)

// Sentinel errors for indexer responses.
var (
	// ErrUnavailable is returned when the indexer cannot be reached
	// after exhausting retries.
	ErrUnavailable = errors.New("indexer unavailable")

	// ErrRejected is returned when the indexer rejects the request
	// outright (bad key, malformed query). Retrying will not help.
	ErrRejected = errors.New("indexer rejected request")
)

// Client is a Torznab API client for a single indexer.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	policy     retry.Policy
	httpClient *http.Client
	log        *slog.Logger
}

// Entry represents one search result from the indexer feed.
// Seeders, Size and PublishDate are nil when the feed omits them or
// carries values that fail to parse.
type Entry struct {
	Title       string
	DownloadURL string // magnet URI or direct link
	InfoURL     string // user-facing details page
	Indexer     string
	Seeders     *int
	Size        *int64
	PublishDate *time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "torznab", "indexer", c.name) }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a new Torznab client.
func NewClient(name, baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		policy:  retry.DefaultPolicy,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the indexer name.
func (c *Client) Name() string {
	return c.name
}

// Torznab RSS response structures.
type rssResponse struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string       `xml:"title"`
	GUID      string       `xml:"guid"`
	Link      string       `xml:"link"`
	Comments  string       `xml:"comments"`
	Size      string       `xml:"size"`
	PubDate   string       `xml:"pubDate"`
	Enclosure rssEnclosure `xml:"enclosure"`
	Attrs     []tzAttr     `xml:"http://torznab.com/schemas/2015/feed attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type tzAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Search queries the indexer and returns at most maxItems entries.
func (c *Client) Search(ctx context.Context, query string, maxItems int) ([]Entry, error) {
	start := time.Now()

	reqURL, err := url.Parse(c.baseURL + "/api")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", "search")
	if query != "" {
		params.Set("q", query)
	}
	if maxItems > 0 {
		params.Set("limit", strconv.Itoa(maxItems))
	}
	reqURL.RawQuery = params.Encode()

	var rss rssResponse
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		return c.fetch(ctx, reqURL.String(), &rss)
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		e, ok := convertItem(item, c.name)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	if maxItems > 0 && len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	if c.log != nil {
		c.log.Debug("search complete",
			"query", query,
			"results", len(entries),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return entries, nil
}

// fetch performs one GET and decodes the feed. Failures are classified
// so the retry policy only retries the transient ones.
func (c *Client) fetch(ctx context.Context, rawURL string, rss *rssResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.log != nil {
			c.log.Debug("request failed", "url", RedactURL(rawURL), "error", err)
		}
		return retry.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if c.log != nil {
			c.log.Debug("unexpected status", "url", RedactURL(rawURL), "status", resp.StatusCode)
		}
		statusErr := fmt.Errorf("unexpected status: %d", resp.StatusCode)
		if retry.TransientStatus(resp.StatusCode) {
			return retry.Transient(statusErr)
		}
		return fmt.Errorf("%w: %v", ErrRejected, statusErr)
	}

	*rss = rssResponse{}
	if err := xml.NewDecoder(resp.Body).Decode(rss); err != nil && err != io.EOF {
		return fmt.Errorf("%w: parse response: %v", ErrRejected, err)
	}
	return nil
}

// convertItem normalizes one feed item. Items with neither a title nor
// any usable download handle are dropped.
func convertItem(item rssItem, indexer string) (Entry, bool) {
	e := Entry{
		Title:   strings.TrimSpace(item.Title),
		Indexer: indexer,
	}

	// A per-entry magnet link wins over the plain link or enclosure.
	for _, attr := range item.Attrs {
		if attr.Name == "magneturl" && attr.Value != "" {
			e.DownloadURL = attr.Value
			break
		}
	}
	if e.DownloadURL == "" {
		if strings.HasPrefix(item.Link, "magnet:") {
			e.DownloadURL = item.Link
		} else if strings.HasPrefix(item.GUID, "magnet:") {
			e.DownloadURL = item.GUID
		} else if item.Link != "" {
			e.DownloadURL = item.Link
		} else if item.Enclosure.URL != "" {
			e.DownloadURL = item.Enclosure.URL
		}
	}

	if e.Title == "" && e.DownloadURL == "" {
		return Entry{}, false
	}

	// A details page beats a bare guid for the user-facing reference.
	switch {
	case item.Comments != "":
		e.InfoURL = item.Comments
	case strings.HasPrefix(item.GUID, "http"):
		e.InfoURL = item.GUID
	}

	if size, err := strconv.ParseInt(item.Size, 10, 64); err == nil && size > 0 {
		e.Size = &size
	} else if item.Enclosure.Length > 0 {
		length := item.Enclosure.Length
		e.Size = &length
	} else {
		for _, attr := range item.Attrs {
			if attr.Name == "size" {
				if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil && v > 0 {
					e.Size = &v
				}
				break
			}
		}
	}

	for _, attr := range item.Attrs {
		if attr.Name == "seeders" {
			if v, err := strconv.Atoi(attr.Value); err == nil {
				e.Seeders = &v
			}
			break
		}
	}

	if item.PubDate != "" {
		for _, format := range []string{
			time.RFC1123Z,
			"Mon, 02 Jan 2006 15:04:05 -0700",
			"Mon, 02 Jan 2006 15:04:05 MST",
			time.RFC1123,
		} {
			if t, err := time.Parse(format, item.PubDate); err == nil {
				e.PublishDate = &t
				break
			}
		}
	}

	return e, true
}

// RedactURL strips the API key from a request URL so it never reaches
// the logs.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "(unparseable url)"
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
