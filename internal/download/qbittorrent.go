package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/bookarr/pkg/retry"
)

// QBittorrentClient talks to a qBittorrent Web API v2 endpoint.
type QBittorrentClient struct {
	baseURL    string
	category   string
	policy     retry.Policy
	httpClient *http.Client
	log        *slog.Logger
}

// QBittorrentOption configures a QBittorrentClient.
type QBittorrentOption func(*QBittorrentClient)

// WithQBHTTPClient sets a custom HTTP client.
func WithQBHTTPClient(hc *http.Client) QBittorrentOption {
	return func(c *QBittorrentClient) { c.httpClient = hc }
}

// WithQBRetryPolicy sets the retry policy for engine calls.
func WithQBRetryPolicy(p retry.Policy) QBittorrentOption {
	return func(c *QBittorrentClient) { c.policy = p }
}

// NewQBittorrentClient creates a qBittorrent client.
func NewQBittorrentClient(baseURL, category string, log *slog.Logger, opts ...QBittorrentOption) *QBittorrentClient {
	if log == nil {
		log = slog.Default()
	}
	c := &QBittorrentClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		category: category,
		policy:   retry.DefaultPolicy,
		log:      log.With("component", "qbittorrent"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// torrentInfo is one entry of the /torrents/info response.
type torrentInfo struct {
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	State    string `json:"state"`
	SavePath string `json:"save_path"`
	Size     int64  `json:"size"`
}

// Enqueue submits a download handle. qBittorrent returns no job id on
// add, so the id is derived from the magnet info-hash when possible.
func (c *QBittorrentClient) Enqueue(ctx context.Context, handle, name string) (string, error) {
	c.log.Debug("enqueueing download", "name", name, "category", c.category)

	form := url.Values{
		"urls":     {handle},
		"category": {c.category},
	}
	if err := c.postForm(ctx, "/api/v2/torrents/add", form); err != nil {
		return "", err
	}

	externalID := ExtractInfoHash(handle)
	c.log.Debug("download enqueued", "external_id", externalID)
	return externalID, nil
}

// Status looks up one job by its info-hash. Returns ErrEngineJobNotFound
// when the engine no longer lists it.
func (c *QBittorrentClient) Status(ctx context.Context, externalID string) (*EngineStatus, error) {
	reqURL := c.baseURL + "/api/v2/torrents/info?hashes=" + url.QueryEscape(externalID)

	var infos []torrentInfo
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		return c.getJSON(ctx, reqURL, &infos)
	})
	if err != nil {
		return nil, c.classify("status", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("job %s: %w", externalID, ErrEngineJobNotFound)
	}

	info := infos[0]
	return &EngineStatus{
		ExternalID:  info.Hash,
		Name:        info.Name,
		State:       mapEngineState(info.State),
		StoragePath: info.SavePath,
		SizeBytes:   info.Size,
	}, nil
}

// Remove deletes a job from the engine, optionally with its files.
func (c *QBittorrentClient) Remove(ctx context.Context, externalID string, deleteFiles bool) error {
	c.log.Debug("removing download", "external_id", externalID, "delete_files", deleteFiles)

	form := url.Values{
		"hashes":      {externalID},
		"deleteFiles": {fmt.Sprintf("%t", deleteFiles)},
	}
	if err := c.postForm(ctx, "/api/v2/torrents/delete", form); err != nil {
		return err
	}

	c.log.Debug("download removed", "external_id", externalID)
	return nil
}

func (c *QBittorrentClient) postForm(ctx context.Context, path string, form url.Values) error {
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Transient(fmt.Errorf("engine request: %w", err))
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		return c.checkStatus(resp.StatusCode)
	})
	if err != nil {
		return c.classify(path, err)
	}
	return nil
}

func (c *QBittorrentClient) getJSON(ctx context.Context, reqURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Transient(fmt.Errorf("engine request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *QBittorrentClient) checkStatus(code int) error {
	if code == http.StatusOK {
		return nil
	}
	err := fmt.Errorf("unexpected status: %d", code)
	if retry.TransientStatus(code) {
		return retry.Transient(err)
	}
	return err
}

// classify folds transport failures into the package sentinels. Retry
// exhaustion means the engine is unreachable; anything else non-context
// means it refused the request.
func (c *QBittorrentClient) classify(op string, err error) error {
	c.log.Debug("engine request failed", "op", op, "error", err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("engine %s: %w", op, ErrEngineUnavailable)
	}
	return fmt.Errorf("engine %s: %w", op, ErrEngineRejected)
}

// mapEngineState converts a qBittorrent torrent state to a job status.
// Unknown states map to downloading.
func mapEngineState(state string) Status {
	switch strings.ToLower(state) {
	case "error", "missingfiles":
		return StatusFailed
	case "queueddl", "pauseddl", "stoppeddl", "checkingdl", "checkingresumedata":
		return StatusQueued
	case "downloading", "metadl", "forceddl", "stalleddl", "allocating", "moving":
		return StatusDownloading
	case "uploading", "stalledup", "pausedup", "stoppedup", "queuedup", "checkingup", "forcedup":
		return StatusCompleted
	default:
		return StatusDownloading
	}
}
