// Package search discovers download candidates for catalog books by
// combining the metadata provider (for the query) with the indexer.
package search

//go:generate mockgen -destination mocks/mocks.go -package mocks github.com/vmunix/bookarr/internal/search MetadataAPI,IndexerAPI

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/metadata"
	"github.com/vmunix/bookarr/pkg/torznab"
)

// Candidate is a normalized view of one indexer result. Candidates are
// never persisted; the id is re-derived on every discovery call and is
// only meaningful within that short window.
type Candidate struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	DownloadURL string     `json:"downloadUrl"`
	InfoURL     string     `json:"infoUrl,omitempty"`
	Source      string     `json:"source"`
	Seeders     *int       `json:"seeders,omitempty"`
	Size        *int64     `json:"size,omitempty"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
	MatchScore  float64    `json:"matchScore"`
}

// Request identifies the book and slice of results to discover.
type Request struct {
	ProviderCode string
	ProviderKey  string
	MediaType    catalog.MediaType
	Page         int
	PageSize     int
}

// MetadataAPI is the slice of the metadata service discovery needs.
type MetadataAPI interface {
	Provider() string
	GetDetails(ctx context.Context, providerKey string) (*metadata.BookDetail, error)
}

// IndexerAPI is the slice of the indexer client discovery needs.
type IndexerAPI interface {
	Name() string
	Search(ctx context.Context, query string, maxItems int) ([]torznab.Entry, error)
}

const maxIndexerItems = 100

// Discoverer turns a book reference into a page of download candidates.
type Discoverer struct {
	meta    MetadataAPI
	indexer IndexerAPI
	log     *slog.Logger
}

// NewDiscoverer creates a candidate discoverer.
func NewDiscoverer(meta MetadataAPI, indexer IndexerAPI, log *slog.Logger) *Discoverer {
	if log == nil {
		log = slog.Default()
	}
	return &Discoverer{
		meta:    meta,
		indexer: indexer,
		log:     log.With("component", "search"),
	}
}

// Discover resolves the book's title, queries the indexer, and returns
// one page of candidates in the indexer's order. No re-ranking is done;
// the match score is informational only.
func (d *Discoverer) Discover(ctx context.Context, req Request) ([]Candidate, error) {
	if req.ProviderCode != d.meta.Provider() {
		return nil, fmt.Errorf("provider %q: %w", req.ProviderCode, ErrUnknownProvider)
	}

	detail, err := d.meta.GetDetails(ctx, req.ProviderKey)
	if err != nil {
		return nil, fmt.Errorf("resolve book %s:%s: %w", req.ProviderCode, req.ProviderKey, err)
	}
	if detail == nil {
		return nil, fmt.Errorf("book %s:%s: %w", req.ProviderCode, req.ProviderKey, ErrBookNotFound)
	}

	query := NormalizeQuery(detail.Title)
	if req.MediaType == catalog.MediaAudio {
		query += " audiobook"
	}

	start := time.Now()
	entries, err := d.indexer.Search(ctx, query, maxIndexerItems)
	if err != nil {
		return nil, fmt.Errorf("search indexer: %w", err)
	}
	d.log.Debug("discovery complete", "query", query, "results", len(entries),
		"duration_ms", time.Since(start).Milliseconds())

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, Candidate{
			ID:          candidateID(e.Title, e.DownloadURL, e.Indexer),
			Title:       e.Title,
			DownloadURL: e.DownloadURL,
			InfoURL:     e.InfoURL,
			Source:      e.Indexer,
			Seeders:     e.Seeders,
			Size:        e.Size,
			PublishDate: e.PublishDate,
			MatchScore:  float64(edlib.JaroWinklerSimilarity(query, NormalizeQuery(e.Title))),
		})
	}

	return paginate(candidates, req.Page, req.PageSize), nil
}

// candidateID derives a stable id for one (title, uri, source) tuple.
func candidateID(title, downloadURL, source string) string {
	sum := sha1.Sum([]byte(title + "|" + downloadURL + "|" + source))
	return hex.EncodeToString(sum[:])[:16]
}

// paginate slices one page out of the ordered result set. Page numbers
// start at 1; a zero or negative page size falls back to 20.
func paginate(candidates []Candidate, page, pageSize int) []Candidate {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset >= len(candidates) {
		return []Candidate{}
	}
	end := offset + pageSize
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[offset:end]
}
