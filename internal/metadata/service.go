package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const (
	// Cache TTLs
	detailTTL = 24 * time.Hour
	searchTTL = time.Hour
)

// Cache key prefixes
const (
	keyPrefixSearch = "meta:search:"
	keyPrefixDetail = "meta:detail:"
)

// API is the provider surface the service (and discovery) depend on.
type API interface {
	Provider() string
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	GetDetails(ctx context.Context, key string) (*BookDetail, error)
}

// Service provides cached access to book metadata.
type Service struct {
	client API
	cache  *Cache
	log    *slog.Logger
}

// NewService creates a cached metadata service.
func NewService(client API, cache *Cache, log *slog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		log:    log,
	}
}

// Provider returns the underlying provider code.
func (s *Service) Provider() string {
	return s.client.Provider()
}

// Search searches provider metadata (cached).
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	key := fmt.Sprintf("%s%s|%s|%d", keyPrefixSearch, req.Title, req.Author, req.Page)

	if data, ok := s.cache.Get(ctx, key); ok {
		var result SearchResult
		if err := json.Unmarshal(data, &result); err == nil {
			if s.log != nil {
				s.log.Debug("cache hit for search", "title", req.Title, "results", len(result.Items))
			}
			return &result, nil
		}
		// If unmarshal fails, treat as cache miss and fetch fresh data
		if s.log != nil {
			s.log.Warn("failed to unmarshal cached search results", "title", req.Title)
		}
	}

	result, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, result, searchTTL)
	return result, nil
}

// GetDetails fetches one book's details (cached). A provider miss
// (nil detail) is not cached so a just-published book shows up promptly.
func (s *Service) GetDetails(ctx context.Context, providerKey string) (*BookDetail, error) {
	key := keyPrefixDetail + providerKey

	if data, ok := s.cache.Get(ctx, key); ok {
		var detail BookDetail
		if err := json.Unmarshal(data, &detail); err == nil {
			if s.log != nil {
				s.log.Debug("cache hit for details", "key", providerKey)
			}
			return &detail, nil
		}
		if s.log != nil {
			s.log.Warn("failed to unmarshal cached details", "key", providerKey)
		}
	}

	detail, err := s.client.GetDetails(ctx, providerKey)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, nil
	}

	s.store(ctx, key, detail, detailTTL)
	return detail, nil
}

// store caches a value, logging instead of failing the operation.
func (s *Service) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Warn("failed to marshal for cache", "key", key, "error", err)
		}
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		if s.log != nil {
			s.log.Warn("failed to cache value", "key", key, "error", err)
		}
	}
}
