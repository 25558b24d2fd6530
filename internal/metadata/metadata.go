// Package metadata provides access to the external book metadata provider,
// with retrying HTTP calls and SQLite-backed response caching.
package metadata

import "errors"

// Sentinel errors for provider calls.
var (
	// ErrUnavailable is returned when the provider cannot be reached
	// after exhausting retries.
	ErrUnavailable = errors.New("metadata provider unavailable")

	// ErrRejected is returned when the provider rejects the request
	// outright. Retrying will not help.
	ErrRejected = errors.New("metadata provider rejected request")
)

// SearchRequest narrows a provider search.
type SearchRequest struct {
	Title  string
	Author string
	Page   int
}

// SearchResult is one page of provider search results.
type SearchResult struct {
	Total int          `json:"total"`
	Items []BookDetail `json:"items"`
}

// BookDetail is the provider's view of one book.
type BookDetail struct {
	Key      string `json:"key"` // provider-local key, e.g. "42"
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     int    `json:"year"`
	Overview string `json:"overview"`
}
