// Package catalog tracks books and their per-media-type download assets.
package catalog

import (
	"time"
)

// MediaType distinguishes text editions from audiobooks.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaAudio MediaType = "audio"
)

// AssetStatus tracks the state of one media asset.
type AssetStatus string

const (
	AssetAvailable AssetStatus = "available"
	AssetDeleted   AssetStatus = "deleted"
	AssetMissing   AssetStatus = "missing"
)

// State is the derived book-level catalog state.
type State string

const (
	// StateLibrary means at least one media asset is available.
	StateLibrary State = "library"
	// StateArchive means the book is cataloged but nothing is available.
	StateArchive State = "archive"
)

// Book represents a cataloged book, identified by its metadata
// provider's code and key.
type Book struct {
	ID           int64
	ProviderCode string
	ProviderKey  string
	Title        string
	Author       string
	Year         int
	Overview     string
	State        State
	AddedAt      time.Time
	UpdatedAt    time.Time
}

// Key returns the book's natural key in provider:id form.
func (b *Book) Key() string {
	return b.ProviderCode + ":" + b.ProviderKey
}

// MediaAsset records one media type's download state for a book.
// At most one asset exists per (book, media type).
type MediaAsset struct {
	ID             int64
	BookID         int64
	MediaType      MediaType
	Status         AssetStatus
	StoragePath    string
	SizeBytes      int64
	Checksum       string
	SourceURL      string
	SourceProvider string
	UpdatedAt      time.Time
}

// RecomputeState derives the catalog state from an asset set: Library
// iff at least one asset is available, Archive otherwise. The stored
// books.catalog_state column is always the output of this function.
func RecomputeState(assets []*MediaAsset) State {
	for _, a := range assets {
		if a.Status == AssetAvailable {
			return StateLibrary
		}
	}
	return StateArchive
}

// ValidMediaType reports whether s names a known media type.
func ValidMediaType(s string) bool {
	switch MediaType(s) {
	case MediaText, MediaAudio:
		return true
	}
	return false
}
