package v1

import (
	"time"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/download"
)

// bookResponse is the API representation of a book.
type bookResponse struct {
	ID        int64           `json:"id"`
	Provider  string          `json:"provider"`
	Key       string          `json:"key"`
	Title     string          `json:"title"`
	Author    string          `json:"author,omitempty"`
	Year      int             `json:"year,omitempty"`
	Overview  string          `json:"overview,omitempty"`
	State     string          `json:"state"`
	Assets    []assetResponse `json:"assets,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type assetResponse struct {
	MediaType   string    `json:"media_type"`
	Status      string    `json:"status"`
	StoragePath string    `json:"storage_path,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// listBooksResponse is the response for GET /books.
type listBooksResponse struct {
	Items  []bookResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// jobResponse is the API representation of a download job.
type jobResponse struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"user_id"`
	BookID        int64      `json:"book_id"`
	MediaType     string     `json:"media_type"`
	Status        string     `json:"status"`
	Source        string     `json:"source,omitempty"`
	ExternalID    string     `json:"external_id,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// grabRequest is the body of POST /grab.
type grabRequest struct {
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
	Key         string `json:"key"`
	MediaType   string `json:"media_type"`
	CandidateID string `json:"candidate_id"`
}

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func bookToResponse(b *catalog.Book, assets []*catalog.MediaAsset) bookResponse {
	resp := bookResponse{
		ID:        b.ID,
		Provider:  b.ProviderCode,
		Key:       b.ProviderKey,
		Title:     b.Title,
		Author:    b.Author,
		Year:      b.Year,
		Overview:  b.Overview,
		State:     string(b.State),
		AddedAt:   b.AddedAt,
		UpdatedAt: b.UpdatedAt,
	}
	for _, a := range assets {
		resp.Assets = append(resp.Assets, assetResponse{
			MediaType:   string(a.MediaType),
			Status:      string(a.Status),
			StoragePath: a.StoragePath,
			SizeBytes:   a.SizeBytes,
			UpdatedAt:   a.UpdatedAt,
		})
	}
	return resp
}

func jobToResponse(j *download.Job) jobResponse {
	return jobResponse{
		ID:            j.ID(),
		UserID:        j.UserID(),
		BookID:        j.BookID(),
		MediaType:     string(j.MediaType()),
		Status:        string(j.Status()),
		Source:        j.Source(),
		ExternalID:    j.ExternalID(),
		FailureReason: j.FailureReason(),
		CreatedAt:     j.CreatedAt(),
		UpdatedAt:     j.UpdatedAt(),
		CompletedAt:   j.CompletedAt(),
	}
}
