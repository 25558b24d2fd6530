package v1

import (
	"context"

	"github.com/vmunix/bookarr/internal/download"
	"github.com/vmunix/bookarr/internal/search"
)

// DownloadService is the download manager surface the API uses.
type DownloadService interface {
	AddAndDownload(ctx context.Context, userID string, req download.AddRequest) (*download.Job, error)
	Cancel(ctx context.Context, jobID int64, userID string, deleteFiles bool) error
	Get(jobID int64) (*download.Job, error)
	List(f download.JobFilter) ([]*download.Job, error)
}

// CandidateService is the discovery surface the API uses.
type CandidateService interface {
	Discover(ctx context.Context, req search.Request) ([]search.Candidate, error)
}

// Deps holds the optional services handlers depend on. A nil service
// turns its routes into 503s instead of panics.
type Deps struct {
	Manager    DownloadService
	Discoverer CandidateService
}
