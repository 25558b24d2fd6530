package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/metadata"
	"github.com/vmunix/bookarr/internal/search"
)

// CandidateFinder re-derives download candidates for a book. Candidate
// ids are only valid per discovery call, so the manager re-runs
// discovery instead of trusting ids from an earlier request.
type CandidateFinder interface {
	Discover(ctx context.Context, req search.Request) ([]search.Candidate, error)
}

// MetadataResolver is the slice of the metadata service the manager
// needs to resolve books by provider key.
type MetadataResolver interface {
	Provider() string
	GetDetails(ctx context.Context, providerKey string) (*metadata.BookDetail, error)
}

// rediscoverLimit bounds candidate re-derivation during add-and-download.
const rediscoverLimit = 100

// Manager orchestrates download jobs: creation against the engine and
// catalog, periodic reconciliation, and cancelation.
type Manager struct {
	engine Engine
	store  *Store
	books  *catalog.Store
	finder CandidateFinder
	meta   MetadataResolver
	db     *sql.DB

	notFoundGrace time.Duration
	now           func() time.Time
	log           *slog.Logger
}

// NewManager creates a download manager. The grace duration is how long
// an active job may be missing from the engine before it is failed.
func NewManager(engine Engine, store *Store, books *catalog.Store, finder CandidateFinder,
	meta MetadataResolver, db *sql.DB, notFoundGrace time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		engine:        engine,
		store:         store,
		books:         books,
		finder:        finder,
		meta:          meta,
		db:            db,
		notFoundGrace: notFoundGrace,
		now:           time.Now,
		log:           log.With("component", "download"),
	}
}

// AddRequest identifies a book, media type, and chosen candidate.
type AddRequest struct {
	ProviderCode string
	ProviderKey  string
	MediaType    catalog.MediaType
	CandidateID  string
}

// AddAndDownload resolves the book, re-validates the chosen candidate,
// enqueues it at the engine, and records the book and a Queued job in
// one transaction. Nothing is persisted if the engine rejects the
// enqueue; an enqueue that commits remotely but fails locally leaves an
// orphan the sync loop will observe.
func (m *Manager) AddAndDownload(ctx context.Context, userID string, req AddRequest) (*Job, error) {
	if req.ProviderCode != m.meta.Provider() {
		return nil, fmt.Errorf("provider %q: %w", req.ProviderCode, ErrBookNotFound)
	}

	book, err := m.books.GetBookByKey(req.ProviderCode, req.ProviderKey)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("lookup book: %w", err)
	}

	var detail *metadata.BookDetail
	if book == nil {
		detail, err = m.meta.GetDetails(ctx, req.ProviderKey)
		if err != nil {
			return nil, fmt.Errorf("resolve book: %w", err)
		}
		if detail == nil {
			return nil, fmt.Errorf("book %s:%s: %w", req.ProviderCode, req.ProviderKey, ErrBookNotFound)
		}
	}

	candidates, err := m.finder.Discover(ctx, search.Request{
		ProviderCode: req.ProviderCode,
		ProviderKey:  req.ProviderKey,
		MediaType:    req.MediaType,
		Page:         1,
		PageSize:     rediscoverLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("rediscover candidates: %w", err)
	}
	var cand *search.Candidate
	for i := range candidates {
		if candidates[i].ID == req.CandidateID {
			cand = &candidates[i]
			break
		}
	}
	if cand == nil {
		return nil, fmt.Errorf("candidate %s: %w", req.CandidateID, ErrCandidateNotFound)
	}

	if book != nil {
		if _, err := m.store.GetActiveByScope(userID, book.ID, req.MediaType); err == nil {
			return nil, ErrActiveDownloadExists
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("check active job: %w", err)
		}
	}

	externalID, err := m.engine.Enqueue(ctx, cand.DownloadURL, cand.Title)
	if err != nil {
		m.log.Error("enqueue failed", "candidate", cand.ID, "error", err)
		return nil, err
	}

	job, err := m.persistAdd(userID, req, book, detail, cand, externalID)
	if err != nil {
		// Orphan at the engine is acceptable, the sync loop will see it
		return nil, err
	}

	m.log.Info("download added", "job_id", job.ID(), "book_id", job.BookID(),
		"media_type", job.MediaType(), "external_id", externalID)
	return job, nil
}

// persistAdd writes the book (if new) and the Queued job atomically.
func (m *Manager) persistAdd(userID string, req AddRequest, book *catalog.Book,
	detail *metadata.BookDetail, cand *search.Candidate, externalID string) (*Job, error) {

	tx, err := m.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	booksTx := catalog.NewTx(tx)
	jobsTx := NewTx(tx)

	if book == nil {
		now := m.now().UTC()
		book = &catalog.Book{
			ProviderCode: req.ProviderCode,
			ProviderKey:  req.ProviderKey,
			Title:        detail.Title,
			Author:       detail.Author,
			Year:         detail.Year,
			Overview:     detail.Overview,
			State:        catalog.StateArchive,
			AddedAt:      now,
			UpdatedAt:    now,
		}
		if err := booksTx.AddBook(book); err != nil {
			if errors.Is(err, catalog.ErrDuplicate) {
				book, err = booksTx.GetBookByKey(req.ProviderCode, req.ProviderKey)
				if err != nil {
					return nil, fmt.Errorf("refetch book: %w", err)
				}
			} else {
				return nil, fmt.Errorf("add book: %w", err)
			}
		}
	}

	magnet := ""
	if strings.HasPrefix(cand.DownloadURL, "magnet:") {
		magnet = cand.DownloadURL
	}
	job := NewJob(userID, book.ID, req.MediaType, cand.Source, externalID, magnet, m.now())
	if err := jobsTx.Add(job); err != nil {
		if errors.Is(err, ErrActiveDownloadExists) {
			return nil, ErrActiveDownloadExists
		}
		return nil, fmt.Errorf("save job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return job, nil
}

// SyncActive polls the engine for every active job and reconciles local
// state. One job's failure never stops the others; the last error is
// returned after the full pass.
func (m *Manager) SyncActive(ctx context.Context) error {
	jobs, err := m.store.List(JobFilter{Active: true})
	if err != nil {
		return fmt.Errorf("list active: %w", err)
	}

	m.log.Debug("sync started", "active_jobs", len(jobs))

	var lastErr error
	for _, job := range jobs {
		if err := m.syncJob(ctx, job); err != nil {
			m.log.Error("sync error", "job_id", job.ID(), "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (m *Manager) syncJob(ctx context.Context, job *Job) error {
	if job.ExternalID() == "" {
		m.log.Debug("job has no engine handle, skipping", "job_id", job.ID())
		return nil
	}

	now := m.now().UTC()
	status, err := m.engine.Status(ctx, job.ExternalID())
	switch {
	case errors.Is(err, ErrEngineJobNotFound):
		first := job.ObserveNotFound(now)
		if now.Sub(first) >= m.notFoundGrace {
			if err := job.Fail("vanished from download engine before completion", now); err != nil {
				return err
			}
			m.log.Info("job vanished, failing", "job_id", job.ID(), "missing_since", first)
		}
		return m.store.Update(job)
	case err != nil:
		return err
	}

	job.ObserveFound(now)

	target := status.State
	if target == job.Status() {
		return m.store.Update(job)
	}

	// The engine can move past a state between polls; a Queued job seen
	// completed steps through Downloading first.
	if job.Status() == StatusQueued && target == StatusCompleted {
		if err := job.TransitionTo(StatusDownloading, now); err != nil {
			return err
		}
	}

	if !job.Status().CanTransitionTo(target) {
		m.log.Debug("ignoring engine state", "job_id", job.ID(), "status", job.Status(), "engine", target)
		return m.store.Update(job)
	}

	if target == StatusCompleted {
		return m.completeJob(job, status, now)
	}

	var terr error
	if target == StatusFailed {
		terr = job.Fail("download failed in engine", now)
	} else {
		terr = job.TransitionTo(target, now)
	}
	if terr != nil {
		return terr
	}
	m.log.Info("job status changed", "job_id", job.ID(), "status", job.Status())
	return m.store.Update(job)
}

// completeJob finalizes a finished job: the job row, the media asset,
// and the book's catalog state move together in one transaction.
func (m *Manager) completeJob(job *Job, status *EngineStatus, now time.Time) error {
	if err := job.Complete(now); err != nil {
		return err
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := NewTx(tx).Update(job); err != nil {
		return err
	}

	booksTx := catalog.NewTx(tx)
	asset := &catalog.MediaAsset{
		BookID:         job.BookID(),
		MediaType:      job.MediaType(),
		Status:         catalog.AssetAvailable,
		StoragePath:    status.StoragePath,
		SizeBytes:      status.SizeBytes,
		SourceURL:      job.Magnet(),
		SourceProvider: job.Source(),
	}
	if err := booksTx.UpsertAsset(asset); err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.log.Info("job completed", "job_id", job.ID(), "book_id", job.BookID(),
		"path", status.StoragePath, "size", status.SizeBytes)
	return nil
}

// Cancel stops an active job. The engine removal happens first; if it
// fails the local job keeps its status so a later attempt can retry.
func (m *Manager) Cancel(ctx context.Context, jobID int64, userID string, deleteFiles bool) error {
	job, err := m.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.UserID() != userID {
		return fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	if !job.Status().IsActive() {
		return fmt.Errorf("job %d is %s: %w", jobID, job.Status(), ErrCancelNotAllowed)
	}

	if job.ExternalID() != "" {
		if err := m.engine.Remove(ctx, job.ExternalID(), deleteFiles); err != nil && !errors.Is(err, ErrEngineJobNotFound) {
			return fmt.Errorf("remove from engine: %w", err)
		}
	}

	if err := job.Cancel(m.now()); err != nil {
		return err
	}
	if err := m.store.Update(job); err != nil {
		return err
	}

	m.log.Info("download canceled", "job_id", jobID, "delete_files", deleteFiles)
	return nil
}

// Get returns one job by id.
func (m *Manager) Get(jobID int64) (*Job, error) {
	return m.store.Get(jobID)
}

// List returns jobs matching the filter.
func (m *Manager) List(f JobFilter) ([]*Job, error) {
	return m.store.List(f)
}
