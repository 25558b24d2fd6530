// Package download manages download jobs: the state machine governing a
// job's lifecycle, the download-engine client, and the orchestration
// tying candidate discovery to job creation and reconciliation.
package download

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vmunix/bookarr/internal/catalog"
)

// EngineStatus is the normalized status reported by the download engine.
type EngineStatus struct {
	ExternalID  string
	Name        string
	State       Status
	StoragePath string
	SizeBytes   int64
}

// Engine is the download-engine client contract.
type Engine interface {
	// Enqueue sends a download handle to the engine and returns the
	// engine's job handle (possibly derived from a magnet info-hash).
	Enqueue(ctx context.Context, handle, name string) (externalID string, err error)
	// Status returns the status of one job. Returns ErrEngineJobNotFound
	// if the engine does not know the id.
	Status(ctx context.Context, externalID string) (*EngineStatus, error)
	// Remove cancels a job, optionally deleting its files.
	Remove(ctx context.Context, externalID string, deleteFiles bool) error
}

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store persists download jobs.
type Store struct {
	db *sql.DB
}

// NewStore creates a download job store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// NewTx wraps an existing transaction so job writes can join a unit of
// work started elsewhere.
func NewTx(tx *sql.Tx) *Tx {
	return &Tx{tx: tx}
}

// mapSQLiteError translates driver errors; a violation of the active-job
// partial unique index is the duplicate-active-download race resolving
// in the storage layer.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrActiveDownloadExists
	}
	return err
}

const jobColumns = "id, user_id, book_id, media_type, status, source, external_id, magnet, failure_reason, created_at, updated_at, completed_at, first_not_found_at"

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	j := &Job{}
	err := row.Scan(&j.id, &j.userID, &j.bookID, &j.mediaType, &j.status, &j.source,
		&j.externalID, &j.magnet, &j.failureReason, &j.createdAt, &j.updatedAt,
		&j.completedAt, &j.firstNotFoundAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func addJob(q querier, j *Job) error {
	result, err := q.Exec(`
		INSERT INTO download_jobs (user_id, book_id, media_type, status, source, external_id, magnet, failure_reason, created_at, updated_at, completed_at, first_not_found_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.userID, j.bookID, j.mediaType, j.status, j.source, j.externalID, j.magnet,
		j.failureReason, j.createdAt, j.updatedAt, j.completedAt, j.firstNotFoundAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	j.id = id
	return nil
}

// Add records a new job. Returns ErrActiveDownloadExists when an active
// job already covers the same (user, book, media type).
func (s *Store) Add(j *Job) error { return addJob(s.db, j) }

// Add records a new job within a transaction.
func (t *Tx) Add(j *Job) error { return addJob(t.tx, j) }

func getJob(q querier, id int64) (*Job, error) {
	j, err := scanJob(q.QueryRow("SELECT "+jobColumns+" FROM download_jobs WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, mapSQLiteError(err))
	}
	return j, nil
}

// Get retrieves a job by ID.
// Returns ErrNotFound if the job does not exist.
func (s *Store) Get(id int64) (*Job, error) { return getJob(s.db, id) }

// Get retrieves a job by ID within a transaction.
func (t *Tx) Get(id int64) (*Job, error) { return getJob(t.tx, id) }

// GetActiveByScope returns the queued or downloading job for one
// (user, book, media type) scope, or ErrNotFound.
func (s *Store) GetActiveByScope(userID string, bookID int64, mt catalog.MediaType) (*Job, error) {
	j, err := scanJob(s.db.QueryRow(
		"SELECT "+jobColumns+" FROM download_jobs WHERE user_id = ? AND book_id = ? AND media_type = ? AND status IN (?, ?)",
		userID, bookID, mt, StatusQueued, StatusDownloading,
	))
	if err != nil {
		return nil, fmt.Errorf("get active job %s/%d/%s: %w", userID, bookID, mt, mapSQLiteError(err))
	}
	return j, nil
}

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	UserID *string
	BookID *int64
	Status *Status
	Active bool // only queued/downloading
}

// List returns jobs matching the filter, oldest first.
func (s *Store) List(f JobFilter) ([]*Job, error) {
	var conditions []string
	var args []any

	if f.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.BookID != nil {
		conditions = append(conditions, "book_id = ?")
		args = append(args, *f.BookID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Active {
		conditions = append(conditions, "status IN (?, ?)")
		args = append(args, StatusQueued, StatusDownloading)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + jobColumns + " FROM download_jobs " + whereClause + " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return results, nil
}

func updateJob(q querier, j *Job) error {
	result, err := q.Exec(`
		UPDATE download_jobs SET status = ?, external_id = ?, failure_reason = ?, updated_at = ?, completed_at = ?, first_not_found_at = ?
		WHERE id = ?`,
		j.status, j.externalID, j.failureReason, j.updatedAt, j.completedAt, j.firstNotFoundAt, j.id,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update job %d: %w", j.id, ErrNotFound)
	}
	return nil
}

// Update persists a job's mutable fields.
// Returns ErrNotFound if the job does not exist.
func (s *Store) Update(j *Job) error { return updateJob(s.db, j) }

// Update persists a job within a transaction.
func (t *Tx) Update(j *Job) error { return updateJob(t.tx, j) }
