package download

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// insertTestBook inserts a book row and returns its ID. Jobs reference
// books via foreign key.
func insertTestBook(t *testing.T, db *sql.DB, providerKey, title string) int64 {
	t.Helper()
	result, err := db.Exec(`
		INSERT INTO books (provider_code, provider_key, title, author, year, overview, catalog_state, added_at, updated_at)
		VALUES ('fl', ?, ?, 'Test Author', 2000, '', 'archive', ?, ?)`,
		providerKey, title, time.Now().UTC(), time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("insert test book: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("get book id: %v", err)
	}
	return id
}

func mustAdd(t *testing.T, s *Store, j *Job) *Job {
	t.Helper()
	if err := s.Add(j); err != nil {
		t.Fatalf("add job: %v", err)
	}
	return j
}

func newTestJob(userID string, bookID int64, mt catalog.MediaType) *Job {
	return NewJob(userID, bookID, mt, "indexer", "abcd1234", "magnet:?xt=urn:btih:ABCD1234", time.Now())
}
