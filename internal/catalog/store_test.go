package catalog

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/bookarr/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return db
}

func testBook(key, title string) *Book {
	now := time.Now().UTC()
	return &Book{
		ProviderCode: "fl",
		ProviderKey:  key,
		Title:        title,
		Author:       "Frank Herbert",
		Year:         1965,
		State:        StateArchive,
		AddedAt:      now,
		UpdatedAt:    now,
	}
}

func TestAddAndGetBook(t *testing.T) {
	store := NewStore(setupTestDB(t))

	b := testBook("42", "Dune")
	require.NoError(t, store.AddBook(b))
	require.NotZero(t, b.ID)

	got, err := store.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, StateArchive, got.State)

	byKey, err := store.GetBookByKey("fl", "42")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byKey.ID)
}

func TestGetBook_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.GetBook(99)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.GetBookByKey("fl", "99")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddBook_DuplicateKey(t *testing.T) {
	store := NewStore(setupTestDB(t))

	require.NoError(t, store.AddBook(testBook("42", "Dune")))
	err := store.AddBook(testBook("42", "Dune again"))
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestListBooks_FilterAndCount(t *testing.T) {
	store := NewStore(setupTestDB(t))

	require.NoError(t, store.AddBook(testBook("42", "Dune")))
	require.NoError(t, store.AddBook(testBook("43", "Dune Messiah")))

	books, total, err := store.ListBooks(BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 2)

	state := StateLibrary
	books, total, err = store.ListBooks(BookFilter{State: &state})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, books)

	books, total, err = store.ListBooks(BookFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 1)
}

func TestUpsertAsset_RecomputesBookState(t *testing.T) {
	store := NewStore(setupTestDB(t))

	b := testBook("42", "Dune")
	require.NoError(t, store.AddBook(b))

	require.NoError(t, store.UpsertAsset(&MediaAsset{
		BookID:      b.ID,
		MediaType:   MediaText,
		Status:      AssetAvailable,
		StoragePath: "/downloads/dune",
		SizeBytes:   1024,
	}))

	got, err := store.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StateLibrary, got.State)

	asset, err := store.GetAsset(b.ID, MediaText)
	require.NoError(t, err)
	assert.Equal(t, AssetAvailable, asset.Status)
	assert.Equal(t, "/downloads/dune", asset.StoragePath)
}

func TestUpsertAsset_ReplacesExisting(t *testing.T) {
	store := NewStore(setupTestDB(t))

	b := testBook("42", "Dune")
	require.NoError(t, store.AddBook(b))

	require.NoError(t, store.UpsertAsset(&MediaAsset{
		BookID: b.ID, MediaType: MediaText, Status: AssetAvailable, StoragePath: "/old",
	}))
	require.NoError(t, store.UpsertAsset(&MediaAsset{
		BookID: b.ID, MediaType: MediaText, Status: AssetAvailable, StoragePath: "/new",
	}))

	assets, err := store.ListAssets(b.ID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "/new", assets[0].StoragePath)
}

func TestSetAssetStatus_FlipsBookState(t *testing.T) {
	store := NewStore(setupTestDB(t))

	b := testBook("42", "Dune")
	require.NoError(t, store.AddBook(b))
	require.NoError(t, store.UpsertAsset(&MediaAsset{
		BookID: b.ID, MediaType: MediaText, Status: AssetAvailable,
	}))

	require.NoError(t, store.SetAssetStatus(b.ID, MediaText, AssetDeleted))

	got, err := store.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StateArchive, got.State)
}

func TestTx_RollbackDiscardsChanges(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.AddBook(testBook("42", "Dune")))
	require.NoError(t, tx.Rollback())

	_, err = store.GetBookByKey("fl", "42")
	assert.True(t, errors.Is(err, ErrNotFound))
}
