package download

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/bookarr/internal/catalog"
)

func TestStoreAddAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	j := mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
	require.NotZero(t, j.ID())

	got, err := store.Get(j.ID())
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID())
	assert.Equal(t, bookID, got.BookID())
	assert.Equal(t, catalog.MediaText, got.MediaType())
	assert.Equal(t, StatusQueued, got.Status())
	assert.Equal(t, "abcd1234", got.ExternalID())
}

func TestStoreGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.Get(999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreAdd_DuplicateActiveRejected(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))

	err := store.Add(newTestJob("u1", bookID, catalog.MediaText))
	assert.True(t, errors.Is(err, ErrActiveDownloadExists))
}

func TestStoreAdd_DifferentScopesAllowed(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")
	otherBook := insertTestBook(t, db, "43", "Dune Messiah")

	mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
	// Same book, different media type; same scope, different user or book.
	mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaAudio))
	mustAdd(t, store, newTestJob("u2", bookID, catalog.MediaText))
	mustAdd(t, store, newTestJob("u1", otherBook, catalog.MediaText))
}

func TestStoreAdd_NewActiveAllowedAfterTerminal(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	j := mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
	require.NoError(t, j.Fail("gone", time.Now()))
	require.NoError(t, store.Update(j))

	mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
}

func TestStoreGetActiveByScope(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	_, err := store.GetActiveByScope("u1", bookID, catalog.MediaText)
	assert.True(t, errors.Is(err, ErrNotFound))

	j := mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))

	got, err := store.GetActiveByScope("u1", bookID, catalog.MediaText)
	require.NoError(t, err)
	assert.Equal(t, j.ID(), got.ID())
}

func TestStoreUpdate_PersistsStateAndTimestamps(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	j := mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
	require.NoError(t, j.TransitionTo(StatusDownloading, time.Now()))
	require.NoError(t, j.Complete(time.Now()))
	require.NoError(t, store.Update(j))

	got, err := store.Get(j.ID())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status())
	require.NotNil(t, got.CompletedAt())
	assert.Nil(t, got.FirstNotFoundAt())
}

func TestStoreUpdate_MissingJob(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	j := newTestJob("u1", bookID, catalog.MediaText)
	j.id = 999
	err := store.Update(j)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreList_Filters(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	bookID := insertTestBook(t, db, "42", "Dune")

	j1 := mustAdd(t, store, newTestJob("u1", bookID, catalog.MediaText))
	j2 := mustAdd(t, store, newTestJob("u2", bookID, catalog.MediaText))
	require.NoError(t, j2.Cancel(time.Now()))
	require.NoError(t, store.Update(j2))

	all, err := store.List(JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	u1 := "u1"
	mine, err := store.List(JobFilter{UserID: &u1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, j1.ID(), mine[0].ID())

	canceled := StatusCanceled
	done, err := store.List(JobFilter{Status: &canceled})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, j2.ID(), done[0].ID())

	active, err := store.List(JobFilter{Active: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, j1.ID(), active[0].ID())
}
