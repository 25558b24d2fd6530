package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/download"
	"github.com/vmunix/bookarr/internal/metadata"
	"github.com/vmunix/bookarr/internal/migrations"
	"github.com/vmunix/bookarr/internal/search"
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

type fakeManager struct {
	job       *download.Job
	addErr    error
	cancelErr error
	getErr    error
	jobs      []*download.Job
}

func (m *fakeManager) AddAndDownload(_ context.Context, _ string, _ download.AddRequest) (*download.Job, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.job, nil
}

func (m *fakeManager) Cancel(_ context.Context, _ int64, _ string, _ bool) error {
	return m.cancelErr
}

func (m *fakeManager) Get(_ int64) (*download.Job, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.job, nil
}

func (m *fakeManager) List(_ download.JobFilter) ([]*download.Job, error) {
	return m.jobs, nil
}

type fakeDiscoverer struct {
	candidates []search.Candidate
	err        error
}

func (d *fakeDiscoverer) Discover(_ context.Context, _ search.Request) ([]search.Candidate, error) {
	return d.candidates, d.err
}

func newTestServer(t *testing.T, deps Deps) (*Server, *http.ServeMux) {
	t.Helper()
	srv := New(setupTestDB(t), deps, "test")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, mux
}

func doRequest(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func testJob(t *testing.T) *download.Job {
	t.Helper()
	return download.NewJob("u1", 1, catalog.MediaText, "indexer", "abcd", "magnet:?xt=urn:btih:ABCD", time.Now())
}

func TestGetStatus(t *testing.T) {
	_, mux := newTestServer(t, Deps{})

	w := doRequest(mux, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestListBooks_Empty(t *testing.T) {
	_, mux := newTestServer(t, Deps{})

	w := doRequest(mux, http.MethodGet, "/api/v1/books", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp listBooksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.Total)
}

func TestGetBook_NotFound(t *testing.T) {
	_, mux := newTestServer(t, Deps{})

	w := doRequest(mux, http.MethodGet, "/api/v1/books/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBook_WithAssets(t *testing.T) {
	db := setupTestDB(t)
	srv := New(db, Deps{}, "test")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	books := catalog.NewStore(db)
	b := &catalog.Book{
		ProviderCode: "fl", ProviderKey: "42", Title: "Dune",
		State: catalog.StateArchive, AddedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, books.AddBook(b))
	require.NoError(t, books.UpsertAsset(&catalog.MediaAsset{
		BookID: b.ID, MediaType: catalog.MediaText, Status: catalog.AssetAvailable,
		StoragePath: "/downloads/dune", SizeBytes: 1024,
	}))

	w := doRequest(mux, http.MethodGet, "/api/v1/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp bookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Dune", resp.Title)
	assert.Equal(t, "library", resp.State)
	require.Len(t, resp.Assets, 1)
	assert.Equal(t, "text", resp.Assets[0].MediaType)
	assert.Equal(t, "available", resp.Assets[0].Status)
}

func TestListCandidates(t *testing.T) {
	_, mux := newTestServer(t, Deps{Discoverer: &fakeDiscoverer{
		candidates: []search.Candidate{{ID: "cand1", Title: "Dune EPUB", Source: "indexer"}},
	}})

	w := doRequest(mux, http.MethodGet, "/api/v1/candidates?provider=fl&key=42&media_type=text", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []search.Candidate `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "cand1", resp.Items[0].ID)
}

func TestListCandidates_Validation(t *testing.T) {
	_, mux := newTestServer(t, Deps{Discoverer: &fakeDiscoverer{}})

	w := doRequest(mux, http.MethodGet, "/api/v1/candidates?provider=fl&media_type=text", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(mux, http.MethodGet, "/api/v1/candidates?provider=fl&key=42&media_type=video", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCandidates_NotConfigured(t *testing.T) {
	_, mux := newTestServer(t, Deps{})

	w := doRequest(mux, http.MethodGet, "/api/v1/candidates?provider=fl&key=42&media_type=text", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGrab_Created(t *testing.T) {
	job := testJob(t)
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{job: job}})

	body := `{"user_id":"u1","provider":"fl","key":"42","media_type":"text","candidate_id":"cand1"}`
	w := doRequest(mux, http.MethodPost, "/api/v1/grab", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, "abcd", resp.ExternalID)
}

func TestGrab_Validation(t *testing.T) {
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{}})

	w := doRequest(mux, http.MethodPost, "/api/v1/grab", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(mux, http.MethodPost, "/api/v1/grab", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrab_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"book not found", download.ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
		{"candidate not found", download.ErrCandidateNotFound, http.StatusNotFound, "CANDIDATE_NOT_FOUND"},
		{"active exists", download.ErrActiveDownloadExists, http.StatusConflict, "ACTIVE_DOWNLOAD_EXISTS"},
		{"engine unavailable", download.ErrEngineUnavailable, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
		{"engine rejected", download.ErrEngineRejected, http.StatusBadGateway, "UPSTREAM_REJECTED"},
		{"metadata unavailable", metadata.ErrUnavailable, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
	}

	body := `{"user_id":"u1","provider":"fl","key":"42","media_type":"text","candidate_id":"cand1"}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := newTestServer(t, Deps{Manager: &fakeManager{addErr: tt.err}})
			w := doRequest(mux, http.MethodPost, "/api/v1/grab", body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestListDownloads(t *testing.T) {
	job := testJob(t)
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{jobs: []*download.Job{job}}})

	w := doRequest(mux, http.MethodGet, "/api/v1/downloads?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []jobResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "u1", resp.Items[0].UserID)
}

func TestGetDownload_NotFound(t *testing.T) {
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{getErr: download.ErrNotFound}})

	w := doRequest(mux, http.MethodGet, "/api/v1/downloads/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelDownload(t *testing.T) {
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{}})

	w := doRequest(mux, http.MethodDelete, "/api/v1/downloads/1?user_id=u1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCancelDownload_RequiresUser(t *testing.T) {
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{}})

	w := doRequest(mux, http.MethodDelete, "/api/v1/downloads/1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelDownload_Conflict(t *testing.T) {
	_, mux := newTestServer(t, Deps{Manager: &fakeManager{cancelErr: download.ErrCancelNotAllowed}})

	w := doRequest(mux, http.MethodDelete, "/api/v1/downloads/1?user_id=u1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CANCEL_NOT_ALLOWED")
}
