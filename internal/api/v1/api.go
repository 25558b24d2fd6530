// Package v1 implements the native REST API.
package v1

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/download"
	"github.com/vmunix/bookarr/internal/metadata"
	"github.com/vmunix/bookarr/internal/search"
	"github.com/vmunix/bookarr/pkg/torznab"
)

// Server is the v1 API server.
type Server struct {
	books   *catalog.Store
	deps    Deps
	version string
}

// New creates a new v1 API server.
func New(db *sql.DB, deps Deps, version string) *Server {
	return &Server{
		books:   catalog.NewStore(db),
		deps:    deps,
		version: version,
	}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /api/v1/books", s.listBooks)
	mux.HandleFunc("GET /api/v1/books/{id}", s.getBook)

	// Discovery & grab
	mux.HandleFunc("GET /api/v1/candidates", s.requireDiscoverer(s.listCandidates))
	mux.HandleFunc("POST /api/v1/grab", s.requireManager(s.grab))

	// Downloads
	mux.HandleFunc("GET /api/v1/downloads", s.requireManager(s.listDownloads))
	mux.HandleFunc("GET /api/v1/downloads/{id}", s.requireManager(s.getDownload))
	mux.HandleFunc("DELETE /api/v1/downloads/{id}", s.requireManager(s.cancelDownload))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDomainError maps domain sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, download.ErrBookNotFound),
		errors.Is(err, search.ErrBookNotFound),
		errors.Is(err, search.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", err.Error())
	case errors.Is(err, download.ErrCandidateNotFound):
		writeError(w, http.StatusNotFound, "CANDIDATE_NOT_FOUND", err.Error())
	case errors.Is(err, download.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, download.ErrActiveDownloadExists):
		writeError(w, http.StatusConflict, "ACTIVE_DOWNLOAD_EXISTS", err.Error())
	case errors.Is(err, download.ErrCancelNotAllowed):
		writeError(w, http.StatusConflict, "CANCEL_NOT_ALLOWED", err.Error())
	case errors.Is(err, metadata.ErrUnavailable),
		errors.Is(err, torznab.ErrUnavailable),
		errors.Is(err, download.ErrEngineUnavailable):
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", err.Error())
	case errors.Is(err, metadata.ErrRejected),
		errors.Is(err, torznab.ErrRejected),
		errors.Is(err, download.ErrEngineRejected):
		writeError(w, http.StatusBadGateway, "UPSTREAM_REJECTED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// Handlers

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Version: s.version})
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	filter := catalog.BookFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		st := catalog.State(state)
		filter.State = &st
	}

	items, total, err := s.books.ListBooks(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := listBooksResponse{
		Items:  make([]bookResponse, len(items)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i, b := range items {
		resp.Items[i] = bookToResponse(b, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	b, err := s.books.GetBook(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	assets, err := s.books.ListAssets(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookToResponse(b, assets))
}

func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mediaType := q.Get("media_type")
	if q.Get("provider") == "" || q.Get("key") == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "provider and key are required")
		return
	}
	if !catalog.ValidMediaType(mediaType) {
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be 'text' or 'audio'")
		return
	}

	candidates, err := s.deps.Discoverer.Discover(r.Context(), search.Request{
		ProviderCode: q.Get("provider"),
		ProviderKey:  q.Get("key"),
		MediaType:    catalog.MediaType(mediaType),
		Page:         queryInt(r, "page", 1),
		PageSize:     queryInt(r, "page_size", 20),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": candidates})
}

func (s *Server) grab(w http.ResponseWriter, r *http.Request) {
	var req grabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.UserID == "" || req.Provider == "" || req.Key == "" || req.CandidateID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id, provider, key and candidate_id are required")
		return
	}
	if !catalog.ValidMediaType(req.MediaType) {
		writeError(w, http.StatusBadRequest, "INVALID_MEDIA_TYPE", "media_type must be 'text' or 'audio'")
		return
	}

	job, err := s.deps.Manager.AddAndDownload(r.Context(), req.UserID, download.AddRequest{
		ProviderCode: req.Provider,
		ProviderKey:  req.Key,
		MediaType:    catalog.MediaType(req.MediaType),
		CandidateID:  req.CandidateID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jobToResponse(job))
}

func (s *Server) listDownloads(w http.ResponseWriter, r *http.Request) {
	filter := download.JobFilter{}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		st := download.Status(status)
		filter.Status = &st
	}
	filter.Active = r.URL.Query().Get("active") == "true"

	jobs, err := s.deps.Manager.List(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = jobToResponse(j)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	job, err := s.deps.Manager.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) cancelDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required")
		return
	}
	deleteFiles := r.URL.Query().Get("delete_files") == "true"

	if err := s.deps.Manager.Cancel(r.Context(), id, userID, deleteFiles); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
