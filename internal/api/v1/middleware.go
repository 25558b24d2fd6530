package v1

import "net/http"

// requireManager wraps a handler and returns 503 if the download manager is not configured.
func (s *Server) requireManager(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Manager == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Download manager not configured")
			return
		}
		next(w, r)
	}
}

// requireDiscoverer wraps a handler and returns 503 if discovery is not configured.
func (s *Server) requireDiscoverer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Discoverer == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Candidate discovery not configured")
			return
		}
		next(w, r)
	}
}
