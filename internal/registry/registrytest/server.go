// Package registrytest provides an in-process fake of the registry's search
// and certificate endpoints.
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Server answers search and certificate requests from fixed fixtures.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	rows      map[string][]map[string]any
	documents map[string][]byte
	tokens    map[string]string
	waits     int
	searches  int
	downloads int
}

// New starts a fake registry. Close it when done.
func New() *Server {
	s := &Server{
		rows:      make(map[string][]map[string]any),
		documents: make(map[string][]byte),
		tokens:    make(map[string]string),
	}
	r := chi.NewRouter()
	r.Post("/", s.handleSearch)
	r.Get("/search-result/{token}", s.handleSearchResult)
	r.Get("/vyp-request/{token}", s.handleDocumentRequest)
	r.Get("/vyp-status/{token}", s.handleDocumentStatus)
	r.Get("/vyp-download/{token}", s.handleDocumentDownload)
	s.Server = httptest.NewServer(r)
	return s
}

// AddRows registers the rows returned for query.
func (s *Server) AddRows(query string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[query] = append(s.rows[query], rows...)
}

// AddDocument registers the certificate served for token.
func (s *Server) AddDocument(token string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[token] = content
}

// SetWaits makes every search report "wait" n times before returning rows.
func (s *Server) SetWaits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = n
}

// Searches counts search submits received.
func (s *Server) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// Downloads counts certificate downloads served.
func (s *Server) Downloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.searches++
	token := "s" + strconv.Itoa(s.searches)
	s.tokens[token] = r.PostForm.Get("query")
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"t": token, "captchaRequired": false})
}

func (s *Server) handleSearchResult(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	s.mu.Lock()
	query, ok := s.tokens[token]
	waiting := s.waits > 0
	if waiting {
		s.waits--
	}
	rows := s.rows[query]
	s.mu.Unlock()

	switch {
	case !ok:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "unknown search token"})
	case waiting:
		writeJSON(w, http.StatusOK, map[string]any{"status": "wait"})
	case len(rows) == 0:
		writeJSON(w, http.StatusOK, map[string]any{"rows": []any{map[string]any{"tot": 0}}})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}

func (s *Server) handleDocumentRequest(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !s.hasDocument(token) {
		writeJSON(w, http.StatusOK, map[string]any{"ERRORS": map[string]any{"t": []string{"unknown token"}}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"t": token, "captchaRequired": false})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	if !s.hasDocument(chi.URLParam(r, "token")) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "unknown token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	s.mu.Lock()
	content, ok := s.documents[token]
	if ok {
		s.downloads++
	}
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(content)
}

func (s *Server) hasDocument(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.documents[token]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
