// Package server exposes a read-only HTTP view of recorded job
// outcomes for dashboards and scripts that must not shell out to the
// scheduler themselves.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/slurmgate/internal/store"
)

// Server is the slurmgate fleet API server.
type Server struct {
	router    chi.Router
	store     store.Store
	logger    *slog.Logger
	startTime time.Time
}

// New creates a Server with all routes registered.
func New(st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     st,
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, requestIDFromContext(r.Context()), map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, reqID, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.store.ListResults(r.Context(), limit)
	if err != nil {
		s.logger.Error("list results", "error", err, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError, "list failed")
		return
	}
	if entries == nil {
		entries = []*store.Entry{}
	}
	respondOK(w, reqID, entries)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFromContext(r.Context())

	jobID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, "job id must be an integer")
		return
	}

	entry, err := s.store.GetResult(r.Context(), jobID)
	if err != nil {
		s.logger.Error("get result", "error", err, "job_id", jobID, "request_id", reqID)
		respondError(w, reqID, http.StatusInternalServerError, "lookup failed")
		return
	}
	if entry == nil {
		respondError(w, reqID, http.StatusNotFound, "no recorded outcome for job "+strconv.Itoa(jobID))
		return
	}
	respondOK(w, reqID, entry)
}

// response is the standard envelope.
type response struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, response{Status: "ok", RequestID: reqID, Data: data})
}

func respondError(w http.ResponseWriter, reqID string, status int, msg string) {
	respondJSON(w, status, response{Status: "error", RequestID: reqID, Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
