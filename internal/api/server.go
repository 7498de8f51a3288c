// Package api serves report compilation over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/internal/config"
	"github.com/sandrolain/gordl/pkg/diag"
)

// Server is the HTTP API server for gordl.
type Server struct {
	router chi.Router
	log    *slog.Logger
	cfg    config.Config
	opts   []gordl.Option
}

// NewServer creates the server. opts are applied to every compilation.
func NewServer(log *slog.Logger, cfg config.Config, opts ...gordl.Option) *Server {
	s := &Server{
		log:  log,
		cfg:  cfg,
		opts: opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/compile", s.handleCompile)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","version":"` + gordl.Version() + `"}`))
}

// handleCompile compiles the report definition in the request body and
// answers with its diagnostics summary. A rejected document is answered
// with 422 and the same summary.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	opts := append(slices.Clone(s.opts), gordl.WithLogger(s.log.With("request_id", middleware.GetReqID(r.Context()))))
	rep, err := gordl.Compile(r.Context(), body, opts...)

	status := http.StatusOK
	var (
		tooLarge *http.MaxBytesError
		source   *gordl.SourceError
		rejected *diag.RejectedError
	)
	switch {
	case errors.As(err, &tooLarge):
		jsonError(w, "report definition too large", http.StatusRequestEntityTooLarge)
		return
	case errors.As(err, &source):
		jsonError(w, source.Error(), http.StatusBadRequest)
		return
	case errors.As(err, &rejected):
		status = http.StatusUnprocessableEntity
	case err != nil:
		s.log.Error("compile failed", "error", err)
		jsonError(w, "compilation failed", http.StatusInternalServerError)
		return
	}
	defer rep.Close(context.WithoutCancel(r.Context()))

	id := rep.Compilation().ID().String()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Compilation-ID", id)
	w.WriteHeader(status)
	if err := diag.NewSummary(id, rep.Diagnostics()).WriteJSON(w, false); err != nil {
		s.log.Error("write summary", "error", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
