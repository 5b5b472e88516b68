// Package api exposes the pipeline operations over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/pipeline"
	"github.com/sells-group/coworking-map/internal/store"
)

// RunLister lists recorded pipeline runs. store.Store satisfies it.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Server serves the pipeline. Operations are serialized by one mutex so
// concurrent callers never race on the dataset files.
type Server struct {
	pipeline *pipeline.Pipeline
	runs     RunLister
	origins  []string
	timeout  time.Duration

	mu    sync.Mutex
	state pipeline.State
}

// Option configures a Server.
type Option func(*Server)

// WithRuns exposes the run log on GET /runs.
func WithRuns(rl RunLister) Option {
	return func(s *Server) { s.runs = rl }
}

// WithAllowedOrigins sets the CORS allowed origins. Defaults to "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRequestTimeout bounds each request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer returns a Server over p.
func NewServer(p *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{pipeline: p, origins: []string{"*"}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/scrape", s.handleScrape)
	r.Post("/clean", s.handleClean)
	r.Post("/geocode", s.handleGeocode)
	r.Post("/search", s.handleSearch)
	r.Get("/datasets/{name}", s.handleDataset)
	r.Get("/map", s.handleMap)
	r.Get("/map/search", s.handleSearchMap)
	r.Get("/runs", s.handleRuns)
	r.Get("/status", s.handleStatus)

	return r
}
