package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsink/internal/config"
	"github.com/dgallion1/docsink/internal/pipeline"
)

// Server is the HTTP API server for docsink.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	profile      config.Profile
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. profile supplies the
// render options and default fail policy of every conversion.
func NewServer(orch *pipeline.Orchestrator, profile config.Profile, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		profile:      profile,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/batch", s.handleBatchConvert)
		r.Get("/api/convert/{jobID}/status", s.handleConvertStatus)
		r.Get("/api/convert/{jobID}/output", s.handleConvertOutput)
		r.Get("/api/stats/convert", s.handleConvertStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
