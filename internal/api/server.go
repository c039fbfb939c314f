package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/config"
	"github.com/dgallion1/tflextract/internal/pipeline"
)

// maxBatchFiles bounds the number of documents in one batch upload.
const maxBatchFiles = 10

// Server is the HTTP API server for tflextract.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	rules        classify.Rules
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. rules is reported by
// GET /api/rules and must be the set the orchestrator classifies with.
func NewServer(orch *pipeline.Orchestrator, rules classify.Rules, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		rules:        rules,
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

		// Bodies are capped a little above the file limit to leave room for
		// multipart framing; the per-file limit is enforced in newJob.
		const formOverhead = 1 << 20
		r.With(LimitBody(s.cfg.MaxUploadBytes+formOverhead)).Post("/api/extract", s.handleExtract)
		r.With(LimitBody(maxBatchFiles*(s.cfg.MaxUploadBytes+formOverhead))).Post("/api/extract/batch", s.handleBatchExtract)
		r.Get("/api/extract/{jobID}/status", s.handleExtractStatus)
		r.Get("/api/extract/{jobID}/report", s.handleExtractReport)
		r.Get("/api/stats/extract", s.handleExtractStats)
		r.Get("/api/rules", s.handleRules)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
