// Package server provides the HTTP API for contract analysis and article search.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/analyzer"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/extract"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/index"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/storage"
)

// Server is the HTTP server for the contract analysis API.
type Server struct {
	analyzer  *analyzer.Analyzer
	index     *index.ArticleIndex
	storage   storage.Storage
	extractor *extract.Extractor
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	an *analyzer.Analyzer,
	idx *index.ArticleIndex,
	store storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		analyzer:  an,
		index:     idx,
		storage:   store,
		extractor: extract.NewExtractor(),
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// LLM validation runs per clause; a long contract needs headroom.
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/contracts/analyze", s.handleAnalyze)
	r.Get("/api/v1/analyses", s.handleListAnalyses)
	r.Get("/api/v1/analyses/{id}", s.handleGetAnalysis)
	r.Post("/api/v1/articles/search", s.handleSearchArticles)
	r.Get("/api/v1/articles/stats", s.handleArticleStats)
	r.Get("/api/v1/articles/{id}", s.handleGetArticle)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
