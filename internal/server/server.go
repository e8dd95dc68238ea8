package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fundlens/internal/app"
	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
)

// Server wraps the HTTP server and the services it exposes.
type Server struct {
	compare   interfaces.CompareService
	config    *common.Config
	logger    *common.Logger
	startedAt time.Time
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new HTTP REST API server.
func NewServer(a *app.App) *Server {
	return newServer(a.CompareService, a.Config, a.Logger)
}

func newServer(compare interfaces.CompareService, config *common.Config, logger *common.Logger) *Server {
	s := &Server{
		compare:   compare,
		config:    config,
		logger:    logger,
		startedAt: time.Now(),
		router:    chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
