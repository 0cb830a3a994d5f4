// Package apiserver exposes the statbot REST API: session lifecycle plus a
// read-only view of the spending categories the tool layer understands.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/session"
)

// Server is the statbot REST API server. Sessions are accepted here and
// executed asynchronously by the runner; handlers only touch the store.
type Server struct {
	router *mux.Router
	store  session.Store
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a fully-wired Server ready to Start().
func NewServer(addr string, store session.Store, logger *zap.Logger) *Server {
	srv := &Server{
		router: mux.NewRouter(),
		store:  store,
		logger: logger,
	}
	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	srv.registerRoutes()
	return srv
}

// Handler returns the underlying router, used by tests to serve requests
// without binding a socket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening and serving HTTP requests. It blocks until the
// server is shut down or encounters a fatal error.
func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
