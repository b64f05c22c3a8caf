package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nvoron/sessiond/internal/logger"
	"github.com/nvoron/sessiond/internal/model"
)

// HTTPServer serves the auth endpoints over HTTP, with the listener supplied
// by a SecurityLayer so TLS is a configuration concern.
type HTTPServer struct {
	server *http.Server
	addr   string
	logger *logger.Logger
}

// NewHTTPServer creates a new HTTPServer for the given handler and address.
func NewHTTPServer(handler http.Handler, addr string, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Handler: handler,
		},
		addr:   addr,
		logger: logger,
	}
}

// Start opens the listener through the security layer and serves until the
// server is stopped. It blocks; run it in a goroutine.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info("HTTP server: listening",
		"address", listener.Addr().String())

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server: shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.addr
}
