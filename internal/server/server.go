package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
}

// Extracted constants to avoid magic numbers and centralize tuning knobs.
// WriteTimeout is left unset: websocket connections live far longer than any
// request, and the relay sets its own per-frame write deadlines.
const (
	DefaultPort       = "8080"
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// newHTTPServer builds a configured *http.Server for the given address and handler.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr turns a port into a listen address (accepts "8080" or ":8080").
// An empty port falls back to DefaultPort.
func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = DefaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts the HTTP server on the given port using the provided handler.
// It returns nil once Shutdown has been called.
func (s *Server) Run(port string, handler http.Handler) error {
	s.httpServer = newHTTPServer(normalizeAddr(port), handler)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
