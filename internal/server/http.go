package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
)

const shutdownTimeout = 5 * time.Second

// Start listens on addr and serves streamable HTTP at /mcp and a health check
// at /health. It returns the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}
	s.listener = ln

	httpTransport := server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))

	mux := http.NewServeMux()
	mux.Handle("/mcp", s.withMiddleware(httpTransport))
	mux.Handle("/health", s.withMiddleware(http.HandlerFunc(s.handleHealth)))

	s.httpServer = &http.Server{Handler: mux}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("mcp http server stopped", "error", err)
		}
	}()

	s.log.Info("mcp server starting", "transport", "http", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// Run serves HTTP on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	if _, err := s.Start(addr); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop gracefully shuts down the HTTP transport
func (s *Server) Stop() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// withMiddleware applies the logging and recovery middleware
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return s.loggingMiddleware(s.recoverMiddleware(next))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// recoverMiddleware turns a handler panic into a 500 carrying an AppError body
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic in http handler", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, apperrors.InternalError("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apperrors.ValidationError("method not allowed").WithDetails(r.Method))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   serverName,
		"nodes":     len(s.catalog.Nodes()),
		"templates": len(s.catalog.Templates()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
