// Package api serves the read surface of the BTF-2300 client over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boostify/btf2300-sdk-go/internal/api/handler"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics        http.Handler
}

// Server wraps the HTTP server for the read API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new API server instance
func NewServer(reader handler.Reader, logger *zap.Logger, opts Options) (*Server, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHTTPHandler(reader, logger, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: server,
		logger:     logger,
	}, nil
}

// NewHTTPHandler returns the router wrapped in the CORS policy.
func NewHTTPHandler(reader handler.Reader, logger *zap.Logger, opts Options) http.Handler {
	h := handler.NewHandler(reader, opts.Metrics, logger)
	return cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}).Handler(h.NewRouter())
}

// Run starts the HTTP server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting HTTP API server", zap.String("addr", s.httpServer.Addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
