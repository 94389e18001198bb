// Package api exposes the balance check and automatic transfer over HTTP.
// Handlers only decode requests, call the service and map errors to statuses.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/internal/service"
	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/rs/cors"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
	statusMessage   = "Pi Wallet Scanner API is running"
)

// WalletService is the part of service.Service the handlers need.
type WalletService interface {
	CheckBalance(ctx context.Context, mnemonic string) (*models.BalanceReport, error)
	AutoSend(ctx context.Context, req service.AutoSendRequest) (*models.SendResult, error)
}

// Server routes HTTP requests to a WalletService.
type Server struct {
	svc         WalletService
	metrics     http.Handler
	corsOrigins []string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCORSOrigins restricts cross-origin callers. Defaults to any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// New creates a Server.
func New(svc WalletService, opts ...Option) *Server {
	s := &Server{
		svc:         svc,
		corsOrigins: []string{"*"},
		logger:      slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/check-balance", s.handleCheckBalance)
	mux.HandleFunc("POST /api/send-pi", s.handleSendPi)
	mux.HandleFunc("POST /check-and-send", s.handleCheckAndSend)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("/", s.handleNotFound)

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerRequestID},
	})
	return s.withRequestLogging(c.Handler(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
