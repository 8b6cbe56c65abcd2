// Package server exposes the scanner and simulation ledger over HTTP and
// WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/server/handler"
	"github.com/alanyoungcy/betgo/internal/server/middleware"
	"github.com/alanyoungcy/betgo/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimiter enables per-client request limiting when non-nil.
	RateLimiter domain.RateLimiter
	RateLimit   int           // requests per window per client
	RateWindow  time.Duration // defaults to one minute
}

// Handlers aggregates the HTTP handlers the server registers. Nil optional
// handlers leave their routes unregistered.
type Handlers struct {
	Health     *handler.HealthHandler
	Catalog    *handler.CatalogHandler
	Scan       *handler.ScanHandler
	Simulation *handler.SimulationHandler
	Scanner    *handler.ScannerHandler   // optional
	Optimizer  *handler.OptimizerHandler // optional
	Metrics    http.Handler              // optional, mounted at /metrics
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain (CORS, logging, rate limit, auth) applied.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Catalogs.
	mux.HandleFunc("GET /api/sports", handlers.Catalog.ListSports)
	mux.HandleFunc("GET /api/bookmakers", handlers.Catalog.ListBookmakers)
	mux.HandleFunc("GET /api/markets", handlers.Catalog.ListMarkets)

	// On-demand scanning.
	mux.HandleFunc("POST /api/scan", handlers.Scan.Scan)

	// Background scanner control.
	if handlers.Scanner != nil {
		mux.HandleFunc("GET /api/scanner/status", handlers.Scanner.Status)
		mux.HandleFunc("POST /api/scanner/start", handlers.Scanner.Start)
		mux.HandleFunc("POST /api/scanner/stop", handlers.Scanner.Stop)
	}

	// Request budget statistics.
	if handlers.Optimizer != nil {
		mux.HandleFunc("GET /api/optimizer/stats", handlers.Optimizer.Stats)
	}

	// Simulation ledger.
	mux.HandleFunc("POST /api/simulation/place", handlers.Simulation.Place)
	mux.HandleFunc("POST /api/simulation/settle", handlers.Simulation.Settle)
	mux.HandleFunc("GET /api/simulation/stats", handlers.Simulation.Stats)
	mux.HandleFunc("GET /api/simulation/pending", handlers.Simulation.Pending)
	mux.HandleFunc("GET /api/simulation/history", handlers.Simulation.History)
	mux.HandleFunc("GET /api/simulation/analytics", handlers.Simulation.Analytics)
	mux.HandleFunc("POST /api/simulation/reset", handlers.Simulation.Reset)
	mux.HandleFunc("GET /api/simulation/export", handlers.Simulation.Export)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	// Middleware chain, applied inside out: auth closest to the mux, then
	// rate limiting, logging, CORS outermost so preflights short-circuit.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
