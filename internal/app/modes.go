package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	"github.com/alanyoungcy/betgo/internal/config"
	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/scanner"
	"github.com/alanyoungcy/betgo/internal/server"
	"github.com/alanyoungcy/betgo/internal/server/handler"
	"github.com/alanyoungcy/betgo/internal/server/ws"
)

// ServeMode runs the HTTP + WebSocket API with the scan loop under API
// control: the loop is constructed stopped and driven by POST
// /api/scanner/start and /api/scanner/stop.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
	)
	logger := slog.Default()

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	loop := a.newAutoScanner(deps, []scanner.CycleSink{deps.Notifier, hub})

	health := handler.NewHealthHandler(logger)
	for name, check := range deps.HealthChecks {
		health = health.WithCheck(name, check)
	}

	sim := handler.NewSimulationHandler(deps.Ledger, logger)
	if deps.Archiver != nil {
		sim = sim.WithArchiver(deps.Archiver)
	}

	handlers := server.Handlers{
		Health:     health,
		Catalog:    handler.NewCatalogHandler(deps.Fetcher, logger),
		Scan:       handler.NewScanHandler(deps.Scanner, logger),
		Simulation: sim,
		Scanner:    handler.NewScannerHandler(loop, logger),
		Optimizer:  handler.NewOptimizerHandler(deps.Fetcher, deps.Schedule, logger),
		Metrics:    promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{}),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimiter: deps.RateLimiter,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		if err := loop.Stop(); err != nil && !errors.Is(err, scanner.ErrNotRunning) {
			a.logger.Warn("serve mode: stop scan loop", slog.String("error", err.Error()))
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// ScanMode runs exactly one scan pass with the configured options and writes
// the ranked result as JSON to stdout.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	opts := scanOptions(a.cfg.Scanner)
	a.logger.InfoContext(ctx, "starting one-shot scan",
		slog.Any("sports", opts.Sports),
		slog.Float64("min_roi", opts.MinROI),
	)

	res, err := deps.Scanner.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	a.logger.InfoContext(ctx, "scan complete",
		slog.Int("sports_scanned", res.SportsScanned),
		slog.Int("games_scanned", res.GamesScanned),
		slog.Int("opportunities", len(res.Opportunities)),
		slog.Int64("elapsed_ms", res.ElapsedMS),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("scan mode: encode result: %w", err)
	}
	return nil
}

// AutoMode runs the headless scan loop until the context is cancelled. No
// HTTP surface; cycle results go to the notifier only.
func (a *App) AutoMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting auto scan mode",
		slog.Bool("auto_bet", a.cfg.Scanner.AutoBet),
		slog.Float64("max_investment", a.cfg.Scanner.MaxInvestment),
	)

	loop := a.newAutoScanner(deps, []scanner.CycleSink{deps.Notifier})
	if err := loop.Start(ctx); err != nil {
		return fmt.Errorf("auto mode: %w", err)
	}

	<-ctx.Done()
	if err := loop.Stop(); err != nil && !errors.Is(err, scanner.ErrNotRunning) {
		a.logger.Warn("auto mode: stop scan loop", slog.String("error", err.Error()))
	}
	return ctx.Err()
}

// newAutoScanner builds the scan loop from the configured schedule, scan
// options, and sinks.
func (a *App) newAutoScanner(deps *Dependencies, sinks []scanner.CycleSink) *scanner.AutoScanner {
	return scanner.NewAutoScanner(scanner.AutoScannerConfig{
		Runner:        deps.Scanner,
		Ledger:        deps.Ledger,
		Schedule:      deps.Schedule,
		ScanOptions:   scanOptions(a.cfg.Scanner),
		AutoBet:       a.cfg.Scanner.AutoBet,
		MaxInvestment: a.cfg.Scanner.MaxInvestment,
		Sinks:         sinks,
		Logger:        slog.Default(),
	})
}

// scanOptions converts the scanner configuration section into scan options.
func scanOptions(sc config.ScannerConfig) arbitrage.ScanOptions {
	markets := make([]domain.MarketKey, 0, len(sc.Markets))
	for _, m := range sc.Markets {
		markets = append(markets, domain.MarketKey(strings.ToLower(m)))
	}
	return arbitrage.ScanOptions{
		Sports:     sc.Sports,
		Markets:    markets,
		Bookmakers: sc.Bookmakers,
		MinROI:     sc.MinROI,
		Investment: sc.Investment,
		MaxHours:   sc.MaxHours,
		LiveOnly:   sc.LiveOnly,
	}
}
