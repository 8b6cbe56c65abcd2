package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	s3blob "github.com/alanyoungcy/betgo/internal/blob/s3"
	"github.com/alanyoungcy/betgo/internal/cache/memory"
	"github.com/alanyoungcy/betgo/internal/cache/redis"
	"github.com/alanyoungcy/betgo/internal/config"
	"github.com/alanyoungcy/betgo/internal/credentials"
	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/export"
	"github.com/alanyoungcy/betgo/internal/ledger"
	"github.com/alanyoungcy/betgo/internal/metrics"
	"github.com/alanyoungcy/betgo/internal/notify"
	"github.com/alanyoungcy/betgo/internal/oddsapi"
	"github.com/alanyoungcy/betgo/internal/scanner"
	"github.com/alanyoungcy/betgo/internal/store/file"
	storememory "github.com/alanyoungcy/betgo/internal/store/memory"
	"github.com/alanyoungcy/betgo/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	Credentials *credentials.Manager
	Metrics     *metrics.Metrics
	Fetcher     *oddsapi.Fetcher
	Scanner     *arbitrage.Scanner
	Schedule    *scanner.Schedule
	Ledger      *ledger.Service

	// RateLimiter backs the HTTP rate-limit middleware; nil without Redis.
	RateLimiter domain.RateLimiter

	// Archiver uploads CSV exports to S3; nil when S3 is disabled.
	Archiver *export.Archiver

	Notifier *notify.Notifier

	// HealthChecks are per-backend liveness probes for /api/health, keyed
	// by dependency name.
	HealthChecks map[string]func(context.Context) error
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		HealthChecks: make(map[string]func(context.Context) error),
	}

	// --- Odds API credentials ---
	keys, err := config.ResolveKeys(cfg.OddsAPI)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: odds api keys: %w", err)
	}
	deps.Credentials = credentials.NewManager(keys)

	// --- Metrics ---
	deps.Metrics = metrics.New()

	// --- Quote cache (Redis when configured, in-memory otherwise) ---
	var quoteCache domain.QuoteCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		quoteCache = redis.NewQuoteCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.HealthChecks["redis"] = redisClient.Ping
	} else {
		logger.InfoContext(ctx, "redis not configured, using in-memory quote cache")
		quoteCache = memory.NewQuoteCache()
	}

	// --- Odds provider and fetcher ---
	apiClient := oddsapi.NewClient(
		oddsapi.WithBaseURL(cfg.OddsAPI.BaseURL),
		oddsapi.WithRegions(cfg.OddsAPI.Regions),
		oddsapi.WithRateLimit(cfg.OddsAPI.RequestsPerSecond, cfg.OddsAPI.Burst),
	)
	deps.Fetcher = oddsapi.NewFetcher(apiClient, deps.Credentials, quoteCache, deps.Metrics, logger)

	// --- Arbitrage scanner ---
	deps.Scanner = arbitrage.NewScanner(arbitrage.ScannerConfig{
		Source:  deps.Fetcher,
		Metrics: deps.Metrics,
		Logger:  logger,
	})

	// --- Scan schedule ---
	schedCfg := scanner.ScheduleConfig{
		PeakInterval:    cfg.Scanner.PeakInterval.Duration,
		OffPeakInterval: cfg.Scanner.OffPeakInterval.Duration,
		SkipOffPeak:     cfg.Scanner.SkipOffPeak,
	}
	if cfg.Scanner.WindowStart >= 0 && cfg.Scanner.WindowEnd >= 0 {
		schedCfg.Window = &scanner.HourRange{
			Start: cfg.Scanner.WindowStart,
			End:   cfg.Scanner.WindowEnd,
		}
	}
	deps.Schedule = scanner.NewSchedule(schedCfg)

	// --- Ledger store ---
	var store domain.LedgerStore
	switch strings.ToLower(cfg.Simulation.Store) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store = postgres.NewLedgerStore(pgClient.Pool(), logger)
		deps.HealthChecks["postgres"] = pgClient.Pool().Ping
	case "file":
		store = file.NewLedgerStore(cfg.Simulation.FilePath, logger)
	default:
		store = storememory.NewLedgerStore()
	}

	deps.Ledger = ledger.NewService(ledger.Config{
		Store:            store,
		Metrics:          deps.Metrics,
		Logger:           logger,
		StartingBankroll: decimal.NewFromFloat(cfg.Simulation.StartingBankroll),
	})

	// --- S3 blob storage for export archiving ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = export.NewArchiver(s3blob.NewWriter(s3Client))
		deps.HealthChecks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
