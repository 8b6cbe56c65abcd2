package oddsapi

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/betgo/internal/credentials"
	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/metrics"
)

// Provider is the upstream transport the Fetcher drives. *Client satisfies
// it; tests substitute fakes.
type Provider interface {
	Sports(ctx context.Context, apiKey string) ([]byte, Usage, error)
	Odds(ctx context.Context, apiKey string, req domain.QuoteRequest) ([]byte, Usage, error)
}

// FetcherStats is a usage snapshot for the optimizer stats endpoint.
type FetcherStats struct {
	APICalls    int64                    `json:"api_calls"`
	CacheHits   int64                    `json:"cache_hits"`
	Credentials []domain.CredentialStats `json:"credentials"`
}

// Fetcher answers quote queries cache first. On a miss it picks the best
// credential, calls upstream, feeds reported quota back into rotation, and
// caches the raw payload. A credential exhaustion surfaces as
// ErrNoCredential; upstream failures surface as UpstreamError for the
// caller to degrade on.
type Fetcher struct {
	provider Provider
	creds    *credentials.Manager
	cache    domain.QuoteCache
	metrics  *metrics.Metrics
	logger   *slog.Logger

	apiCalls  atomic.Int64
	cacheHits atomic.Int64
}

// NewFetcher wires the fetcher. All dependencies are required.
func NewFetcher(provider Provider, creds *credentials.Manager, cache domain.QuoteCache, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		provider: provider,
		creds:    creds,
		cache:    cache,
		metrics:  m,
		logger:   logger.With(slog.String("component", "fetcher")),
	}
}

// ActiveSports returns the active sport catalog, cached for 24 hours.
func (f *Fetcher) ActiveSports(ctx context.Context) ([]domain.Sport, error) {
	if payload, err := f.cache.GetSports(ctx); err == nil {
		sports, derr := ParseSports(payload)
		if derr == nil {
			f.cacheHits.Add(1)
			f.metrics.RecordCache("sports", true)
			return sports, nil
		}
		f.logger.WarnContext(ctx, "corrupt cached sports payload, refetching",
			slog.String("error", derr.Error()),
		)
	} else if !errors.Is(err, domain.ErrNotFound) {
		f.logger.WarnContext(ctx, "sports cache read failed",
			slog.String("error", err.Error()),
		)
	}
	f.metrics.RecordCache("sports", false)

	cred, err := f.creds.Best()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, usage, err := f.provider.Sports(ctx, cred.Key)
	f.apiCalls.Add(1)
	f.metrics.RecordAPICall("sports", time.Since(start).Seconds(), err != nil)
	f.recordUsage(cred.Key, usage)
	if err != nil {
		return nil, err
	}

	sports, err := ParseSports(payload)
	if err != nil {
		return nil, err
	}
	if err := f.cache.SetSports(ctx, payload); err != nil {
		f.logger.WarnContext(ctx, "caching sports payload failed",
			slog.String("error", err.Error()),
		)
	}
	return sports, nil
}

// Games returns normalized odds for one request, cached for 5 minutes.
func (f *Fetcher) Games(ctx context.Context, req domain.QuoteRequest) ([]domain.Game, error) {
	if payload, err := f.cache.GetOdds(ctx, req); err == nil {
		games, derr := ParseGames(payload)
		if derr == nil {
			f.cacheHits.Add(1)
			f.metrics.RecordCache("odds", true)
			return games, nil
		}
		f.logger.WarnContext(ctx, "corrupt cached odds payload, refetching",
			slog.String("sport", req.Sport),
			slog.String("error", derr.Error()),
		)
	} else if !errors.Is(err, domain.ErrNotFound) {
		f.logger.WarnContext(ctx, "odds cache read failed",
			slog.String("sport", req.Sport),
			slog.String("error", err.Error()),
		)
	}
	f.metrics.RecordCache("odds", false)

	cred, err := f.creds.Best()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, usage, err := f.provider.Odds(ctx, cred.Key, req)
	f.apiCalls.Add(1)
	f.metrics.RecordAPICall("odds", time.Since(start).Seconds(), err != nil)
	f.recordUsage(cred.Key, usage)
	if err != nil {
		return nil, err
	}

	games, err := ParseGames(payload)
	if err != nil {
		return nil, err
	}
	if err := f.cache.SetOdds(ctx, req, payload); err != nil {
		f.logger.WarnContext(ctx, "caching odds payload failed",
			slog.String("sport", req.Sport),
			slog.String("error", err.Error()),
		)
	}
	return games, nil
}

// ClearCache drops every cached quote.
func (f *Fetcher) ClearCache(ctx context.Context) error {
	return f.cache.Clear(ctx)
}

// Stats reports usage counters and per-credential quota.
func (f *Fetcher) Stats() FetcherStats {
	return FetcherStats{
		APICalls:    f.apiCalls.Load(),
		CacheHits:   f.cacheHits.Load(),
		Credentials: f.creds.Stats(),
	}
}

func (f *Fetcher) recordUsage(key string, usage Usage) {
	if !usage.Reported {
		return
	}
	f.creds.RecordUsage(key, usage.Remaining)
	f.metrics.SetCredentialRemaining(credentials.MaskKey(key), usage.Remaining)
}
