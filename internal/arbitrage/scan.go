package arbitrage

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/metrics"
)

// Scan defaults applied when options leave them unset.
const (
	DefaultInvestment = 500.0
	DefaultMinROI     = 0.5
)

// OddsSource provides sport catalogs and bookmaker quotes, typically the
// cached odds API fetcher.
type OddsSource interface {
	ActiveSports(ctx context.Context) ([]domain.Sport, error)
	Games(ctx context.Context, req domain.QuoteRequest) ([]domain.Game, error)
}

// ScanOptions control one scan pass. An empty sport list means every
// active non-outright sport; an empty market list means h2h; a
// non-positive investment falls back to DefaultInvestment.
type ScanOptions struct {
	Sports     []string
	Markets    []domain.MarketKey
	Bookmakers []string
	MinROI     float64
	Investment float64
	MaxHours   float64 // 0 means no commence-time window
	LiveOnly   bool
}

func (o ScanOptions) withDefaults() ScanOptions {
	if len(o.Markets) == 0 {
		o.Markets = []domain.MarketKey{domain.MarketH2H}
	}
	if o.Investment <= 0 {
		o.Investment = DefaultInvestment
	}
	return o
}

// Result is the outcome of one scan pass, opportunities ranked by ROI
// descending.
type Result struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
	SportsScanned int                  `json:"sports_scanned"`
	GamesScanned  int                  `json:"games_scanned"`
	StartedAt     time.Time            `json:"started_at"`
	ElapsedMS     int64                `json:"elapsed_ms"`
}

// Scanner runs scan passes against an odds source. A failing sport fetch
// degrades that sport to zero games instead of failing the whole pass.
type Scanner struct {
	source  OddsSource
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	Source  OddsSource
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewScanner creates a scanner over the given odds source.
func NewScanner(cfg ScannerConfig) *Scanner {
	return &Scanner{
		source:  cfg.Source,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With(slog.String("component", "scanner")),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Scan fetches quotes for every requested sport, runs detection over each
// game and market, filters by minimum ROI and returns opportunities ranked
// by ROI descending. Ties keep discovery order. A cancelled context returns
// the partial result together with the context error.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (Result, error) {
	opts = opts.withDefaults()
	start := s.now()
	res := Result{StartedAt: start.UTC(), Opportunities: []domain.Opportunity{}}

	sports := opts.Sports
	if len(sports) == 0 {
		catalog, err := s.source.ActiveSports(ctx)
		if err != nil {
			s.observe(&res, start, "error")
			return res, err
		}
		sports = defaultSportKeys(catalog)
	}

	markets := marketStrings(opts.Markets)
	for _, sport := range sports {
		if err := ctx.Err(); err != nil {
			s.observe(&res, start, "cancelled")
			return res, err
		}
		games, err := s.source.Games(ctx, domain.QuoteRequest{
			Sport:      sport,
			Markets:    markets,
			Bookmakers: opts.Bookmakers,
		})
		if err != nil {
			s.logger.Warn("sport fetch failed, skipping",
				slog.String("sport", sport),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.SportsScanned++
		for _, game := range games {
			if !eligible(game, opts, start) {
				continue
			}
			res.GamesScanned++
			for _, market := range opts.Markets {
				for _, opp := range DetectGame(game, market, opts.Investment) {
					if opp.ROI < opts.MinROI {
						continue
					}
					opp.ID = s.newID()
					opp.FoundAt = start.UTC()
					res.Opportunities = append(res.Opportunities, opp)
				}
			}
		}
	}

	sort.SliceStable(res.Opportunities, func(i, j int) bool {
		return res.Opportunities[i].ROI > res.Opportunities[j].ROI
	})
	s.observe(&res, start, "ok")

	s.logger.Info("scan complete",
		slog.Int("sports", res.SportsScanned),
		slog.Int("games", res.GamesScanned),
		slog.Int("opportunities", len(res.Opportunities)),
		slog.Int64("elapsed_ms", res.ElapsedMS),
	)
	return res, nil
}

func (s *Scanner) observe(res *Result, start time.Time, status string) {
	elapsed := s.now().Sub(start)
	res.ElapsedMS = elapsed.Milliseconds()
	if s.metrics != nil {
		s.metrics.RecordScan(status, elapsed.Seconds(), len(res.Opportunities))
	}
}

// eligible applies the commence-time window. With LiveOnly only games
// already under way pass; otherwise a MaxHours window drops games starting
// later than the window or already started.
func eligible(g domain.Game, opts ScanOptions, now time.Time) bool {
	if opts.LiveOnly {
		return g.Live(now)
	}
	if opts.MaxHours > 0 {
		h := g.CommenceTime.Sub(now).Hours()
		if h > opts.MaxHours || h < 0 {
			return false
		}
	}
	return true
}

// defaultSportKeys selects scannable keys from the active catalog,
// dropping outright-style markets such as tournament winner futures.
func defaultSportKeys(catalog []domain.Sport) []string {
	keys := make([]string, 0, len(catalog))
	for _, sp := range catalog {
		lk := strings.ToLower(sp.Key)
		if strings.Contains(lk, "winner") || strings.Contains(lk, "championship") {
			continue
		}
		keys = append(keys, sp.Key)
	}
	return keys
}

func marketStrings(markets []domain.MarketKey) []string {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = string(m)
	}
	return out
}
