package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	"github.com/alanyoungcy/betgo/internal/domain"
)

// Control errors returned by Start and Stop.
var (
	ErrAlreadyRunning = errors.New("scanner: already running")
	ErrNotRunning     = errors.New("scanner: not running")
)

// Loop phases reported by Status.
const (
	PhaseStopped  = "stopped"
	PhaseScanning = "scanning"
	PhaseSleeping = "sleeping_until_peak"
)

// ScanRunner runs one scan pass.
type ScanRunner interface {
	Scan(ctx context.Context, opts arbitrage.ScanOptions) (arbitrage.Result, error)
}

// BetPlacer places a virtual bet from an opportunity. The simulation
// ledger implements it.
type BetPlacer interface {
	Place(ctx context.Context, opp domain.Opportunity, investment float64) (domain.VirtualBet, error)
}

// CycleSink receives each completed cycle, for example the Discord
// notifier or the websocket hub. Implementations must return quickly.
type CycleSink interface {
	ScanCycle(ctx context.Context, res arbitrage.Result, placed []domain.VirtualBet)
}

// LoopStats are cumulative counters since the process started.
type LoopStats struct {
	Scans              int     `json:"scans"`
	OpportunitiesFound int     `json:"opportunities_found"`
	BetsPlaced         int     `json:"bets_placed"`
	TotalInvested      float64 `json:"total_invested"`
}

// Status is a point-in-time snapshot of the loop.
type Status struct {
	State           string     `json:"state"`
	PeakNow         bool       `json:"peak_now"`
	PeakWindow      string     `json:"peak_window"`
	IntervalSeconds int        `json:"interval_seconds"`
	AutoBet         bool       `json:"auto_bet"`
	MaxInvestment   float64    `json:"max_investment"`
	LastScan        *time.Time `json:"last_scan,omitempty"`
	NextScan        *time.Time `json:"next_scan,omitempty"`
	Stats           LoopStats  `json:"stats"`
}

// AutoScannerConfig wires an AutoScanner.
type AutoScannerConfig struct {
	Runner        ScanRunner
	Ledger        BetPlacer // nil disables auto betting
	Schedule      *Schedule
	ScanOptions   arbitrage.ScanOptions
	AutoBet       bool
	MaxInvestment float64 // per-bet stake cap when auto betting
	Sinks         []CycleSink
	Logger        *slog.Logger
}

// AutoScanner drives scan cycles on the schedule's cadence. The loop is a
// cancellable task: a stop request cancels its context, which preempts the
// inter-cycle timer immediately.
type AutoScanner struct {
	runner        ScanRunner
	ledger        BetPlacer
	schedule      *Schedule
	opts          arbitrage.ScanOptions
	autoBet       bool
	maxInvestment float64
	sinks         []CycleSink
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.Mutex
	running  bool
	phase    string
	cancel   context.CancelFunc
	done     chan struct{}
	lastScan *time.Time
	nextScan *time.Time
	stats    LoopStats
}

// NewAutoScanner creates a stopped scanner.
func NewAutoScanner(cfg AutoScannerConfig) *AutoScanner {
	if cfg.MaxInvestment <= 0 {
		cfg.MaxInvestment = 100
	}
	return &AutoScanner{
		runner:        cfg.Runner,
		ledger:        cfg.Ledger,
		schedule:      cfg.Schedule,
		opts:          cfg.ScanOptions,
		autoBet:       cfg.AutoBet && cfg.Ledger != nil,
		maxInvestment: cfg.MaxInvestment,
		sinks:         cfg.Sinks,
		logger:        cfg.Logger.With(slog.String("component", "auto_scanner")),
		now:           time.Now,
		phase:         PhaseStopped,
	}
}

// Start launches the background loop. The loop lives until Stop or until
// the parent context is cancelled.
func (a *AutoScanner) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.running = true
	a.cancel = cancel
	a.done = make(chan struct{})

	go a.run(loopCtx, a.done)
	a.logger.Info("auto scanner started",
		slog.String("peak_window", a.schedule.Window(a.now())),
		slog.Bool("auto_bet", a.autoBet),
	)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (a *AutoScanner) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	cancel()
	<-done

	a.mu.Lock()
	a.running = false
	a.phase = PhaseStopped
	a.nextScan = nil
	a.mu.Unlock()

	a.logger.Info("auto scanner stopped")
	return nil
}

// Status returns a snapshot for the status endpoint.
func (a *AutoScanner) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	st := Status{
		State:           a.phase,
		PeakNow:         a.schedule.IsOptimal("", now),
		PeakWindow:      a.schedule.Window(now),
		IntervalSeconds: int(a.schedule.Interval("", now) / time.Second),
		AutoBet:         a.autoBet,
		MaxInvestment:   a.maxInvestment,
		LastScan:        a.lastScan,
		NextScan:        a.nextScan,
		Stats:           a.stats,
	}
	return st
}

func (a *AutoScanner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := a.step(ctx)
		if ctx.Err() != nil {
			return
		}
		next := a.now().Add(wait)
		a.mu.Lock()
		a.nextScan = &next
		a.mu.Unlock()
		timer.Reset(wait)
	}
}

// step either runs one cycle or decides to sleep until the window opens,
// and returns how long to wait before the next step.
func (a *AutoScanner) step(ctx context.Context) time.Duration {
	now := a.now()
	if a.schedule.IsOptimal("", now) {
		a.setPhase(PhaseScanning)
		a.cycle(ctx)
		return a.schedule.PeakInterval()
	}
	if a.schedule.SkipOffPeak() {
		a.setPhase(PhaseSleeping)
		wait := a.schedule.UntilNextPeak(now)
		a.logger.Info("off-peak, sleeping until window opens",
			slog.Duration("wait", wait),
			slog.String("peak_window", a.schedule.Window(now)),
		)
		return wait
	}
	a.setPhase(PhaseScanning)
	a.cycle(ctx)
	return a.schedule.OffPeakInterval()
}

// cycle runs one scan pass, optionally places bets, and fans the result
// out to sinks. Scan and placement failures are logged and absorbed so
// the loop keeps its cadence.
func (a *AutoScanner) cycle(ctx context.Context) {
	res, err := a.runner.Scan(ctx, a.opts)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Error("scan cycle failed", slog.String("error", err.Error()))
		return
	}

	placed := a.placeBets(ctx, res.Opportunities)

	last := a.now()
	a.mu.Lock()
	a.lastScan = &last
	a.stats.Scans++
	a.stats.OpportunitiesFound += len(res.Opportunities)
	a.stats.BetsPlaced += len(placed)
	for _, b := range placed {
		total, _ := b.TotalStake.Float64()
		a.stats.TotalInvested += total
	}
	a.mu.Unlock()

	for _, sink := range a.sinks {
		sink.ScanCycle(ctx, res, placed)
	}
}

func (a *AutoScanner) placeBets(ctx context.Context, opps []domain.Opportunity) []domain.VirtualBet {
	if !a.autoBet || len(opps) == 0 {
		return nil
	}
	var placed []domain.VirtualBet
	for _, opp := range opps {
		bet, err := a.ledger.Place(ctx, opp, a.maxInvestment)
		if err != nil {
			a.logger.Warn("auto bet not placed",
				slog.String("opportunity", opp.Event()),
				slog.String("error", err.Error()),
			)
			continue
		}
		placed = append(placed, bet)
		a.logger.Info("auto bet placed",
			slog.Int64("bet_id", bet.ID),
			slog.String("event", bet.Event),
			slog.Float64("roi", opp.ROI),
		)
	}
	return placed
}

func (a *AutoScanner) setPhase(phase string) {
	a.mu.Lock()
	a.phase = phase
	a.mu.Unlock()
}
