package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	"github.com/alanyoungcy/betgo/internal/domain"
)

type fakeRunner struct {
	mu    sync.Mutex
	scans int
	res   arbitrage.Result
	err   error
}

func (f *fakeRunner) Scan(ctx context.Context, opts arbitrage.ScanOptions) (arbitrage.Result, error) {
	f.mu.Lock()
	f.scans++
	f.mu.Unlock()
	return f.res, f.err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans
}

type fakePlacer struct {
	mu     sync.Mutex
	placed []float64
	fail   map[string]error
	nextID int64
}

func (f *fakePlacer) Place(ctx context.Context, opp domain.Opportunity, investment float64) (domain.VirtualBet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[opp.ID]; ok {
		return domain.VirtualBet{}, err
	}
	f.nextID++
	f.placed = append(f.placed, investment)
	return domain.VirtualBet{
		ID:         f.nextID,
		Event:      opp.Event(),
		TotalStake: decimal.NewFromFloat(investment),
	}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	cycles int
	opps   int
	placed int
}

func (r *recordingSink) ScanCycle(ctx context.Context, res arbitrage.Result, placed []domain.VirtualBet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles++
	r.opps += len(res.Opportunities)
	r.placed += len(placed)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// Long intervals so only the immediate first cycle runs during a test.
func testLoopConfig(runner ScanRunner, skipOffPeak bool) AutoScannerConfig {
	return AutoScannerConfig{
		Runner: runner,
		Schedule: NewSchedule(ScheduleConfig{
			PeakInterval:    time.Hour,
			OffPeakInterval: time.Hour,
			SkipOffPeak:     skipOffPeak,
			Location:        time.UTC,
		}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newLoop(t *testing.T, cfg AutoScannerConfig, at time.Time) *AutoScanner {
	t.Helper()
	a := NewAutoScanner(cfg)
	a.now = func() time.Time { return at }
	return a
}

func TestAutoScannerScansImmediatelyDuringPeak(t *testing.T) {
	runner := &fakeRunner{}
	a := newLoop(t, testLoopConfig(runner, true), weekdayAt(18))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "first scan", func() bool { return runner.count() >= 1 })
	waitFor(t, "stats update", func() bool { return a.Status().Stats.Scans >= 1 })

	st := a.Status()
	if st.State != PhaseScanning {
		t.Errorf("state = %s, want %s", st.State, PhaseScanning)
	}
	if st.LastScan == nil {
		t.Error("last scan not recorded")
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := a.Status().State; got != PhaseStopped {
		t.Errorf("state after stop = %s, want %s", got, PhaseStopped)
	}
}

func TestAutoScannerStartTwice(t *testing.T) {
	a := newLoop(t, testLoopConfig(&fakeRunner{}, true), weekdayAt(18))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	if err := a.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second start err = %v, want ErrAlreadyRunning", err)
	}
}

func TestAutoScannerStopWithoutStart(t *testing.T) {
	a := newLoop(t, testLoopConfig(&fakeRunner{}, true), weekdayAt(18))

	if err := a.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stop err = %v, want ErrNotRunning", err)
	}
}

func TestAutoScannerSleepsOffPeakWhenSkipping(t *testing.T) {
	runner := &fakeRunner{}
	a := newLoop(t, testLoopConfig(runner, true), weekdayAt(3))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	waitFor(t, "sleeping phase", func() bool { return a.Status().State == PhaseSleeping })
	if got := runner.count(); got != 0 {
		t.Errorf("off-peak with skip ran %d scans, want 0", got)
	}
	if a.Status().NextScan == nil {
		t.Error("sleeping loop must expose its wake-up time")
	}
}

func TestAutoScannerScansOffPeakWhenNotSkipping(t *testing.T) {
	runner := &fakeRunner{}
	a := newLoop(t, testLoopConfig(runner, false), weekdayAt(3))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	waitFor(t, "off-peak scan", func() bool { return runner.count() >= 1 })
}

func TestAutoScannerAutoBetPlacesAndNotifies(t *testing.T) {
	opps := []domain.Opportunity{
		{ID: "opp-1", HomeTeam: "A", AwayTeam: "B", ROI: 5},
		{ID: "opp-2", HomeTeam: "C", AwayTeam: "D", ROI: 3},
	}
	runner := &fakeRunner{res: arbitrage.Result{Opportunities: opps}}
	placer := &fakePlacer{fail: map[string]error{"opp-2": domain.ErrInsufficientBankroll}}
	sink := &recordingSink{}

	cfg := testLoopConfig(runner, true)
	cfg.Ledger = placer
	cfg.AutoBet = true
	cfg.MaxInvestment = 50
	cfg.Sinks = []CycleSink{sink}
	a := newLoop(t, cfg, weekdayAt(18))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	waitFor(t, "cycle fanout", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.cycles >= 1
	})

	placer.mu.Lock()
	if len(placer.placed) != 1 || placer.placed[0] != 50 {
		t.Errorf("placed %v, want one bet at investment 50", placer.placed)
	}
	placer.mu.Unlock()

	sink.mu.Lock()
	if sink.opps != 2 || sink.placed != 1 {
		t.Errorf("sink saw %d opps / %d placed, want 2 / 1", sink.opps, sink.placed)
	}
	sink.mu.Unlock()

	st := a.Status()
	if st.Stats.BetsPlaced != 1 {
		t.Errorf("stats bets placed = %d, want 1", st.Stats.BetsPlaced)
	}
	if st.Stats.TotalInvested != 50 {
		t.Errorf("stats invested = %v, want 50", st.Stats.TotalInvested)
	}
}

func TestAutoScannerScanErrorKeepsRunning(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}
	a := newLoop(t, testLoopConfig(runner, true), weekdayAt(18))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	waitFor(t, "failed scan attempt", func() bool { return runner.count() >= 1 })
	if got := a.Status().Stats.Scans; got != 0 {
		t.Errorf("failed cycles counted as scans: %d", got)
	}
	// Still controllable after the failure.
	if err := a.Stop(); err != nil {
		t.Fatalf("stop after failure: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
}
