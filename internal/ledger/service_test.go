package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/metrics"
	"github.com/alanyoungcy/betgo/internal/store/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := NewService(Config{
		Store:   memory.NewLedgerStore(),
		Metrics: metrics.New(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

// twoWayOpp builds an opportunity with equal stakes on Home and Away.
func twoWayOpp(roi, stakeEach, odds float64) domain.Opportunity {
	return domain.Opportunity{
		ID:         "opp-test",
		SportKey:   "soccer_epl",
		SportTitle: "EPL",
		HomeTeam:   "Arsenal",
		AwayTeam:   "Chelsea",
		Market:     domain.MarketH2H,
		ROI:        roi,
		Profit:     2 * stakeEach * (odds/2 - 1),
		Investment: 2 * stakeEach,
		Stakes: []domain.OutcomeStake{
			{Outcome: "Home", Bookmaker: "pinnacle", BookmakerTitle: "Pinnacle", Odds: odds, Stake: stakeEach},
			{Outcome: "Away", Bookmaker: "betfair", BookmakerTitle: "Betfair", Odds: odds, Stake: stakeEach},
		},
	}
}

func mustEqual(t *testing.T, name string, got decimal.Decimal, want float64) {
	t.Helper()
	if !got.Equal(decimal.NewFromFloat(want)) {
		t.Errorf("%s = %s, want %v", name, got, want)
	}
}

func TestPlaceCreatesBetAndMovesBankroll(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	bet, err := s.Place(ctx, twoWayOpp(10, 250, 2.20), 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if bet.ID != 1 {
		t.Errorf("bet id = %d, want 1", bet.ID)
	}
	if bet.Status != domain.BetPending {
		t.Errorf("status = %s, want pending", bet.Status)
	}
	if bet.Event != "Arsenal vs Chelsea" {
		t.Errorf("event = %q", bet.Event)
	}
	if len(bet.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(bet.Legs))
	}
	mustEqual(t, "leg stake", bet.Legs[0].Stake, 250)
	mustEqual(t, "leg potential return", bet.Legs[0].PotentialReturn, 550)
	mustEqual(t, "total stake", bet.TotalStake, 500)

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	mustEqual(t, "available", st.Bankroll.Available, 500)
	mustEqual(t, "in play", st.Bankroll.InPlay, 500)
	mustEqual(t, "total", st.Bankroll.Total, 1000)
	if st.Statistics.TotalBets != 1 || st.Statistics.Pending != 1 {
		t.Errorf("stats = %+v, want 1 bet pending", st.Statistics)
	}
	mustEqual(t, "pinnacle in play", st.BookmakerBalances["pinnacle"].InPlay, 250)
	mustEqual(t, "betfair in play", st.BookmakerBalances["betfair"].InPlay, 250)
}

func TestPlaceRescalesToInvestment(t *testing.T) {
	s := newTestService(t)

	bet, err := s.Place(context.Background(), twoWayOpp(10, 250, 2.20), 100)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	mustEqual(t, "total stake", bet.TotalStake, 100)
	mustEqual(t, "leg stake", bet.Legs[0].Stake, 50)
	mustEqual(t, "leg potential return", bet.Legs[0].PotentialReturn, 110)
}

func TestPlaceInsufficientBankrollMutatesNothing(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	before, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	_, err = s.Place(ctx, twoWayOpp(10, 750, 2.20), 0) // total 1500 > 1000
	if !errors.Is(err, domain.ErrInsufficientBankroll) {
		t.Fatalf("err = %v, want ErrInsufficientBankroll", err)
	}

	after, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !after.Bankroll.Available.Equal(before.Bankroll.Available) ||
		!after.Bankroll.InPlay.Equal(before.Bankroll.InPlay) ||
		after.Statistics.TotalBets != before.Statistics.TotalBets {
		t.Errorf("rejected placement changed state: before %+v after %+v", before, after)
	}
}

func TestPlaceExactlyAvailableBankroll(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Place(context.Background(), twoWayOpp(10, 500, 2.20), 0); err != nil {
		t.Fatalf("staking the whole bankroll must be allowed: %v", err)
	}

	st, _ := s.Stats(context.Background())
	mustEqual(t, "available", st.Bankroll.Available, 0)
	mustEqual(t, "in play", st.Bankroll.InPlay, 1000)
}

func TestSettleWinningOutcome(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	placed, err := s.Place(ctx, twoWayOpp(10, 250, 2.20), 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	settled, err := s.Settle(ctx, placed.ID, "Home")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if settled.Status != domain.BetSettled || settled.SettledAt == nil {
		t.Errorf("bet not marked settled: %+v", settled)
	}
	if settled.WinningOutcome != "Home" {
		t.Errorf("winning outcome = %q", settled.WinningOutcome)
	}
	if settled.Legs[0].Status != domain.LegWon {
		t.Errorf("home leg = %s, want won", settled.Legs[0].Status)
	}
	mustEqual(t, "won leg result", settled.Legs[0].Result, 550)
	if settled.Legs[1].Status != domain.LegLost {
		t.Errorf("away leg = %s, want lost", settled.Legs[1].Status)
	}
	mustEqual(t, "lost leg result", settled.Legs[1].Result, 0)
	mustEqual(t, "actual return", settled.ActualReturn, 550)
	mustEqual(t, "actual profit", settled.ActualProfit, 50)

	st, _ := s.Stats(ctx)
	mustEqual(t, "available", st.Bankroll.Available, 1050)
	mustEqual(t, "in play", st.Bankroll.InPlay, 0)
	mustEqual(t, "total", st.Bankroll.Total, 1050)
	if st.Statistics.Won != 1 || st.Statistics.Lost != 0 || st.Statistics.Pending != 0 {
		t.Errorf("statistics = %+v", st.Statistics)
	}
	mustEqual(t, "profit loss", st.Statistics.ProfitLoss, 50)
	if got := st.Statistics.ROI; got != 10 {
		t.Errorf("roi = %v, want 10", got)
	}

	mustEqual(t, "pinnacle balance", st.BookmakerBalances["pinnacle"].Balance, 550)
	mustEqual(t, "pinnacle in play", st.BookmakerBalances["pinnacle"].InPlay, 0)
	mustEqual(t, "betfair balance", st.BookmakerBalances["betfair"].Balance, 0)
	mustEqual(t, "betfair in play", st.BookmakerBalances["betfair"].InPlay, 0)
}

func TestSettleUnmatchedOutcomeLosesAllLegs(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	placed, err := s.Place(ctx, twoWayOpp(10, 250, 2.20), 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	settled, err := s.Settle(ctx, placed.ID, "Postponed")
	if err != nil {
		t.Fatalf("an unmatched outcome is a valid settlement: %v", err)
	}

	for _, leg := range settled.Legs {
		if leg.Status != domain.LegLost {
			t.Errorf("leg %s = %s, want lost", leg.Outcome, leg.Status)
		}
	}
	mustEqual(t, "actual return", settled.ActualReturn, 0)
	mustEqual(t, "actual profit", settled.ActualProfit, -500)

	st, _ := s.Stats(ctx)
	mustEqual(t, "available", st.Bankroll.Available, 500)
	mustEqual(t, "total", st.Bankroll.Total, 500)
	if st.Statistics.Lost != 1 {
		t.Errorf("lost = %d, want 1", st.Statistics.Lost)
	}
}

func TestSettleUnknownBet(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Settle(context.Background(), 99, "Home"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSettleTwiceRejectedWithoutMutation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	placed, err := s.Place(ctx, twoWayOpp(10, 250, 2.20), 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := s.Settle(ctx, placed.ID, "Home"); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	before, _ := s.Stats(ctx)
	_, err = s.Settle(ctx, placed.ID, "Away")
	if !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("err = %v, want ErrAlreadySettled", err)
	}
	after, _ := s.Stats(ctx)

	if !after.Bankroll.Total.Equal(before.Bankroll.Total) ||
		after.Statistics.Won != before.Statistics.Won ||
		after.Statistics.Lost != before.Statistics.Lost {
		t.Errorf("second settle changed state: before %+v after %+v", before, after)
	}

	hist, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].WinningOutcome != "Home" {
		t.Errorf("history = %+v, want the original settlement untouched", hist)
	}
}

func TestBankrollInvariantUnderRandomSequence(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	checkInvariant := func(step int) {
		t.Helper()
		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("step %d: stats: %v", step, err)
		}
		if !st.Bankroll.Total.Equal(st.Bankroll.Available.Add(st.Bankroll.InPlay)) {
			t.Fatalf("step %d: invariant broken: %+v", step, st.Bankroll)
		}
	}

	var pendingIDs []int64
	for step := 0; step < 60; step++ {
		if rng.Intn(2) == 0 || len(pendingIDs) == 0 {
			stake := float64(rng.Intn(200)+1) / 2
			bet, err := s.Place(ctx, twoWayOpp(5, stake, 2.10), 0)
			if err == nil {
				pendingIDs = append(pendingIDs, bet.ID)
			} else if !errors.Is(err, domain.ErrInsufficientBankroll) {
				t.Fatalf("step %d: place: %v", step, err)
			}
		} else {
			i := rng.Intn(len(pendingIDs))
			id := pendingIDs[i]
			pendingIDs = append(pendingIDs[:i], pendingIDs[i+1:]...)
			outcome := "Home"
			if rng.Intn(2) == 0 {
				outcome = "Away"
			}
			if _, err := s.Settle(ctx, id, outcome); err != nil {
				t.Fatalf("step %d: settle %d: %v", step, id, err)
			}
		}
		checkInvariant(step)
	}
}

func TestPendingListsOnlyOpenBets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, _ := s.Place(ctx, twoWayOpp(10, 100, 2.20), 0)
	second, _ := s.Place(ctx, twoWayOpp(10, 100, 2.20), 0)
	if _, err := s.Settle(ctx, first.ID, "Home"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	pending, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending = %+v, want only bet %d", pending, second.ID)
	}
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Place(ctx, twoWayOpp(10, 50, 2.20), 0); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}

	hist, err := s.History(ctx, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history len = %d, want 2", len(hist))
	}
	if hist[0].ID != 3 || hist[1].ID != 2 {
		t.Errorf("history order = [%d %d], want [3 2]", hist[0].ID, hist[1].ID)
	}
}

func TestMonotonicIDsAcrossSettlement(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, _ := s.Place(ctx, twoWayOpp(10, 50, 2.20), 0)
	if _, err := s.Settle(ctx, first.ID, "Home"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	second, _ := s.Place(ctx, twoWayOpp(10, 50, 2.20), 0)

	if second.ID != first.ID+1 {
		t.Errorf("ids not monotonic: %d then %d", first.ID, second.ID)
	}
}

func TestResetStartsFresh(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Place(ctx, twoWayOpp(10, 250, 2.20), 0); err != nil {
		t.Fatalf("place: %v", err)
	}

	snap, err := s.Reset(ctx, decimal.NewFromInt(2500))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	mustEqual(t, "available", snap.Bankroll.Available, 2500)
	mustEqual(t, "total", snap.Bankroll.Total, 2500)

	pending, _ := s.Pending(ctx)
	if len(pending) != 0 {
		t.Errorf("pending after reset = %d, want 0", len(pending))
	}

	bet, err := s.Place(ctx, twoWayOpp(10, 50, 2.20), 0)
	if err != nil {
		t.Fatalf("place after reset: %v", err)
	}
	if bet.ID != 1 {
		t.Errorf("ids restart at 1 after reset, got %d", bet.ID)
	}
}

func TestAnalyticsRollups(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	place := func(sportTitle, market string, roi, stake float64) int64 {
		t.Helper()
		opp := twoWayOpp(roi, stake, 2.20)
		opp.SportTitle = sportTitle
		opp.Market = domain.MarketKey(market)
		bet, err := s.Place(ctx, opp, 0)
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		return bet.ID
	}

	winID := place("EPL", "h2h", 0.5, 125)    // bucket 0-1%, profit +25
	loseID := place("EPL", "totals", 3.0, 50) // bucket 2-5%, profit -100
	bigID := place("NBA", "h2h", 7.5, 100)    // bucket 5%+, profit +20
	pendingID := place("NBA", "h2h", 1.5, 10) // stays pending, excluded

	if _, err := s.Settle(ctx, winID, "Home"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := s.Settle(ctx, loseID, "Void"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := s.Settle(ctx, bigID, "Away"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	a, err := s.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if a.TotalSettled != 3 {
		t.Fatalf("total settled = %d, want 3", a.TotalSettled)
	}

	epl := a.BySport["EPL"]
	if epl.Bets != 2 {
		t.Errorf("EPL bets = %d, want 2", epl.Bets)
	}
	mustEqual(t, "EPL profit", epl.Profit, -75) // +25 - 100
	mustEqual(t, "EPL staked", epl.Staked, 350)

	nba := a.BySport["NBA"]
	if nba.Bets != 1 {
		t.Errorf("NBA bets = %d, want 1", nba.Bets)
	}
	mustEqual(t, "NBA profit", nba.Profit, 20)

	h2h := a.ByMarket["h2h"]
	if h2h.Bets != 2 {
		t.Errorf("h2h bets = %d, want 2", h2h.Bets)
	}
	mustEqual(t, "h2h profit", h2h.Profit, 45)

	low := a.ByROIRange["0-1%"]
	if low.Bets != 1 || low.Wins != 1 {
		t.Errorf("0-1%% bucket = %+v, want 1 bet 1 win", low)
	}
	mid := a.ByROIRange["2-5%"]
	if mid.Bets != 1 || mid.Wins != 0 {
		t.Errorf("2-5%% bucket = %+v, want 1 bet 0 wins", mid)
	}
	high := a.ByROIRange["5%+"]
	if high.Bets != 1 || high.Wins != 1 {
		t.Errorf("5%%+ bucket = %+v, want 1 bet 1 win", high)
	}
	if empty := a.ByROIRange["1-2%"]; empty.Bets != 0 {
		t.Errorf("1-2%% bucket = %+v, want empty", empty)
	}

	_ = pendingID
}
