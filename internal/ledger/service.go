// Package ledger implements the paper-trading simulation: virtual bet
// placement and settlement over one persisted document, with bankroll
// accounting, running statistics and analytics roll-ups.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/metrics"
)

// DefaultStartingBankroll seeds a fresh simulation.
var DefaultStartingBankroll = decimal.NewFromInt(1000)

// DefaultHistoryLimit caps History when the caller passes no limit.
const DefaultHistoryLimit = 50

// Config wires a Service.
type Config struct {
	Store            domain.LedgerStore
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	StartingBankroll decimal.Decimal // zero means DefaultStartingBankroll
}

// Service is the simulation ledger. Every operation runs load-mutate-save
// under one mutex, so the scan loop and concurrent API callers serialize;
// a failed precondition returns before the save and leaves the document
// untouched.
type Service struct {
	store    domain.LedgerStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	starting decimal.Decimal
	now      func() time.Time

	mu sync.Mutex
}

// NewService creates a ledger over the given store.
func NewService(cfg Config) *Service {
	starting := cfg.StartingBankroll
	if starting.LessThanOrEqual(decimal.Zero) {
		starting = DefaultStartingBankroll
	}
	return &Service{
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With(slog.String("component", "ledger")),
		starting: starting,
		now:      time.Now,
	}
}

// StatsSnapshot is the bankroll and statistics view returned by Stats.
type StatsSnapshot struct {
	Bankroll          domain.Bankroll                    `json:"bankroll"`
	Statistics        domain.LedgerStats                 `json:"statistics"`
	PendingBets       int                                `json:"pending_bets"`
	BookmakerBalances map[string]domain.BookmakerBalance `json:"bookmaker_balances"`
}

// Place creates a virtual bet from an opportunity. A positive investment
// rescales the opportunity's stakes proportionally; zero keeps them as
// detected. Fails with ErrInsufficientBankroll when the total stake
// exceeds the available bankroll, mutating nothing.
func (s *Service) Place(ctx context.Context, opp domain.Opportunity, investment float64) (domain.VirtualBet, error) {
	if len(opp.Stakes) == 0 {
		return domain.VirtualBet{}, fmt.Errorf("ledger: opportunity has no stakes: %w", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return domain.VirtualBet{}, err
	}

	legs, totalStake, err := buildLegs(opp, investment)
	if err != nil {
		return domain.VirtualBet{}, err
	}
	if totalStake.GreaterThan(doc.Bankroll.Available) {
		return domain.VirtualBet{}, fmt.Errorf("ledger: need %s, have %s: %w",
			totalStake.StringFixed(2), doc.Bankroll.Available.StringFixed(2), domain.ErrInsufficientBankroll)
	}

	bet := domain.VirtualBet{
		ID:             doc.NextBetID,
		PlacedAt:       s.now().UTC(),
		Status:         domain.BetPending,
		SportKey:       opp.SportKey,
		SportTitle:     opp.SportTitle,
		Event:          opp.Event(),
		Market:         opp.Market,
		ExpectedROI:    opp.ROI,
		ExpectedProfit: decimal.NewFromFloat(opp.Profit),
		TotalStake:     totalStake,
		Legs:           legs,
	}
	if opp.Line != nil {
		line := *opp.Line
		bet.Line = &line
	}

	doc.NextBetID++
	for _, leg := range legs {
		bal := doc.Bookmakers[leg.Bookmaker]
		bal.InPlay = bal.InPlay.Add(leg.Stake)
		doc.Bookmakers[leg.Bookmaker] = bal
	}
	doc.Bankroll.Available = doc.Bankroll.Available.Sub(totalStake)
	doc.Bankroll.InPlay = doc.Bankroll.InPlay.Add(totalStake)
	doc.Stats.TotalBets++
	doc.Stats.Pending++
	doc.Stats.TotalStaked = doc.Stats.TotalStaked.Add(totalStake)
	doc.Bets = append(doc.Bets, bet)

	if err := s.save(ctx, doc); err != nil {
		return domain.VirtualBet{}, err
	}

	s.logger.Info("virtual bet placed",
		slog.Int64("bet_id", bet.ID),
		slog.String("event", bet.Event),
		slog.String("stake", totalStake.StringFixed(2)),
		slog.Float64("expected_roi", bet.ExpectedROI),
	)
	if s.metrics != nil {
		s.metrics.BetsPlaced.Inc()
	}
	s.updateBankrollGauges(doc)
	return bet, nil
}

// Settle closes a pending bet against the declared winning outcome. Legs
// whose outcome label matches win their potential return; all others lose.
// No matching leg means every leg loses, which is a valid settlement.
func (s *Service) Settle(ctx context.Context, id int64, winningOutcome string) (domain.VirtualBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return domain.VirtualBet{}, err
	}

	idx := -1
	for i := range doc.Bets {
		if doc.Bets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i := range doc.SettledBets {
			if doc.SettledBets[i].ID == id {
				return domain.VirtualBet{}, fmt.Errorf("ledger: bet %d: %w", id, domain.ErrAlreadySettled)
			}
		}
		return domain.VirtualBet{}, fmt.Errorf("ledger: bet %d: %w", id, domain.ErrNotFound)
	}

	bet := doc.Bets[idx]
	if bet.Status != domain.BetPending {
		return domain.VirtualBet{}, fmt.Errorf("ledger: bet %d: %w", id, domain.ErrAlreadySettled)
	}

	totalReturn := decimal.Zero
	for i := range bet.Legs {
		leg := &bet.Legs[i]
		bal := doc.Bookmakers[leg.Bookmaker]
		bal.InPlay = bal.InPlay.Sub(leg.Stake)
		if leg.Outcome == winningOutcome {
			leg.Status = domain.LegWon
			leg.Result = leg.PotentialReturn
			totalReturn = totalReturn.Add(leg.PotentialReturn)
			bal.Balance = bal.Balance.Add(leg.PotentialReturn)
		} else {
			leg.Status = domain.LegLost
			leg.Result = decimal.Zero
		}
		doc.Bookmakers[leg.Bookmaker] = bal
	}

	settledAt := s.now().UTC()
	bet.Status = domain.BetSettled
	bet.SettledAt = &settledAt
	bet.WinningOutcome = winningOutcome
	bet.ActualReturn = totalReturn
	bet.ActualProfit = totalReturn.Sub(bet.TotalStake)

	doc.Bankroll.InPlay = doc.Bankroll.InPlay.Sub(bet.TotalStake)
	doc.Bankroll.Available = doc.Bankroll.Available.Add(totalReturn)
	doc.Bankroll.Total = doc.Bankroll.Available.Add(doc.Bankroll.InPlay)
	if err := doc.Bankroll.Check(); err != nil {
		return domain.VirtualBet{}, fmt.Errorf("ledger: settle bet %d: %w", id, err)
	}

	won := bet.ActualProfit.GreaterThan(decimal.Zero)
	doc.Stats.Pending--
	doc.Stats.TotalReturns = doc.Stats.TotalReturns.Add(totalReturn)
	doc.Stats.ProfitLoss = doc.Stats.TotalReturns.Sub(doc.Stats.TotalStaked)
	if won {
		doc.Stats.Won++
	} else {
		doc.Stats.Lost++
	}
	if doc.Stats.TotalStaked.IsPositive() {
		doc.Stats.ROI = doc.Stats.ProfitLoss.
			Div(doc.Stats.TotalStaked).
			Mul(decimal.NewFromInt(100)).
			InexactFloat64()
	}

	doc.Bets = append(doc.Bets[:idx], doc.Bets[idx+1:]...)
	doc.SettledBets = append(doc.SettledBets, bet)

	if err := s.save(ctx, doc); err != nil {
		return domain.VirtualBet{}, err
	}

	s.logger.Info("bet settled",
		slog.Int64("bet_id", bet.ID),
		slog.String("winning_outcome", winningOutcome),
		slog.String("profit", bet.ActualProfit.StringFixed(2)),
		slog.Bool("won", won),
	)
	if s.metrics != nil {
		s.metrics.RecordSettlement(won)
	}
	s.updateBankrollGauges(doc)
	return bet, nil
}

// Stats returns the bankroll and statistics snapshot.
func (s *Service) Stats(ctx context.Context) (StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return StatsSnapshot{}, err
	}
	return StatsSnapshot{
		Bankroll:          doc.Bankroll,
		Statistics:        doc.Stats,
		PendingBets:       len(doc.Bets),
		BookmakerBalances: doc.Bookmakers,
	}, nil
}

// Pending returns all open bets in placement order.
func (s *Service) Pending(ctx context.Context) ([]domain.VirtualBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VirtualBet, len(doc.Bets))
	copy(out, doc.Bets)
	return out, nil
}

// History returns pending and settled bets, newest placement first. A
// non-positive limit means DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, limit int) ([]domain.VirtualBet, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	all := allBets(doc)
	sort.SliceStable(all, func(i, j int) bool { return all[i].PlacedAt.After(all[j].PlacedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// All returns every bet in placement order, for exports.
func (s *Service) All(ctx context.Context) ([]domain.VirtualBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	all := allBets(doc)
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// Reset discards the whole simulation and starts over with the given
// bankroll; zero or negative means the service default.
func (s *Service) Reset(ctx context.Context, starting decimal.Decimal) (StatsSnapshot, error) {
	if starting.LessThanOrEqual(decimal.Zero) {
		starting = s.starting
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := domain.NewLedgerDocument(starting, s.now())
	if err := s.save(ctx, doc); err != nil {
		return StatsSnapshot{}, err
	}

	s.logger.Info("simulation reset", slog.String("starting_bankroll", starting.StringFixed(2)))
	s.updateBankrollGauges(doc)
	return StatsSnapshot{
		Bankroll:          doc.Bankroll,
		Statistics:        doc.Stats,
		BookmakerBalances: doc.Bookmakers,
	}, nil
}

// load pulls the document, creating a fresh one when the store is empty.
// Callers hold the mutex.
func (s *Service) load(ctx context.Context) (domain.LedgerDocument, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewLedgerDocument(s.starting, s.now()), nil
		}
		return domain.LedgerDocument{}, fmt.Errorf("ledger: load: %w", err)
	}
	if doc.Bookmakers == nil {
		doc.Bookmakers = make(map[string]domain.BookmakerBalance)
	}
	// Documents written before the counter existed derive it from content.
	if doc.NextBetID == 0 {
		doc.NextBetID = int64(len(doc.Bets)+len(doc.SettledBets)) + 1
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, doc domain.LedgerDocument) error {
	if err := s.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("ledger: save: %w", err)
	}
	return nil
}

func (s *Service) updateBankrollGauges(doc domain.LedgerDocument) {
	if s.metrics == nil {
		return
	}
	s.metrics.UpdateBankroll(
		doc.Bankroll.Available.InexactFloat64(),
		doc.Bankroll.InPlay.InexactFloat64(),
	)
}

// buildLegs converts opportunity stakes into bet legs, rescaling to the
// overriding investment when one is given.
func buildLegs(opp domain.Opportunity, investment float64) ([]domain.BetLeg, decimal.Decimal, error) {
	scale := decimal.NewFromInt(1)
	if investment > 0 {
		sum := decimal.Zero
		for _, st := range opp.Stakes {
			sum = sum.Add(decimal.NewFromFloat(st.Stake))
		}
		if sum.LessThanOrEqual(decimal.Zero) {
			return nil, decimal.Zero, fmt.Errorf("ledger: opportunity stakes sum to zero: %w", domain.ErrValidation)
		}
		scale = decimal.NewFromFloat(investment).Div(sum)
	}

	legs := make([]domain.BetLeg, 0, len(opp.Stakes))
	total := decimal.Zero
	for _, st := range opp.Stakes {
		stake := decimal.NewFromFloat(st.Stake).Mul(scale).Round(2)
		legs = append(legs, domain.BetLeg{
			Outcome:         st.Outcome,
			Bookmaker:       st.Bookmaker,
			Odds:            st.Odds,
			Stake:           stake,
			PotentialReturn: stake.Mul(decimal.NewFromFloat(st.Odds)).Round(2),
			Status:          domain.LegPending,
			Result:          decimal.Zero,
		})
		total = total.Add(stake)
	}
	return legs, total, nil
}

func allBets(doc domain.LedgerDocument) []domain.VirtualBet {
	all := make([]domain.VirtualBet, 0, len(doc.Bets)+len(doc.SettledBets))
	all = append(all, doc.Bets...)
	all = append(all, doc.SettledBets...)
	return all
}
