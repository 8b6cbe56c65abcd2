package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bankroll tracks the simulated funds. The invariant Total == Available +
// InPlay must hold after every mutation.
type Bankroll struct {
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	InPlay    decimal.Decimal `json:"in_play"`
}

// Check verifies the bankroll invariant.
func (b Bankroll) Check() error {
	if !b.Total.Equal(b.Available.Add(b.InPlay)) {
		return fmt.Errorf("bankroll invariant violated: total %s != available %s + in_play %s",
			b.Total, b.Available, b.InPlay)
	}
	return nil
}

// BookmakerBalance tracks per-bookmaker virtual funds.
type BookmakerBalance struct {
	Deposited decimal.Decimal `json:"deposited"`
	Balance   decimal.Decimal `json:"balance"`
	InPlay    decimal.Decimal `json:"in_play"`
}

// LedgerSettings are fixed at document creation.
type LedgerSettings struct {
	StartingBankroll decimal.Decimal `json:"starting_bankroll"`
	CreatedAt        time.Time       `json:"created_at"`
}

// LedgerStats are running aggregates across all bets. Won and Lost count
// settled bets only; ROI is profit over total staked in percent.
type LedgerStats struct {
	TotalBets    int             `json:"total_bets"`
	Won          int             `json:"won"`
	Lost         int             `json:"lost"`
	Pending      int             `json:"pending"`
	TotalStaked  decimal.Decimal `json:"total_staked"`
	TotalReturns decimal.Decimal `json:"total_returns"`
	ProfitLoss   decimal.Decimal `json:"profit_loss"`
	ROI          float64         `json:"roi"`
}

// LedgerDocument is the whole persisted state of the simulation: settings,
// bankroll, per-bookmaker balances, active and settled bets, and aggregate
// statistics. It is rewritten wholesale on every mutation, last writer wins.
type LedgerDocument struct {
	Settings    LedgerSettings              `json:"settings"`
	Bankroll    Bankroll                    `json:"bankroll"`
	Bookmakers  map[string]BookmakerBalance `json:"bookmaker_balances"`
	NextBetID   int64                       `json:"next_bet_id"`
	Bets        []VirtualBet                `json:"bets"`
	SettledBets []VirtualBet                `json:"settled_bets"`
	Stats       LedgerStats                 `json:"statistics"`
}

// NewLedgerDocument returns a fresh document with the full starting bankroll
// available.
func NewLedgerDocument(starting decimal.Decimal, now time.Time) LedgerDocument {
	return LedgerDocument{
		Settings: LedgerSettings{
			StartingBankroll: starting,
			CreatedAt:        now.UTC(),
		},
		Bankroll: Bankroll{
			Total:     starting,
			Available: starting,
			InPlay:    decimal.Zero,
		},
		Bookmakers:  make(map[string]BookmakerBalance),
		NextBetID:   1,
		Bets:        []VirtualBet{},
		SettledBets: []VirtualBet{},
	}
}
