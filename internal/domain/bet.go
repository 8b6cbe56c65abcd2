package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus is the lifecycle state of a virtual bet. The only valid
// transition is pending to settled.
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetSettled BetStatus = "settled"
)

// LegStatus is the outcome state of a single leg.
type LegStatus string

const (
	LegPending LegStatus = "pending"
	LegWon     LegStatus = "won"
	LegLost    LegStatus = "lost"
)

// BetLeg is one single-outcome stake inside a hedged virtual bet. Result is
// zero until settlement; a won leg's result equals its potential return.
type BetLeg struct {
	Outcome         string          `json:"outcome"`
	Bookmaker       string          `json:"bookmaker"`
	Odds            float64         `json:"odds"`
	Stake           decimal.Decimal `json:"stake"`
	PotentialReturn decimal.Decimal `json:"potential_return"`
	Status          LegStatus       `json:"status"`
	Result          decimal.Decimal `json:"result"`
}

// VirtualBet is one paper bet placed from a detected opportunity. Legs are
// mutated exactly once, at settlement, after which the bet moves to the
// settled history.
type VirtualBet struct {
	ID             int64           `json:"id"`
	PlacedAt       time.Time       `json:"placed_at"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
	Status         BetStatus       `json:"status"`
	SportKey       string          `json:"sport_key"`
	SportTitle     string          `json:"sport_title"`
	Event          string          `json:"event"`
	Market         MarketKey       `json:"market"`
	Line           *float64        `json:"line,omitempty"`
	ExpectedROI    float64         `json:"expected_roi"`
	ExpectedProfit decimal.Decimal `json:"expected_profit"`
	TotalStake     decimal.Decimal `json:"total_stake"`
	WinningOutcome string          `json:"winning_outcome,omitempty"`
	ActualReturn   decimal.Decimal `json:"actual_return"`
	ActualProfit   decimal.Decimal `json:"actual_profit"`
	Legs           []BetLeg        `json:"legs"`
}
