package domain

import "time"

// OutcomeStake is one leg of a hedged stake split: how much to place on one
// outcome at one bookmaker.
type OutcomeStake struct {
	Outcome        string  `json:"outcome"`
	Bookmaker      string  `json:"bookmaker"`
	BookmakerTitle string  `json:"bookmaker_title"`
	Odds           float64 `json:"odds"`
	Stake          float64 `json:"stake"`
	Payout         float64 `json:"payout"`
}

// Opportunity is one detected arbitrage: a set of mutually exclusive
// outcomes whose combined implied probability is below 100%, with the stake
// split that locks in the same payout on every outcome. Opportunities are
// produced per scan and never persisted.
type Opportunity struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Market       MarketKey      `json:"market"`
	Line         *float64       `json:"line,omitempty"`
	CommenceTime time.Time      `json:"commence_time"`
	Stakes       []OutcomeStake `json:"stakes"`
	TotalImplied float64        `json:"total_implied"`
	Investment   float64        `json:"investment"`
	Profit       float64        `json:"profit"`
	ROI          float64        `json:"roi"`
	FoundAt      time.Time      `json:"found_at"`
}

// Event renders the matchup label used in logs and notifications.
func (o Opportunity) Event() string {
	return o.HomeTeam + " vs " + o.AwayTeam
}

// TotalStake sums the per-outcome stakes.
func (o Opportunity) TotalStake() float64 {
	var total float64
	for _, s := range o.Stakes {
		total += s.Stake
	}
	return total
}
