package domain

import "time"

// MarketKey identifies a betting market type.
type MarketKey string

const (
	MarketH2H     MarketKey = "h2h"
	MarketSpreads MarketKey = "spreads"
	MarketTotals  MarketKey = "totals"
)

// Sport is one entry from the provider's sport catalog.
type Sport struct {
	Key          string
	Group        string
	Title        string
	Active       bool
	HasOutrights bool
}

// Outcome is a single priced outcome quoted by a bookmaker.
// Price is decimal odds. Point carries the spread or total line and is nil
// for h2h outcomes.
type Outcome struct {
	Name  string
	Price float64
	Point *float64
}

// MarketOdds groups one bookmaker's outcomes for a single market type.
type MarketOdds struct {
	Key      MarketKey
	Outcomes []Outcome
}

// BookmakerOdds carries one bookmaker's quoted markets for a game.
type BookmakerOdds struct {
	Key        string
	Title      string
	LastUpdate time.Time
	Markets    []MarketOdds
}

// Game is the canonical representation of one event with all bookmaker
// quotes attached. Provider payloads are normalized into this shape before
// detection runs.
type Game struct {
	ID           string
	SportKey     string
	SportTitle   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Bookmakers   []BookmakerOdds
}

// Live reports whether the game has already started at the given instant.
func (g Game) Live(now time.Time) bool {
	return !g.CommenceTime.After(now)
}
