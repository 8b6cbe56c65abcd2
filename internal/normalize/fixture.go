package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fixture is the fixture-and-bets payload shape used by API-Sports style
// providers, where markets are free-text bet names and odds are quoted as
// strings.
type Fixture struct {
	Fixture struct {
		ID   int64     `json:"id"`
		Date time.Time `json:"date"`
	} `json:"fixture"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Bookmakers []FixtureBookmaker `json:"bookmakers"`
}

// FixtureBookmaker is one bookmaker's bet blocks for a fixture.
type FixtureBookmaker struct {
	Name string       `json:"name"`
	Bets []FixtureBet `json:"bets"`
}

// FixtureBet is one named bet type with its priced selections.
type FixtureBet struct {
	Name   string            `json:"name"`
	Values []FixtureBetValue `json:"values"`
}

// FixtureBetValue is one priced selection.
type FixtureBetValue struct {
	Value string      `json:"value"`
	Odd   json.Number `json:"odd"`
}

var titleCaser = cases.Title(language.English)

// FromFixture converts one fixture into the canonical game schema. Bet
// names are classified with MarketType; unclassifiable bets are dropped.
// Lines are recovered from selection labels with ParsePoint.
func FromFixture(f Fixture, sportKey string) domain.Game {
	game := domain.Game{
		ID:           strconv.FormatInt(f.Fixture.ID, 10),
		SportKey:     sportKey,
		SportTitle:   titleCaser.String(strings.ReplaceAll(sportKey, "_", " ")),
		HomeTeam:     f.Teams.Home.Name,
		AwayTeam:     f.Teams.Away.Name,
		CommenceTime: f.Fixture.Date.UTC(),
	}

	for _, bk := range f.Bookmakers {
		book := domain.BookmakerOdds{
			Key:   strings.ReplaceAll(strings.ToLower(bk.Name), " ", ""),
			Title: bk.Name,
		}
		for _, bet := range bk.Bets {
			key, ok := MarketType(bet.Name)
			if !ok {
				continue
			}
			market := domain.MarketOdds{Key: key}
			for _, v := range bet.Values {
				price, err := v.Odd.Float64()
				if err != nil {
					continue
				}
				out := domain.Outcome{Name: v.Value, Price: price}
				if key != domain.MarketH2H {
					out.Point = ParsePoint(v.Value)
				}
				market.Outcomes = append(market.Outcomes, out)
			}
			if len(market.Outcomes) > 0 {
				book.Markets = append(book.Markets, market)
			}
		}
		if len(book.Markets) > 0 {
			game.Bookmakers = append(game.Bookmakers, book)
		}
	}

	return game
}
