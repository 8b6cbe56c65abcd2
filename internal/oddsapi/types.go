package oddsapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/normalize"
)

// APISport is one sport entry as returned by /v4/sports.
type APISport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// APIOutcome is one priced outcome inside a market.
type APIOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// APIMarket is one market quoted by a bookmaker.
type APIMarket struct {
	Key      string       `json:"key"`
	Outcomes []APIOutcome `json:"outcomes"`
}

// APIBookmaker is one bookmaker's quote block for an event.
type APIBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []APIMarket `json:"markets"`
}

// APIEvent is one event as returned by /v4/sports/{sport}/odds.
type APIEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	CommenceTime time.Time      `json:"commence_time"`
	Bookmakers   []APIBookmaker `json:"bookmakers"`
}

// ToDomain converts the wire event into the canonical game schema. Markets
// that do not classify as h2h, spreads, or totals are dropped. A missing
// point on a spreads or totals outcome is recovered from the outcome label
// when possible; an unparseable label drops only the point.
func (e APIEvent) ToDomain() domain.Game {
	game := domain.Game{
		ID:           e.ID,
		SportKey:     e.SportKey,
		SportTitle:   e.SportTitle,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		CommenceTime: e.CommenceTime.UTC(),
	}

	for _, bk := range e.Bookmakers {
		book := domain.BookmakerOdds{
			Key:        bk.Key,
			Title:      bk.Title,
			LastUpdate: bk.LastUpdate.UTC(),
		}
		for _, m := range bk.Markets {
			key, ok := normalize.MarketType(m.Key)
			if !ok {
				continue
			}
			market := domain.MarketOdds{Key: key}
			for _, o := range m.Outcomes {
				out := domain.Outcome{
					Name:  o.Name,
					Price: o.Price,
					Point: o.Point,
				}
				if out.Point == nil && key != domain.MarketH2H {
					out.Point = normalize.ParsePoint(o.Name)
				}
				market.Outcomes = append(market.Outcomes, out)
			}
			book.Markets = append(book.Markets, market)
		}
		if len(book.Markets) > 0 {
			game.Bookmakers = append(game.Bookmakers, book)
		}
	}

	return game
}

// ParseSports decodes a /v4/sports payload into the canonical catalog,
// keeping only active sports.
func ParseSports(payload []byte) ([]domain.Sport, error) {
	var apiSports []APISport
	if err := json.Unmarshal(payload, &apiSports); err != nil {
		return nil, fmt.Errorf("oddsapi: decode sports: %w", err)
	}

	sports := make([]domain.Sport, 0, len(apiSports))
	for _, s := range apiSports {
		if !s.Active {
			continue
		}
		sports = append(sports, domain.Sport{
			Key:          s.Key,
			Group:        s.Group,
			Title:        s.Title,
			Active:       s.Active,
			HasOutrights: s.HasOutrights,
		})
	}
	return sports, nil
}

// ParseGames decodes a /v4/sports/{sport}/odds payload into canonical games.
func ParseGames(payload []byte) ([]domain.Game, error) {
	var events []APIEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode odds: %w", err)
	}

	games := make([]domain.Game, 0, len(events))
	for _, e := range events {
		games = append(games, e.ToDomain())
	}
	return games, nil
}
