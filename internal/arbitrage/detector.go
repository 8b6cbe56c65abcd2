// Package arbitrage implements cross-bookmaker arbitrage detection: best
// price per outcome, line grouping for spreads and totals, the implied
// probability test, and proportional stake allocation.
package arbitrage

import (
	"fmt"
	"math"
	"sort"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// quote is the best price seen for one outcome key, with the bookmaker that
// quoted it.
type quote struct {
	name      string
	point     *float64
	price     float64
	bookKey   string
	bookTitle string
}

// bestOdds holds best quotes per outcome key in first-seen order, so later
// steps stay deterministic.
type bestOdds struct {
	order  []string
	quotes map[string]quote
}

func newBestOdds() *bestOdds {
	return &bestOdds{quotes: make(map[string]quote)}
}

func (b *bestOdds) add(key string, q quote) {
	cur, ok := b.quotes[key]
	if !ok {
		b.order = append(b.order, key)
		b.quotes[key] = q
		return
	}
	// Strictly greater replaces; a tie keeps the first bookmaker seen.
	if q.price > cur.price {
		b.quotes[key] = q
	}
}

// outcomeKey builds the aggregation key: the plain name for h2h, the name
// plus signed point for spreads and totals.
func outcomeKey(market domain.MarketKey, name string, point *float64) string {
	if market == domain.MarketH2H {
		return name
	}
	return fmt.Sprintf("%s %+g", name, *point)
}

// findBestOdds aggregates the highest price per outcome key across every
// bookmaker quoting the given market. Outcomes with a non-positive price
// are excluded here so no later step divides by zero. Spread and total
// outcomes without a point are skipped.
func findBestOdds(game domain.Game, market domain.MarketKey) *bestOdds {
	best := newBestOdds()

	for _, bk := range game.Bookmakers {
		for _, m := range bk.Markets {
			if m.Key != market {
				continue
			}
			for _, o := range m.Outcomes {
				if o.Price <= 0 {
					continue
				}
				if market != domain.MarketH2H && o.Point == nil {
					continue
				}
				best.add(outcomeKey(market, o.Name, o.Point), quote{
					name:      o.Name,
					point:     o.Point,
					price:     o.Price,
					bookKey:   bk.Key,
					bookTitle: bk.Title,
				})
			}
		}
	}

	return best
}

// lineGroup is a two-sided market candidate: all outcome keys sharing one
// absolute point value.
type lineGroup struct {
	line float64
	odds *bestOdds
}

// groupByLine splits spread/total quotes by absolute point value so that
// opposite-signed labels at the same line, such as "Over +2.5" and
// "Under -2.5", form one market. Groups come back sorted by line so scan
// output is deterministic.
func groupByLine(best *bestOdds) []lineGroup {
	byLine := make(map[float64]*bestOdds)
	for _, key := range best.order {
		q := best.quotes[key]
		if q.point == nil {
			continue
		}
		line := math.Abs(*q.point)
		g, ok := byLine[line]
		if !ok {
			g = newBestOdds()
			byLine[line] = g
		}
		g.add(key, q)
	}

	groups := make([]lineGroup, 0, len(byLine))
	for line, odds := range byLine {
		groups = append(groups, lineGroup{line: line, odds: odds})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].line < groups[j].line })
	return groups
}

// arbResult is the outcome of the arbitrage test over one outcome set.
type arbResult struct {
	totalImplied float64
	stakes       []domain.OutcomeStake
	profit       float64
	roi          float64
}

// calculate runs the arbitrage test over one grouped outcome set. An
// opportunity exists iff the implied probabilities sum strictly below 1.0;
// the stake split then guarantees the same payout on every outcome:
//
//	stake_i = investment * p_i / T    payout_i = investment / T
//
// Stakes and profit are rounded to 2 decimals for display after full
// precision computation. Sets with fewer than two outcomes never qualify.
func calculate(best *bestOdds, investment float64) (arbResult, bool) {
	if len(best.order) < 2 {
		return arbResult{}, false
	}

	var total float64
	for _, key := range best.order {
		total += 1 / best.quotes[key].price
	}
	if total >= 1.0 {
		return arbResult{}, false
	}

	payout := investment / total
	res := arbResult{
		totalImplied: total,
		profit:       round2(payout - investment),
		roi:          round2(100 * (1/total - 1)),
		stakes:       make([]domain.OutcomeStake, 0, len(best.order)),
	}
	for _, key := range best.order {
		q := best.quotes[key]
		prob := 1 / q.price
		res.stakes = append(res.stakes, domain.OutcomeStake{
			Outcome:        key,
			Bookmaker:      q.bookKey,
			BookmakerTitle: q.bookTitle,
			Odds:           q.price,
			Stake:          round2(investment * prob / total),
			Payout:         round2(payout),
		})
	}
	return res, true
}

// DetectGame finds every arbitrage opportunity in one game for one market
// type. For h2h the whole outcome set is tested at once; for spreads and
// totals each absolute line is tested separately. Returned opportunities
// are unfiltered and unranked; the scanner applies the ROI threshold and
// global ordering.
func DetectGame(game domain.Game, market domain.MarketKey, investment float64) []domain.Opportunity {
	best := findBestOdds(game, market)
	if len(best.order) < 2 {
		return nil
	}

	var opps []domain.Opportunity
	appendOpp := func(res arbResult, line *float64) {
		opps = append(opps, domain.Opportunity{
			SportKey:     game.SportKey,
			SportTitle:   game.SportTitle,
			HomeTeam:     game.HomeTeam,
			AwayTeam:     game.AwayTeam,
			Market:       market,
			Line:         line,
			CommenceTime: game.CommenceTime,
			Stakes:       res.stakes,
			TotalImplied: res.totalImplied,
			Investment:   investment,
			Profit:       res.profit,
			ROI:          res.roi,
		})
	}

	if market == domain.MarketH2H {
		if res, ok := calculate(best, investment); ok {
			appendOpp(res, nil)
		}
		return opps
	}

	for _, g := range groupByLine(best) {
		if len(g.odds.order) < 2 {
			continue
		}
		if res, ok := calculate(g.odds, investment); ok {
			line := g.line
			appendOpp(res, &line)
		}
	}
	return opps
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
