package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// ROI bucket labels, keyed on the bet's expected ROI at placement.
var roiBuckets = []string{"0-1%", "1-2%", "2-5%", "5%+"}

// GroupStats aggregates settled bets sharing a sport or market.
type GroupStats struct {
	Bets   int             `json:"bets"`
	Profit decimal.Decimal `json:"profit"`
	Staked decimal.Decimal `json:"staked"`
	ROI    float64         `json:"roi"`
}

// BucketStats aggregates settled bets inside one expected-ROI bucket.
type BucketStats struct {
	Bets   int             `json:"bets"`
	Profit decimal.Decimal `json:"profit"`
	Wins   int             `json:"wins"`
}

// Analytics is the strategy-evaluation roll-up over settled bets.
type Analytics struct {
	TotalSettled int                    `json:"total_settled"`
	BySport      map[string]GroupStats  `json:"by_sport"`
	ByMarket     map[string]GroupStats  `json:"by_market"`
	ByROIRange   map[string]BucketStats `json:"by_roi_range"`
	Statistics   domain.LedgerStats     `json:"statistics"`
	Bankroll     domain.Bankroll        `json:"bankroll"`
}

// Analytics computes roll-ups by sport, by market and by expected-ROI
// bucket across settled bets only. Pending bets contribute nothing until
// they settle.
func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return Analytics{}, err
	}

	out := Analytics{
		TotalSettled: len(doc.SettledBets),
		BySport:      make(map[string]GroupStats),
		ByMarket:     make(map[string]GroupStats),
		ByROIRange:   make(map[string]BucketStats, len(roiBuckets)),
		Statistics:   doc.Stats,
		Bankroll:     doc.Bankroll,
	}
	for _, b := range roiBuckets {
		out.ByROIRange[b] = BucketStats{Profit: decimal.Zero}
	}

	for _, bet := range doc.SettledBets {
		sport := bet.SportTitle
		if sport == "" {
			sport = "Unknown"
		}
		g := groupOrZero(out.BySport, sport)
		g.Bets++
		g.Profit = g.Profit.Add(bet.ActualProfit)
		g.Staked = g.Staked.Add(bet.TotalStake)
		out.BySport[sport] = g

		market := string(bet.Market)
		if market == "" {
			market = "Unknown"
		}
		m := groupOrZero(out.ByMarket, market)
		m.Bets++
		m.Profit = m.Profit.Add(bet.ActualProfit)
		m.Staked = m.Staked.Add(bet.TotalStake)
		out.ByMarket[market] = m

		bucket := bucketFor(bet.ExpectedROI)
		bs := out.ByROIRange[bucket]
		bs.Bets++
		bs.Profit = bs.Profit.Add(bet.ActualProfit)
		if bet.ActualProfit.GreaterThan(decimal.Zero) {
			bs.Wins++
		}
		out.ByROIRange[bucket] = bs
	}

	for key, g := range out.BySport {
		out.BySport[key] = withGroupROI(g)
	}
	for key, g := range out.ByMarket {
		out.ByMarket[key] = withGroupROI(g)
	}
	return out, nil
}

func groupOrZero(m map[string]GroupStats, key string) GroupStats {
	if g, ok := m[key]; ok {
		return g
	}
	return GroupStats{Profit: decimal.Zero, Staked: decimal.Zero}
}

func withGroupROI(g GroupStats) GroupStats {
	if g.Staked.IsPositive() {
		g.ROI = g.Profit.Div(g.Staked).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return g
}

func bucketFor(roi float64) string {
	switch {
	case roi < 1:
		return roiBuckets[0]
	case roi < 2:
		return roiBuckets[1]
	case roi < 5:
		return roiBuckets[2]
	default:
		return roiBuckets[3]
	}
}
