// Package normalize converts heterogeneous provider odds payloads into the
// canonical game schema.
package normalize

import (
	"strconv"
	"strings"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// MarketType classifies a provider bet-type name into a canonical market
// key. Canonical keys pass through directly; anything else is matched by a
// textual heuristic on the lowercased name. Unmatched names report false and
// are dropped by callers, which is deliberate lossy behavior rather than an
// error.
func MarketType(name string) (domain.MarketKey, bool) {
	n := strings.ToLower(strings.TrimSpace(name))

	switch domain.MarketKey(n) {
	case domain.MarketH2H, domain.MarketSpreads, domain.MarketTotals:
		return domain.MarketKey(n), true
	}

	switch {
	case strings.Contains(n, "winner"), strings.Contains(n, "match"):
		return domain.MarketH2H, true
	case strings.Contains(n, "spread"), strings.Contains(n, "handicap"):
		return domain.MarketSpreads, true
	case strings.Contains(n, "total"), strings.Contains(n, "over"):
		return domain.MarketTotals, true
	}
	return "", false
}

// ParsePoint extracts the spread or total line from the trailing numeral of
// an outcome label, e.g. "Over +2.5" or "Arsenal -1.5". Labels without a
// sign anywhere carry no line. A parse failure returns nil, dropping only
// the point, never the record.
func ParsePoint(label string) *float64 {
	if !strings.ContainsAny(label, "+-") {
		return nil
	}
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// AmericanToDecimal converts American odds to decimal odds. Zero input
// yields zero, which downstream price validation rejects.
func AmericanToDecimal(odds float64) float64 {
	switch {
	case odds > 0:
		return 1 + odds/100
	case odds < 0:
		return 1 + 100/(-odds)
	default:
		return 0
	}
}
