// Package export renders ledger data into portable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alanyoungcy/betgo/internal/domain"
)

var csvHeader = []string{
	"ID", "Placed At", "Status", "Event", "Sport", "Market",
	"Expected ROI", "Expected Profit", "Total Stake",
	"Actual Return", "Actual Profit", "Winning Outcome",
}

// WriteBetsCSV writes the bet history as CSV. Settlement columns stay
// empty for pending bets.
func WriteBetsCSV(w io.Writer, bets []domain.VirtualBet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}

	for _, bet := range bets {
		row := []string{
			strconv.FormatInt(bet.ID, 10),
			bet.PlacedAt.UTC().Format(time.RFC3339),
			string(bet.Status),
			bet.Event,
			bet.SportTitle,
			string(bet.Market),
			strconv.FormatFloat(bet.ExpectedROI, 'f', -1, 64),
			bet.ExpectedProfit.String(),
			bet.TotalStake.String(),
			"", "", "",
		}
		if bet.Status == domain.BetSettled {
			row[9] = bet.ActualReturn.String()
			row[10] = bet.ActualProfit.String()
			row[11] = bet.WinningOutcome
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}
