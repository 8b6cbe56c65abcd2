package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
)

func newStore(t *testing.T) *LedgerStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim", "ledger.json")
	return NewLedgerStore(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadMissingFile(t *testing.T) {
	s := newStore(t)

	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	doc := domain.NewLedgerDocument(decimal.NewFromInt(1000), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	doc.NextBetID = 4
	doc.Bets = append(doc.Bets, domain.VirtualBet{
		ID:         3,
		PlacedAt:   time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
		Status:     domain.BetPending,
		Event:      "Arsenal vs Chelsea",
		Market:     domain.MarketH2H,
		TotalStake: decimal.NewFromInt(500),
		Legs: []domain.BetLeg{{
			Outcome:         "Home",
			Bookmaker:       "pinnacle",
			Odds:            2.2,
			Stake:           decimal.NewFromInt(250),
			PotentialReturn: decimal.NewFromInt(550),
			Status:          domain.LegPending,
			Result:          decimal.Zero,
		}},
	})

	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.NextBetID != 4 {
		t.Errorf("next id = %d, want 4", got.NextBetID)
	}
	if len(got.Bets) != 1 || got.Bets[0].Event != "Arsenal vs Chelsea" {
		t.Errorf("bets = %+v", got.Bets)
	}
	if !got.Bets[0].TotalStake.Equal(decimal.NewFromInt(500)) {
		t.Errorf("total stake = %s, want 500", got.Bets[0].TotalStake)
	}
	if !got.Bankroll.Total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("bankroll total = %s, want 1000", got.Bankroll.Total)
	}
}

func TestCorruptFileTreatedAsMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for corrupt file", err)
	}

	// A save then recovers the file.
	doc := domain.NewLedgerDocument(decimal.NewFromInt(1000), time.Now())
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save after corruption: %v", err)
	}
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("load after recovery: %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := domain.NewLedgerDocument(decimal.NewFromInt(1000), time.Now())
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := domain.NewLedgerDocument(decimal.NewFromInt(2500), time.Now())
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Bankroll.Total.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("total = %s, want the second document", got.Bankroll.Total)
	}
}
