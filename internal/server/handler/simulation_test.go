package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/ledger"
)

// fakeLedger returns canned values and records the last call arguments.
type fakeLedger struct {
	placed     domain.VirtualBet
	placeErr   error
	settled    domain.VirtualBet
	settleErr  error
	settleID   int64
	settleWith string
	bets       []domain.VirtualBet
	historyLim int
}

func (f *fakeLedger) Place(ctx context.Context, opp domain.Opportunity, investment float64) (domain.VirtualBet, error) {
	return f.placed, f.placeErr
}

func (f *fakeLedger) Settle(ctx context.Context, id int64, winningOutcome string) (domain.VirtualBet, error) {
	f.settleID = id
	f.settleWith = winningOutcome
	return f.settled, f.settleErr
}

func (f *fakeLedger) Stats(ctx context.Context) (ledger.StatsSnapshot, error) {
	return ledger.StatsSnapshot{}, nil
}

func (f *fakeLedger) Pending(ctx context.Context) ([]domain.VirtualBet, error) {
	return f.bets, nil
}

func (f *fakeLedger) History(ctx context.Context, limit int) ([]domain.VirtualBet, error) {
	f.historyLim = limit
	return f.bets, nil
}

func (f *fakeLedger) All(ctx context.Context) ([]domain.VirtualBet, error) {
	return f.bets, nil
}

func (f *fakeLedger) Reset(ctx context.Context, starting decimal.Decimal) (ledger.StatsSnapshot, error) {
	return ledger.StatsSnapshot{}, nil
}

func (f *fakeLedger) Analytics(ctx context.Context) (ledger.Analytics, error) {
	return ledger.Analytics{}, nil
}

type fakeArchiver struct {
	key string
	err error
}

func (f *fakeArchiver) ArchiveBets(ctx context.Context, bets []domain.VirtualBet) (string, error) {
	return f.key, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlaceInsufficientBankroll(t *testing.T) {
	svc := &fakeLedger{placeErr: fmt.Errorf("ledger: need 500, have 100: %w", domain.ErrInsufficientBankroll)}
	h := NewSimulationHandler(svc, discardLogger())

	body := `{"opportunity":{"id":"opp-1"},"investment":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/simulation/place", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient bankroll") {
		t.Errorf("body missing reason: %s", rec.Body.String())
	}
}

func TestPlaceCreated(t *testing.T) {
	svc := &fakeLedger{placed: domain.VirtualBet{ID: 7, Status: domain.BetPending}}
	h := NewSimulationHandler(svc, discardLogger())

	body := `{"opportunity":{"id":"opp-1"},"investment":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/simulation/place", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var bet domain.VirtualBet
	if err := json.Unmarshal(rec.Body.Bytes(), &bet); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bet.ID != 7 {
		t.Errorf("bet id = %d, want 7", bet.ID)
	}
}

func TestSettleStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"already settled", domain.ErrAlreadySettled, http.StatusConflict},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLedger{settleErr: tt.err}
			h := NewSimulationHandler(svc, discardLogger())

			body := `{"bet_id":3,"winning_outcome":"Arsenal"}`
			req := httptest.NewRequest(http.MethodPost, "/api/simulation/settle", strings.NewReader(body))
			rec := httptest.NewRecorder()

			h.Settle(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if svc.settleID != 3 || svc.settleWith != "Arsenal" {
				t.Errorf("service got (%d, %q)", svc.settleID, svc.settleWith)
			}
		})
	}
}

func TestSettleValidatesBody(t *testing.T) {
	h := NewSimulationHandler(&fakeLedger{}, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/simulation/settle", strings.NewReader(`{"bet_id":0}`))
	rec := httptest.NewRecorder()

	h.Settle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPendingEmptyListNotNull(t *testing.T) {
	h := NewSimulationHandler(&fakeLedger{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/simulation/pending", nil)
	rec := httptest.NewRecorder()

	h.Pending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"bets":[]`) {
		t.Errorf("empty list should encode as [], got %s", rec.Body.String())
	}
}

func TestHistoryLimitClamped(t *testing.T) {
	svc := &fakeLedger{}
	h := NewSimulationHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/simulation/history?limit=9999", nil)
	rec := httptest.NewRecorder()

	h.History(rec, req)

	if svc.historyLim != 500 {
		t.Errorf("limit = %d, want clamp to 500", svc.historyLim)
	}
}

func TestExportCSVDownload(t *testing.T) {
	svc := &fakeLedger{bets: []domain.VirtualBet{{
		ID:         1,
		PlacedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:     domain.BetPending,
		Event:      "Arsenal vs Chelsea",
		TotalStake: decimal.NewFromInt(100),
	}}}
	h := NewSimulationHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/simulation/export", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "betgo-bets-") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Arsenal vs Chelsea") {
		t.Errorf("csv missing bet row:\n%s", rec.Body.String())
	}
}

func TestExportWithArchive(t *testing.T) {
	h := NewSimulationHandler(&fakeLedger{}, discardLogger()).
		WithArchiver(&fakeArchiver{key: "exports/betgo-2025-03-01.csv"})

	req := httptest.NewRequest(http.MethodGet, "/api/simulation/export?archive=1", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Archive-Key"); got != "exports/betgo-2025-03-01.csv" {
		t.Errorf("archive key header = %q", got)
	}
}
