package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betgo/internal/domain"
	"github.com/alanyoungcy/betgo/internal/export"
	"github.com/alanyoungcy/betgo/internal/ledger"
)

// LedgerService defines the methods the simulation handler requires from
// the ledger.
type LedgerService interface {
	Place(ctx context.Context, opp domain.Opportunity, investment float64) (domain.VirtualBet, error)
	Settle(ctx context.Context, id int64, winningOutcome string) (domain.VirtualBet, error)
	Stats(ctx context.Context) (ledger.StatsSnapshot, error)
	Pending(ctx context.Context) ([]domain.VirtualBet, error)
	History(ctx context.Context, limit int) ([]domain.VirtualBet, error)
	All(ctx context.Context) ([]domain.VirtualBet, error)
	Reset(ctx context.Context, starting decimal.Decimal) (ledger.StatsSnapshot, error)
	Analytics(ctx context.Context) (ledger.Analytics, error)
}

// BetArchiver uploads a CSV export to object storage.
type BetArchiver interface {
	ArchiveBets(ctx context.Context, bets []domain.VirtualBet) (string, error)
}

// SimulationHandler serves the paper-trading ledger endpoints.
type SimulationHandler struct {
	ledger   LedgerService
	archiver BetArchiver // optional; enables ?archive=1 on export
	logger   *slog.Logger
}

// NewSimulationHandler creates a SimulationHandler with the given service
// and logger.
func NewSimulationHandler(svc LedgerService, logger *slog.Logger) *SimulationHandler {
	return &SimulationHandler{ledger: svc, logger: logger}
}

// WithArchiver enables S3 archival on the export endpoint.
func (h *SimulationHandler) WithArchiver(a BetArchiver) *SimulationHandler {
	h.archiver = a
	return h
}

// placeRequest is the JSON body for POST /api/simulation/place.
type placeRequest struct {
	Opportunity domain.Opportunity `json:"opportunity"`
	Investment  float64            `json:"investment"`
}

// Place opens a virtual bet from a detected opportunity.
// POST /api/simulation/place
func (h *SimulationHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	bet, err := h.ledger.Place(r.Context(), req.Opportunity, req.Investment)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBankroll) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: place bet failed",
			slog.String("opportunity_id", req.Opportunity.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to place bet")
		return
	}

	writeJSON(w, http.StatusCreated, bet)
}

// settleRequest is the JSON body for POST /api/simulation/settle.
type settleRequest struct {
	BetID          int64  `json:"bet_id"`
	WinningOutcome string `json:"winning_outcome"`
}

// Settle closes a pending bet against the actual winning outcome.
// POST /api/simulation/settle
func (h *SimulationHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BetID <= 0 {
		writeError(w, http.StatusBadRequest, "bet_id is required")
		return
	}
	if req.WinningOutcome == "" {
		writeError(w, http.StatusBadRequest, "winning_outcome is required")
		return
	}

	bet, err := h.ledger.Settle(r.Context(), req.BetID, req.WinningOutcome)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bet not found")
			return
		}
		if errors.Is(err, domain.ErrAlreadySettled) {
			writeError(w, http.StatusConflict, "bet already settled")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: settle bet failed",
			slog.Int64("bet_id", req.BetID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to settle bet")
		return
	}

	writeJSON(w, http.StatusOK, bet)
}

// Stats returns the bankroll and lifetime statistics snapshot.
// GET /api/simulation/stats
func (h *SimulationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.ledger.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: simulation stats failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// betsResponse wraps bet list responses.
type betsResponse struct {
	Bets []domain.VirtualBet `json:"bets"`
}

// Pending returns all open bets.
// GET /api/simulation/pending
func (h *SimulationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	bets, err := h.ledger.Pending(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: pending bets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load pending bets")
		return
	}
	if bets == nil {
		bets = []domain.VirtualBet{}
	}
	writeJSON(w, http.StatusOK, betsResponse{Bets: bets})
}

// History returns settled bets, most recent first.
// GET /api/simulation/history?limit=50
func (h *SimulationHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", ledger.DefaultHistoryLimit, 500)

	bets, err := h.ledger.History(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: bet history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load bet history")
		return
	}
	if bets == nil {
		bets = []domain.VirtualBet{}
	}
	writeJSON(w, http.StatusOK, betsResponse{Bets: bets})
}

// Analytics returns settled-bet breakdowns by sport, market, and ROI band.
// GET /api/simulation/analytics
func (h *SimulationHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.Analytics(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: simulation analytics failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// resetRequest is the JSON body for POST /api/simulation/reset.
type resetRequest struct {
	StartingBankroll float64 `json:"starting_bankroll"`
}

// Reset discards the ledger and starts over with a fresh bankroll.
// POST /api/simulation/reset
func (h *SimulationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	starting := ledger.DefaultStartingBankroll
	if req.StartingBankroll > 0 {
		starting = decimal.NewFromFloat(req.StartingBankroll)
	}

	snap, err := h.ledger.Reset(r.Context(), starting)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: simulation reset failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reset simulation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("simulation reset with %s bankroll", starting.StringFixed(2)),
		"snapshot": snap,
	})
}

// Export streams every bet as a CSV download. With ?archive=1 and a
// configured archiver, the same file is uploaded to object storage and the
// object key is returned in the X-Archive-Key header.
// GET /api/simulation/export
func (h *SimulationHandler) Export(w http.ResponseWriter, r *http.Request) {
	bets, err := h.ledger.All(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: simulation export failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to export bets")
		return
	}

	if r.URL.Query().Get("archive") == "1" && h.archiver != nil {
		key, err := h.archiver.ArchiveBets(r.Context(), bets)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "handler: export archive failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "failed to archive export")
			return
		}
		w.Header().Set("X-Archive-Key", key)
	}

	filename := fmt.Sprintf("betgo-bets-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	if err := export.WriteBetsCSV(w, bets); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: csv stream failed",
			slog.String("error", err.Error()),
		)
	}
}
