package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	"github.com/alanyoungcy/betgo/internal/domain"
)

// ScanService runs one on-demand scan pass.
type ScanService interface {
	Scan(ctx context.Context, opts arbitrage.ScanOptions) (arbitrage.Result, error)
}

// ScanHandler serves the on-demand arbitrage scan endpoint.
type ScanHandler struct {
	scanner ScanService
	logger  *slog.Logger
}

// NewScanHandler creates a ScanHandler with the given scanner and logger.
func NewScanHandler(scanner ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scanner: scanner, logger: logger}
}

// scanRequest is the JSON body for POST /api/scan. MinROI is a pointer so
// an explicit zero disables the filter while an absent field keeps the
// default.
type scanRequest struct {
	Sports     []string           `json:"sports"`
	Markets    []domain.MarketKey `json:"markets"`
	Bookmakers []string           `json:"bookmakers"`
	MinROI     *float64           `json:"min_roi"`
	Investment float64            `json:"investment"`
	MaxHours   float64            `json:"max_hours"`
	LiveOnly   bool               `json:"live_only"`
}

// scanResponse wraps the scan result with a convenience count.
type scanResponse struct {
	arbitrage.Result
	Count int `json:"count"`
}

// Scan runs a single scan pass with the requested filters and returns the
// ranked opportunities. An empty body scans the default sports on h2h.
// POST /api/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := arbitrage.ScanOptions{
		Sports:     req.Sports,
		Markets:    req.Markets,
		Bookmakers: req.Bookmakers,
		MinROI:     arbitrage.DefaultMinROI,
		Investment: req.Investment,
		MaxHours:   req.MaxHours,
		LiveOnly:   req.LiveOnly,
	}
	if req.MinROI != nil {
		opts.MinROI = *req.MinROI
	}

	res, err := h.scanner.Scan(r.Context(), opts)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			writeError(w, http.StatusServiceUnavailable, "all odds API credentials exhausted")
			return
		}
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.ErrorContext(r.Context(), "handler: scan upstream failure",
				slog.Int("status", upstream.Status),
				slog.String("error", upstream.Error()),
			)
			writeError(w, http.StatusBadGateway, "odds provider unavailable")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: scan failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Result: res,
		Count:  len(res.Opportunities),
	})
}
