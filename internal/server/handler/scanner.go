package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betgo/internal/scanner"
)

// ScannerLoop defines the control surface the handler requires from the
// background auto scanner.
type ScannerLoop interface {
	Start(ctx context.Context) error
	Stop() error
	Status() scanner.Status
}

// ScannerHandler serves the auto-scanner control endpoints.
type ScannerHandler struct {
	loop   ScannerLoop
	logger *slog.Logger
}

// NewScannerHandler creates a ScannerHandler with the given loop and logger.
func NewScannerHandler(loop ScannerLoop, logger *slog.Logger) *ScannerHandler {
	return &ScannerHandler{loop: loop, logger: logger}
}

// Start launches the background scan loop. The loop outlives the request;
// it stops via the stop endpoint or process shutdown.
// POST /api/scanner/start
func (h *ScannerHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.loop.Start(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, scanner.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "scanner already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: scanner start failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to start scanner")
		return
	}

	writeJSON(w, http.StatusOK, h.loop.Status())
}

// Stop halts the background scan loop and waits for the current cycle to
// finish.
// POST /api/scanner/stop
func (h *ScannerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.loop.Stop(); err != nil {
		if errors.Is(err, scanner.ErrNotRunning) {
			writeError(w, http.StatusConflict, "scanner not running")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: scanner stop failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to stop scanner")
		return
	}

	writeJSON(w, http.StatusOK, h.loop.Status())
}

// Status reports the loop phase, schedule window, and cumulative counters.
// GET /api/scanner/status
func (h *ScannerHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loop.Status())
}
