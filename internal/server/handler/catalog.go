package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betgo/internal/domain"
)

// SportSource lists the active sport catalog, typically the cached fetcher.
type SportSource interface {
	ActiveSports(ctx context.Context) ([]domain.Sport, error)
}

// CatalogHandler serves the sport, bookmaker, and market catalogs used to
// populate dashboard filters.
type CatalogHandler struct {
	sports SportSource
	logger *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler with the given source and
// logger.
func NewCatalogHandler(sports SportSource, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{sports: sports, logger: logger}
}

// ListSports returns the in-season sports from the odds provider.
// GET /api/sports
func (h *CatalogHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.sports.ActiveSports(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			writeError(w, http.StatusServiceUnavailable, "all odds API credentials exhausted")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: list sports failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list sports")
		return
	}
	if sports == nil {
		sports = []domain.Sport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sports": sports})
}

// ListBookmakers returns the configured bookmaker catalog.
// GET /api/bookmakers
func (h *CatalogHandler) ListBookmakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bookmakers": domain.KnownBookmakers})
}

// ListMarkets returns the supported market types.
// GET /api/markets
func (h *CatalogHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"markets": domain.KnownMarkets})
}
