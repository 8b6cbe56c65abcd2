package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betgo/internal/oddsapi"
	"github.com/alanyoungcy/betgo/internal/scanner"
)

// UsageSource reports odds API usage, typically the cached fetcher.
type UsageSource interface {
	Stats() oddsapi.FetcherStats
}

// OptimizerHandler serves credential, cache, and schedule statistics so
// operators can see how the request budget is being spent.
type OptimizerHandler struct {
	usage    UsageSource
	schedule *scanner.Schedule
	logger   *slog.Logger
}

// NewOptimizerHandler creates an OptimizerHandler.
func NewOptimizerHandler(usage UsageSource, schedule *scanner.Schedule, logger *slog.Logger) *OptimizerHandler {
	return &OptimizerHandler{usage: usage, schedule: schedule, logger: logger}
}

// Stats reports API calls vs cache hits, per-credential quota, and the
// current schedule window.
// GET /api/optimizer/stats
func (h *OptimizerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.usage.Stats()

	body := map[string]any{
		"api_calls":      stats.APICalls,
		"cache_hits":     stats.CacheHits,
		"requests_saved": stats.CacheHits,
		"credentials":    stats.Credentials,
	}

	if h.schedule != nil {
		now := time.Now()
		peakNow := h.schedule.IsOptimal("", now)
		sched := map[string]any{
			"peak_now":         peakNow,
			"window":           h.schedule.Window(now),
			"interval_seconds": int(h.schedule.Interval("", now).Seconds()),
		}
		if !peakNow {
			sched["next_peak_in_seconds"] = int(h.schedule.UntilNextPeak(now).Seconds())
		}
		body["schedule"] = sched
	}

	writeJSON(w, http.StatusOK, body)
}
