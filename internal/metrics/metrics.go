// Package metrics exposes Prometheus metrics for scanning, upstream usage,
// caching, and the simulation ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the scanner's Prometheus metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	OpportunitiesFound prometheus.Counter

	APICalls        *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	CredentialRemaining *prometheus.GaugeVec

	BetsPlaced  prometheus.Counter
	BetsSettled *prometheus.CounterVec

	BankrollAvailable prometheus.Gauge
	BankrollInPlay    prometheus.Gauge
}

// New creates a Metrics collector with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_scans_total",
				Help: "Total number of scan cycles",
			},
			[]string{"status"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "betgo_scan_duration_seconds",
				Help:    "Duration of one full scan cycle",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		OpportunitiesFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "betgo_opportunities_found_total",
				Help: "Total number of arbitrage opportunities detected",
			},
		),

		APICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_api_calls_total",
				Help: "Total upstream odds API calls",
			},
			[]string{"endpoint"},
		),
		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_upstream_errors_total",
				Help: "Total failed upstream odds API calls",
			},
			[]string{"endpoint"},
		),
		UpstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betgo_upstream_latency_seconds",
				Help:    "Upstream odds API call latency",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"endpoint"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_cache_hits_total",
				Help: "Quote cache hits",
			},
			[]string{"class"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_cache_misses_total",
				Help: "Quote cache misses",
			},
			[]string{"class"},
		),

		CredentialRemaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betgo_credential_remaining_quota",
				Help: "Remaining quota last reported per credential",
			},
			[]string{"key"},
		),

		BetsPlaced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "betgo_bets_placed_total",
				Help: "Total virtual bets placed",
			},
		),
		BetsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betgo_bets_settled_total",
				Help: "Total virtual bets settled",
			},
			[]string{"result"},
		),

		BankrollAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betgo_bankroll_available",
				Help: "Available virtual bankroll",
			},
		),
		BankrollInPlay: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betgo_bankroll_in_play",
				Help: "Virtual bankroll locked in pending bets",
			},
		),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.OpportunitiesFound,
		m.APICalls,
		m.UpstreamErrors,
		m.UpstreamLatency,
		m.CacheHits,
		m.CacheMisses,
		m.CredentialRemaining,
		m.BetsPlaced,
		m.BetsSettled,
		m.BankrollAvailable,
		m.BankrollInPlay,
	)

	return m
}

// Registry returns the prometheus registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordScan records one scan cycle.
func (m *Metrics) RecordScan(status string, seconds float64, found int) {
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(seconds)
	if found > 0 {
		m.OpportunitiesFound.Add(float64(found))
	}
}

// RecordAPICall records one upstream request.
func (m *Metrics) RecordAPICall(endpoint string, seconds float64, failed bool) {
	m.APICalls.WithLabelValues(endpoint).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(seconds)
	if failed {
		m.UpstreamErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordCache records a cache lookup result for a TTL class.
func (m *Metrics) RecordCache(class string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(class).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(class).Inc()
}

// SetCredentialRemaining updates the remaining-quota gauge for a masked key.
func (m *Metrics) SetCredentialRemaining(maskedKey string, remaining int) {
	m.CredentialRemaining.WithLabelValues(maskedKey).Set(float64(remaining))
}

// RecordSettlement records a settled bet outcome.
func (m *Metrics) RecordSettlement(won bool) {
	if won {
		m.BetsSettled.WithLabelValues("won").Inc()
		return
	}
	m.BetsSettled.WithLabelValues("lost").Inc()
}

// UpdateBankroll updates the bankroll gauges.
func (m *Metrics) UpdateBankroll(available, inPlay float64) {
	m.BankrollAvailable.Set(available)
	m.BankrollInPlay.Set(inPlay)
}
