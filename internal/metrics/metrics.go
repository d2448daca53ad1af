// Package metrics exposes Prometheus instrumentation for the scanner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the scan pipeline.
type Metrics struct {
	ScansTotal   prometheus.Counter
	ScanDuration prometheus.Histogram

	TickerFailures prometheus.Counter
	KlineFetches   *prometheus.CounterVec // labels: outcome = ok|error|short

	SignalsTotal *prometheus.CounterVec // labels: signal
	ResultsLast  prometheus.Gauge
}

// New registers and returns all scanner metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_scans_total",
			Help: "Total scan invocations",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_scan_duration_seconds",
			Help:    "Wall-clock duration of a full scan",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		TickerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_ticker_failures_total",
			Help: "Ticker snapshot fetches that returned an error or no rows",
		}),
		KlineFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_kline_fetches_total",
			Help: "Kline fetches by outcome (ok, error, short = insufficient history)",
		}, []string{"outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Signals emitted by signal name",
		}, []string{"signal"}),
		ResultsLast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_results_last",
			Help: "Result count of the most recent scan",
		}),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.TickerFailures,
		m.KlineFetches,
		m.SignalsTotal,
		m.ResultsLast,
	)
	return m
}

// NewDefault registers on the global registry (process entry point only;
// tests pass their own registry to New).
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
