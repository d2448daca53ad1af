// Package scan runs the concurrent market scan: fan out one analysis unit
// per symbol (and timeframe), fan the qualifying signals back in, and
// assemble the report.
package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"market-scannerv1/internal/indicator"
	"market-scannerv1/internal/logger"
	"market-scannerv1/internal/metrics"
	"market-scannerv1/internal/model"
	"market-scannerv1/internal/pattern"
)

// Strategy selects how timeframes are scanned per symbol.
type Strategy string

const (
	// StrategyCollectAll scans every configured timeframe and keeps every
	// qualifying result.
	StrategyCollectAll Strategy = "all"

	// StrategyFirstMatch probes timeframes in configured order and stops
	// at the first one that produces a signal for a symbol.
	StrategyFirstMatch Strategy = "first"
)

// Config holds the orchestrator tunables.
type Config struct {
	Timeframes  []string // probe order matters for StrategyFirstMatch
	TopByVolume int      // universe cap, <= 0 means uncapped
	Workers     int      // bounded concurrency, default 60
	KlineLimit  int      // candles requested per fetch
	QuoteSuffix string   // universe filter, e.g. "-USDT"
	Strategy    Strategy
}

// Orchestrator coordinates one scan invocation end to end. All state it
// holds is read-only after construction, so a single instance serves
// concurrent requests.
type Orchestrator struct {
	cfg        Config
	market     model.MarketData
	spans      indicator.Spans
	classifier *pattern.Classifier
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config, market model.MarketData, spans indicator.Spans, cls *pattern.Classifier, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyCollectAll
	}
	return &Orchestrator{
		cfg:        cfg,
		market:     market,
		spans:      spans,
		classifier: cls,
		metrics:    m,
		log:        log,
	}
}

// unit is one independent piece of scan work. Collect-all produces one
// unit per (symbol, timeframe); first-match produces one per symbol with
// the full timeframe probe order.
type unit struct {
	symbol string
	tfs    []string
}

// Scan runs the full pipeline and always returns a report: upstream
// failure degrades to an empty one, never to an error.
func (o *Orchestrator) Scan(ctx context.Context) model.ScanReport {
	start := time.Now()
	ctx = logger.WithScanID(ctx, logger.NewScanID(start))
	o.metrics.ScansTotal.Inc()
	defer func() {
		o.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	entries, err := o.market.FetchTicker(ctx)
	if err != nil || len(entries) == 0 {
		o.metrics.TickerFailures.Inc()
		o.log.Warn("ticker snapshot unavailable, returning empty report",
			"scan_id", logger.ScanID(ctx), "err", errString(err))
		return model.EmptyReport()
	}

	changes := model.NewTickerSnapshot(entries)
	universe := o.universe(entries)

	results := o.fanOut(ctx, universe, changes)

	report := model.ScanReport{Total: len(results), Resultados: results}
	o.metrics.ResultsLast.Set(float64(report.Total))
	o.log.Info("scan complete",
		"scan_id", logger.ScanID(ctx),
		"symbols", len(universe),
		"results", report.Total,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return report
}

// universe filters ticker rows to the quote suffix and caps the count,
// keeping upstream order (the exchange already ranks by volume).
func (o *Orchestrator) universe(entries []model.TickerEntry) []string {
	syms := make([]string, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Symbol, o.cfg.QuoteSuffix) {
			continue
		}
		syms = append(syms, e.Symbol)
		if o.cfg.TopByVolume > 0 && len(syms) == o.cfg.TopByVolume {
			break
		}
	}
	return syms
}

// fanOut distributes units across the worker pool and collects results in
// completion order. Never more than cfg.Workers fetches run at once.
func (o *Orchestrator) fanOut(ctx context.Context, universe []string, changes model.TickerSnapshot) []model.SignalResult {
	units := o.buildUnits(universe)

	jobs := make(chan unit)
	results := make(chan model.SignalResult, o.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go o.worker(ctx, jobs, results, changes, &wg)
	}

	go func() {
		defer close(jobs)
		for _, u := range units {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]model.SignalResult, 0)
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (o *Orchestrator) buildUnits(universe []string) []unit {
	if o.cfg.Strategy == StrategyFirstMatch {
		units := make([]unit, 0, len(universe))
		for _, sym := range universe {
			units = append(units, unit{symbol: sym, tfs: o.cfg.Timeframes})
		}
		return units
	}

	units := make([]unit, 0, len(universe)*len(o.cfg.Timeframes))
	for _, sym := range universe {
		for _, tf := range o.cfg.Timeframes {
			units = append(units, unit{symbol: sym, tfs: []string{tf}})
		}
	}
	return units
}

func (o *Orchestrator) worker(ctx context.Context, jobs <-chan unit, results chan<- model.SignalResult, changes model.TickerSnapshot, wg *sync.WaitGroup) {
	defer wg.Done()
	for u := range jobs {
		for _, tf := range u.tfs {
			res := o.analyze(ctx, u.symbol, tf, changes)
			if res == nil {
				continue
			}
			results <- *res
			if o.cfg.Strategy == StrategyFirstMatch {
				break
			}
		}
	}
}

// analyze is one fetch → compute → classify unit. Every failure mode
// degrades to "no result": a broken symbol must not sink its siblings.
func (o *Orchestrator) analyze(ctx context.Context, symbol, tf string, changes model.TickerSnapshot) *model.SignalResult {
	series, err := o.market.FetchKlines(ctx, symbol, tf, o.cfg.KlineLimit)
	if err != nil {
		o.metrics.KlineFetches.WithLabelValues("error").Inc()
		o.log.Debug("kline fetch failed",
			"scan_id", logger.ScanID(ctx), "symbol", symbol, "tf", tf, "err", err.Error())
		return nil
	}

	snap, ok := indicator.Compute(series, o.spans)
	if !ok {
		o.metrics.KlineFetches.WithLabelValues("short").Inc()
		return nil
	}
	o.metrics.KlineFetches.WithLabelValues("ok").Inc()

	res := o.classifier.Classify(symbol, series, snap, tf, changes)
	if res != nil {
		o.metrics.SignalsTotal.WithLabelValues(baseSignal(res.Sinal)).Inc()
	}
	return res
}

// baseSignal strips the embedded timeframe tag for metric labels:
// "FLUXO CACHOEIRA (5m)" → "FLUXO CACHOEIRA".
func baseSignal(name string) string {
	if i := strings.LastIndex(name, " ("); i > 0 {
		return name[:i]
	}
	return name
}

func errString(err error) string {
	if err == nil {
		return "empty ticker"
	}
	return err.Error()
}
