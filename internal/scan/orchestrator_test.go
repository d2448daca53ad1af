package scan

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"market-scannerv1/internal/indicator"
	"market-scannerv1/internal/metrics"
	"market-scannerv1/internal/model"
	"market-scannerv1/internal/pattern"
)

// fakeMarket serves canned ticker rows and kline series, with optional
// per-symbol failures, a per-fetch delay, and in-flight bookkeeping so
// tests can assert the concurrency bound.
type fakeMarket struct {
	entries   []model.TickerEntry
	tickerErr error

	series   map[string]model.KlineSeries // keyed "symbol|tf", falls back to "symbol"
	klineErr map[string]error
	delay    time.Duration

	inflight    atomic.Int64
	maxInflight atomic.Int64
}

func (f *fakeMarket) FetchTicker(ctx context.Context) ([]model.TickerEntry, error) {
	return f.entries, f.tickerErr
}

func (f *fakeMarket) FetchKlines(ctx context.Context, symbol, interval string, limit int) (model.KlineSeries, error) {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		max := f.maxInflight.Load()
		if cur <= max || f.maxInflight.CompareAndSwap(max, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.klineErr[symbol]; err != nil {
		return nil, err
	}
	if s, ok := f.series[symbol+"|"+interval]; ok {
		return s, nil
	}
	return f.series[symbol], nil
}

// signalSeries is a long steady decline: always classifies as waterfall
// flow (close below trend, averages fully stacked).
func signalSeries(n int) model.KlineSeries {
	s := make(model.KlineSeries, n)
	step := 100.0 / float64(n-1)
	for i := range s {
		c := 200 - step*float64(i)
		s[i] = model.Candle{
			TS: int64(i) * 300_000, Open: c + step, High: c + step + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		}
	}
	return s
}

func usdt(symbols ...string) []model.TickerEntry {
	entries := make([]model.TickerEntry, len(symbols))
	for i, s := range symbols {
		entries[i] = model.TickerEntry{Symbol: s, PriceChangePercent: 1.0}
	}
	return entries
}

func newTestOrchestrator(t *testing.T, cfg Config, market model.MarketData) (*Orchestrator, *metrics.Metrics) {
	t.Helper()
	if cfg.KlineLimit == 0 {
		cfg.KlineLimit = 250
	}
	if cfg.QuoteSuffix == "" {
		cfg.QuoteSuffix = "-USDT"
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = []string{"5m"}
	}
	if cfg.Workers == 0 {
		cfg.Workers = 8
	}
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(cfg, market, indicator.DefaultSpans(), pattern.NewClassifier(pattern.DefaultPolicy()), m, log), m
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func pars(report model.ScanReport) map[string]int {
	out := map[string]int{}
	for _, r := range report.Resultados {
		out[r.Par]++
	}
	return out
}

func TestScan_EmptyTickerYieldsEmptyReport(t *testing.T) {
	market := &fakeMarket{tickerErr: errors.New("connection refused")}
	orch, m := newTestOrchestrator(t, Config{}, market)

	report := orch.Scan(context.Background())
	if report.Total != 0 {
		t.Errorf("total: got %d, want 0", report.Total)
	}
	if report.Resultados == nil || len(report.Resultados) != 0 {
		t.Errorf("resultados must be an empty, non-nil slice, got %#v", report.Resultados)
	}
	if got := testutil.ToFloat64(m.TickerFailures); got != 1 {
		t.Errorf("ticker failure counter: got %v, want 1", got)
	}
}

func TestScan_PartialFailureIsolation(t *testing.T) {
	market := &fakeMarket{
		entries: usdt("AAA-USDT", "BBB-USDT", "CCC-USDT"),
		series: map[string]model.KlineSeries{
			"AAA-USDT": signalSeries(250),
			"CCC-USDT": signalSeries(250),
		},
		klineErr: map[string]error{"BBB-USDT": errors.New("timeout")},
	}
	orch, _ := newTestOrchestrator(t, Config{}, market)

	report := orch.Scan(context.Background())
	got := pars(report)
	if report.Total != 2 || got["AAA"] != 1 || got["CCC"] != 1 {
		t.Fatalf("failing symbol must not affect siblings: total=%d pars=%v", report.Total, got)
	}
	if got["BBB"] != 0 {
		t.Error("failing symbol contributed a result")
	}
}

func TestScan_UniverseFilterAndCap(t *testing.T) {
	market := &fakeMarket{
		entries: []model.TickerEntry{
			{Symbol: "BTC-USDT"},
			{Symbol: "ETH-BTC"}, // wrong quote, filtered
			{Symbol: "ETH-USDT"},
			{Symbol: "XRP-USDT"}, // beyond the cap
		},
		series: map[string]model.KlineSeries{
			"BTC-USDT": signalSeries(250),
			"ETH-USDT": signalSeries(250),
			"XRP-USDT": signalSeries(250),
		},
	}
	orch, _ := newTestOrchestrator(t, Config{TopByVolume: 2}, market)

	got := pars(orch.Scan(context.Background()))
	if len(got) != 2 || got["BTC"] != 1 || got["ETH"] != 1 {
		t.Fatalf("universe must keep the first 2 quote-suffix symbols, got %v", got)
	}
}

func TestScan_CollectAllKeepsEveryTimeframe(t *testing.T) {
	market := &fakeMarket{
		entries: usdt("AAA-USDT"),
		series:  map[string]model.KlineSeries{"AAA-USDT": signalSeries(250)},
	}
	orch, _ := newTestOrchestrator(t, Config{
		Timeframes: []string{"5m", "15m"},
		Strategy:   StrategyCollectAll,
	}, market)

	report := orch.Scan(context.Background())
	if report.Total != 2 {
		t.Fatalf("collect-all with 2 qualifying timeframes: got %d results", report.Total)
	}
	tfs := map[string]bool{}
	for _, r := range report.Resultados {
		tfs[r.TF] = true
	}
	if !tfs["5m"] || !tfs["15m"] {
		t.Errorf("timeframe set: got %v", tfs)
	}
}

func TestScan_FirstMatchStopsAtFirstTimeframe(t *testing.T) {
	market := &fakeMarket{
		entries: usdt("AAA-USDT"),
		series:  map[string]model.KlineSeries{"AAA-USDT": signalSeries(250)},
	}
	orch, _ := newTestOrchestrator(t, Config{
		Timeframes: []string{"5m", "15m"},
		Strategy:   StrategyFirstMatch,
	}, market)

	report := orch.Scan(context.Background())
	if report.Total != 1 {
		t.Fatalf("first-match must emit one result per symbol, got %d", report.Total)
	}
	if report.Resultados[0].TF != "5m" {
		t.Errorf("first-match must honor probe order, got tf %q", report.Resultados[0].TF)
	}
}

func TestScan_FirstMatchSkipsFailingTimeframe(t *testing.T) {
	market := &fakeMarket{
		entries: usdt("AAA-USDT"),
		series: map[string]model.KlineSeries{
			"AAA-USDT|5m":  signalSeries(150), // too short, no signal
			"AAA-USDT|15m": signalSeries(250),
		},
	}
	orch, _ := newTestOrchestrator(t, Config{
		Timeframes: []string{"5m", "15m"},
		Strategy:   StrategyFirstMatch,
	}, market)

	report := orch.Scan(context.Background())
	if report.Total != 1 || report.Resultados[0].TF != "15m" {
		t.Fatalf("first-match must fall through to the next timeframe, got %+v", report.Resultados)
	}
}

func TestScan_InsufficientHistoryYieldsNothing(t *testing.T) {
	market := &fakeMarket{
		entries: usdt("AAA-USDT"),
		series:  map[string]model.KlineSeries{"AAA-USDT": signalSeries(199)},
	}
	orch, m := newTestOrchestrator(t, Config{}, market)

	if report := orch.Scan(context.Background()); report.Total != 0 {
		t.Fatalf("short series must never classify, got %d results", report.Total)
	}
	if got := testutil.ToFloat64(m.KlineFetches.WithLabelValues("short")); got != 1 {
		t.Errorf("short-series counter: got %v, want 1", got)
	}
}

func TestScan_BoundedConcurrency(t *testing.T) {
	symbols := make([]string, 12)
	series := map[string]model.KlineSeries{}
	for i := range symbols {
		symbols[i] = string(rune('A'+i)) + "AA-USDT"
		series[symbols[i]] = signalSeries(250)
	}
	market := &fakeMarket{entries: usdt(symbols...), series: series, delay: 5 * time.Millisecond}
	orch, _ := newTestOrchestrator(t, Config{Workers: 3}, market)

	orch.Scan(context.Background())
	if got := market.maxInflight.Load(); got > 3 {
		t.Errorf("concurrency bound violated: %d fetches in flight, cap 3", got)
	}
}

func TestScan_VariacaoFromTicker(t *testing.T) {
	market := &fakeMarket{
		entries: []model.TickerEntry{{Symbol: "AAA-USDT", PriceChangePercent: 3.456}},
		series:  map[string]model.KlineSeries{"AAA-USDT": signalSeries(250)},
	}
	orch, _ := newTestOrchestrator(t, Config{}, market)

	report := orch.Scan(context.Background())
	if report.Total != 1 || report.Resultados[0].Variacao != "3.46%" {
		t.Fatalf("variacao: got %+v", report.Resultados)
	}
}

func TestBaseSignal(t *testing.T) {
	if got := baseSignal("FLUXO CACHOEIRA (5m)"); got != "FLUXO CACHOEIRA" {
		t.Errorf("got %q", got)
	}
	if got := baseSignal("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}
