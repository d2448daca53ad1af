package model

import "context"

// ── Outbound Port Interfaces ──
// These interfaces decouple the scan pipeline from the concrete exchange
// client, so the orchestrator can be tested against a fake market feed.

// MarketData fetches quote data from the upstream exchange.
//
// Both methods return an explicit error instead of silently degrading;
// the fail-soft policy (error ⇒ treated as no data) is applied by the
// caller, so "absent" and "broken" stay distinguishable in logs and
// metrics.
type MarketData interface {
	// FetchTicker returns the 24h ticker rows in upstream order.
	FetchTicker(ctx context.Context) ([]TickerEntry, error)

	// FetchKlines returns up to limit candles for symbol at the given
	// interval, sorted ascending by open time. May be shorter than limit
	// (or empty) when the exchange has less history.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) (KlineSeries, error)
}
