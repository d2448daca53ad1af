package model

// TickerEntry is one row of the 24h ticker snapshot, in the order the
// exchange returned it (the universe cap relies on upstream ordering).
type TickerEntry struct {
	Symbol             string
	PriceChangePercent float64
}

// TickerSnapshot maps symbol → 24h percent price change. Built once per
// scan, read-only for its duration, shared across all workers.
type TickerSnapshot map[string]float64

// NewTickerSnapshot builds the change map from raw ticker entries.
func NewTickerSnapshot(entries []TickerEntry) TickerSnapshot {
	snap := make(TickerSnapshot, len(entries))
	for _, e := range entries {
		snap[e.Symbol] = e.PriceChangePercent
	}
	return snap
}

// SignalResult is one qualifying (symbol, timeframe) hit. Immutable once
// created; it lives only until the report is serialized.
//
// Field names keep the wire vocabulary of the original service so existing
// frontends keep working.
type SignalResult struct {
	Par      string `json:"par"`      // symbol without the quote suffix
	Sinal    string `json:"sinal"`    // signal name with embedded timeframe
	TF       string `json:"tf"`       // timeframe label
	Suporte  string `json:"suporte"`  // support danger rating
	Pilha    string `json:"pilha"`    // candle-body battery classification
	Variacao string `json:"variacao"` // 24h change, "%.2f%%"
	Binance  string `json:"binance"`  // reference chart URL
}

// ScanReport is the aggregate of one scan invocation.
type ScanReport struct {
	Total      int            `json:"total"`
	Resultados []SignalResult `json:"resultados"`
}

// EmptyReport is the fail-soft response when the ticker snapshot is
// unavailable: total zero, never an HTTP error.
func EmptyReport() ScanReport {
	return ScanReport{Total: 0, Resultados: []SignalResult{}}
}
