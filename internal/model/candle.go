package model

import "sort"

// Candle is one OHLCV bar for a single symbol and timeframe.
// Prices are float64 as delivered by the exchange quote API.
type Candle struct {
	TS     int64   `json:"time"` // bar open time, epoch milliseconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// KlineSeries is a timestamp-ordered sequence of candles for one
// (symbol, timeframe) pair. Indicator math requires ascending order;
// the klines endpoint may deliver either direction, so callers sort
// once at the ingestion boundary.
type KlineSeries []Candle

// SortAscending orders the series by bar open time, oldest first.
func (s KlineSeries) SortAscending() {
	sort.Slice(s, func(i, j int) bool { return s[i].TS < s[j].TS })
}
