package indicator

import (
	"math"

	"market-scannerv1/internal/model"
)

// Spans configures the moving-average windows the scan pipeline uses.
type Spans struct {
	Fast  int // EMA span, default 9
	Mid   int // EMA span, default 21
	Slow  int // EMA span, default 50
	Trend int // SMA window, default 200; also the minimum series length
}

// DefaultSpans returns the standard scan configuration.
func DefaultSpans() Spans {
	return Spans{Fast: 9, Mid: 21, Slow: 50, Trend: 200}
}

// Snapshot holds per-index indicator values aligned with the source series:
// EMAFast[i] belongs to series[i]. Trend entries before the window is full
// are NaN (absent).
//
// Computed once per series, read at several indices by the classifier.
type Snapshot struct {
	EMAFast []float64
	EMAMid  []float64
	EMASlow []float64
	Trend   []float64
}

// Compute runs all indicators over the series in a single streaming pass.
//
// The series must already be sorted ascending by timestamp; the EMA
// recurrence is order-sensitive and no re-sort happens here. Returns
// ok == false when the series is shorter than the trend window
// (insufficient data, not an error).
func Compute(series model.KlineSeries, sp Spans) (*Snapshot, bool) {
	if len(series) < sp.Trend {
		return nil, false
	}

	fast := NewEMA(sp.Fast)
	mid := NewEMA(sp.Mid)
	slow := NewEMA(sp.Slow)
	trend := NewSMA(sp.Trend)

	snap := &Snapshot{
		EMAFast: make([]float64, len(series)),
		EMAMid:  make([]float64, len(series)),
		EMASlow: make([]float64, len(series)),
		Trend:   make([]float64, len(series)),
	}

	for i, c := range series {
		fast.Update(c.Close)
		mid.Update(c.Close)
		slow.Update(c.Close)
		trend.Update(c.Close)

		snap.EMAFast[i] = fast.Value()
		snap.EMAMid[i] = mid.Value()
		snap.EMASlow[i] = slow.Value()
		if trend.Ready() {
			snap.Trend[i] = trend.Value()
		} else {
			snap.Trend[i] = math.NaN()
		}
	}

	return snap, true
}
