// Package pattern classifies the latest candle of a series into one of a
// small set of named chart-pattern signals, with auxiliary support-danger
// and candle-body classifications.
package pattern

import (
	"fmt"
	"math"
	"strings"

	"market-scannerv1/internal/indicator"
	"market-scannerv1/internal/model"
)

// Signal and rating vocabulary. These are the wire strings the original
// service emitted; frontends match on them verbatim.
const (
	SignalWaterfallOnset = "INÍCIO CACHOEIRA"
	SignalWaterfallFlow  = "FLUXO CACHOEIRA"
	SignalDeathKiss      = "BEIJO DA MORTE"
	SignalAnticipation   = "ANTECIPAÇÃO"

	BatteryFound  = "🔋 PILHA"
	BatteryAbsent = "---"

	SupportDangerous = "SUPORTE PERIGOSO"
	SupportWeak      = "SUPORTE FRACO"
)

const (
	// stackLookback is how many candles back the waterfall stacking is
	// re-checked to tell onset from ongoing flow.
	stackLookback = 5

	// rangeEpsilon guards body-ratio division on zero-range candles.
	rangeEpsilon = 1e-9

	referenceURLTemplate = "https://www.binance.com/pt/futures/%s"
)

// Policy holds the tunable thresholds plus the two behaviors the source
// scan variants disagree on. Defaults follow the multi-timeframe variant.
type Policy struct {
	DeathKissBandPct float64 // max |high−emaMid| distance, percent (0.3)
	BodyRatio        float64 // min body/range for a battery candle (0.8)
	LowerWickRatio   float64 // max (close−low)/range for a battery candle (0.15)
	SupportWindow    int     // trailing low window length (30)
	SupportBufferPct float64 // danger threshold over the recent floor (1.2)
	QuoteSuffix      string  // stripped from symbols for display ("-USDT")

	// BatteryOnPrevious selects the immediately preceding candle as the
	// battery reference instead of the current one.
	BatteryOnPrevious bool

	// SupportIncludesCurrent widens the trailing low window to include
	// the current candle.
	SupportIncludesCurrent bool
}

// DefaultPolicy returns the thresholds of the multi-timeframe scanner.
func DefaultPolicy() Policy {
	return Policy{
		DeathKissBandPct: 0.3,
		BodyRatio:        0.8,
		LowerWickRatio:   0.15,
		SupportWindow:    30,
		SupportBufferPct: 1.2,
		QuoteSuffix:      "-USDT",
	}
}

// Classifier applies the signal rules to one (symbol, timeframe) series.
// Stateless and safe for concurrent use.
type Classifier struct {
	policy Policy
}

// NewClassifier creates a Classifier with the given policy.
func NewClassifier(p Policy) *Classifier {
	return &Classifier{policy: p}
}

// Classify inspects the last candle of the series and returns a populated
// SignalResult when a signal fires, or nil when nothing matches.
//
// The series must be ascending and snap must be the snapshot computed from
// exactly this series. Only candles at or below the trend average are
// eligible; everything above is rejected outright (fixed downtrend bias).
//
// Signal priority, first match wins: death-kiss, waterfall, anticipation.
func (c *Classifier) Classify(symbol string, series model.KlineSeries, snap *indicator.Snapshot, tf string, changes model.TickerSnapshot) *model.SignalResult {
	if len(series) == 0 || snap == nil {
		return nil
	}

	idx := len(series) - 1
	price := series[idx].Close

	// Trend gate: above the long average means no shorting setup.
	trend := snap.Trend[idx]
	if math.IsNaN(trend) || price > trend {
		return nil
	}

	name := c.signalName(series, snap, idx, tf)
	if name == "" {
		return nil
	}

	change := changes[symbol] // absent symbol → 0.0

	return &model.SignalResult{
		Par:      strings.TrimSuffix(symbol, c.policy.QuoteSuffix),
		Sinal:    name,
		TF:       tf,
		Suporte:  c.supportRating(series, idx),
		Pilha:    c.batteryPattern(series, idx, tf),
		Variacao: fmt.Sprintf("%.2f%%", change),
		Binance:  ReferenceURL(symbol),
	}
}

// signalName evaluates the mutually exclusive signal rules in priority
// order and returns the timeframe-tagged name, or "" for no signal.
func (c *Classifier) signalName(series model.KlineSeries, snap *indicator.Snapshot, idx int, tf string) string {
	price := series[idx].Close
	fast := snap.EMAFast[idx]
	mid := snap.EMAMid[idx]

	// 1. Death-kiss: high rejected off the mid average from above while
	// the close already sits under the fast average.
	dist := math.Abs(series[idx].High-mid) / math.Max(mid, rangeEpsilon) * 100
	if dist < c.policy.DeathKissBandPct && price < fast {
		return fmt.Sprintf("%s (%s)", SignalDeathKiss, tf)
	}

	// 2. Waterfall: fully stacked bearish averages. Onset if the stack
	// was not in place stackLookback candles ago.
	if stackedAt(snap, idx) {
		if !stackedAt(snap, clampIndex(idx-stackLookback)) {
			return fmt.Sprintf("%s (%s)", SignalWaterfallOnset, tf)
		}
		return fmt.Sprintf("%s (%s)", SignalWaterfallFlow, tf)
	}

	// 3. Anticipation: fast and mid averages converging since the
	// previous candle.
	prev := clampIndex(idx - 1)
	gapNow := math.Abs(fast - mid)
	gapPrev := math.Abs(snap.EMAFast[prev] - snap.EMAMid[prev])
	if gapNow < gapPrev {
		return fmt.Sprintf("%s (%s)", SignalAnticipation, tf)
	}

	return ""
}

// batteryPattern checks the reference candle for bearish body dominance:
// a body covering most of the range with the close pinned near the low.
func (c *Classifier) batteryPattern(series model.KlineSeries, idx int, tf string) string {
	ref := idx
	if c.policy.BatteryOnPrevious {
		ref = clampIndex(idx - 1)
	}
	cd := series[ref]

	rng := cd.High - cd.Low
	if rng < rangeEpsilon {
		// Zero-range candle: no body geometry to speak of.
		return BatteryAbsent
	}
	if cd.Open > cd.Close &&
		(cd.Open-cd.Close)/rng >= c.policy.BodyRatio &&
		(cd.Close-cd.Low)/rng <= c.policy.LowerWickRatio {
		return fmt.Sprintf("%s (%s)", BatteryFound, tf)
	}
	return BatteryAbsent
}

// supportRating measures how close the current close sits to the lowest
// low of the trailing window.
func (c *Classifier) supportRating(series model.KlineSeries, idx int) string {
	start := clampIndex(idx - c.policy.SupportWindow)
	end := idx // exclusive: current candle left out by default
	if c.policy.SupportIncludesCurrent {
		end = idx + 1
	}
	if start >= end {
		start = clampIndex(end - 1)
	}

	minRecent := series[start].Low
	for i := start + 1; i < end; i++ {
		if series[i].Low < minRecent {
			minRecent = series[i].Low
		}
	}

	distPct := (series[idx].Close - minRecent) / math.Max(minRecent, rangeEpsilon) * 100
	if distPct <= c.policy.SupportBufferPct {
		return SupportDangerous
	}
	return SupportWeak
}

// stackedAt reports whether the averages are in full bearish order
// (fast < mid < slow) at index i.
func stackedAt(snap *indicator.Snapshot, i int) bool {
	return snap.EMAFast[i] < snap.EMAMid[i] && snap.EMAMid[i] < snap.EMASlow[i]
}

// clampIndex pins lookback indices to the start of the series.
func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

// ReferenceURL maps a symbol to its chart URL: strip the separator and
// embed in the fixed template. Pure string transform, no network.
func ReferenceURL(symbol string) string {
	return fmt.Sprintf(referenceURLTemplate, strings.ReplaceAll(symbol, "-", ""))
}
