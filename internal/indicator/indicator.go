// Package indicator provides technical indicator calculations over
// closing-price series.
//
// Indicators are single-pass streaming recurrences: each value type is fed
// closes in ascending time order and exposes its current value. Series-level
// snapshots (one value per input index) are built by Compute.
package indicator

// Indicator is the interface shared by all streaming indicators.
type Indicator interface {
	// Update feeds the next closing price and recalculates.
	Update(close float64)

	// Value returns the current calculated value. Meaningless until Ready.
	Value() float64

	// Ready reports whether enough data has been accumulated.
	Ready() bool
}
