package indicator

// EMA calculates an exponential moving average.
// O(1) per update, no window storage.
//
// Seeding follows the standard smoothing recurrence: the first close is
// taken as-is, every later value is close·α + prev·(1-α) with α = 2/(span+1).
type EMA struct {
	span    int
	alpha   float64
	current float64
	primed  bool
}

// NewEMA creates an EMA indicator with the given span.
func NewEMA(span int) *EMA {
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

func (e *EMA) Update(close float64) {
	if !e.primed {
		e.current = close
		e.primed = true
		return
	}
	e.current = close*e.alpha + e.current*(1-e.alpha)
}

func (e *EMA) Value() float64 { return e.current }

// Ready is true from the first close on; the recurrence has no warm-up gap.
func (e *EMA) Ready() bool { return e.primed }

// Span returns the configured span.
func (e *EMA) Span() int { return e.span }
