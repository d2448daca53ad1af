package indicator

// SMA calculates a simple moving average over a rolling window.
// Uses a preallocated circular buffer for a zero-allocation hot path.
// Undefined (Ready() == false) until the window is full.
type SMA struct {
	window  int
	buf     []float64 // circular buffer of the last window closes
	idx     int       // current write position
	count   int       // total values received
	sum     float64
	current float64
}

// NewSMA creates an SMA indicator with the given window.
func NewSMA(window int) *SMA {
	return &SMA{
		window: window,
		buf:    make([]float64, window),
	}
}

func (s *SMA) Update(close float64) {
	if s.count >= s.window {
		// Subtract the oldest value being overwritten
		s.sum -= s.buf[s.idx]
	}

	s.buf[s.idx] = close
	s.sum += close
	s.idx = (s.idx + 1) % s.window
	s.count++

	if s.count >= s.window {
		s.current = s.sum / float64(s.window)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.count >= s.window }
