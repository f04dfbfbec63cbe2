package strategy

import "math"

// ratioWindow is a fixed-capacity FIFO of recent ratio samples.
type ratioWindow struct {
	samples []float64
	next    int
	full    bool
}

func newRatioWindow(capacity int) *ratioWindow {
	return &ratioWindow{samples: make([]float64, capacity)}
}

func (w *ratioWindow) push(v float64) {
	w.samples[w.next] = v
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

// stats returns the mean and population standard deviation over the window.
// It reports false until the window has filled once.
func (w *ratioWindow) stats() (mean, stddev float64, ok bool) {
	if !w.full {
		return 0, 0, false
	}
	n := float64(len(w.samples))
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	mean = sum / n
	var sq float64
	for _, v := range w.samples {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n), true
}
