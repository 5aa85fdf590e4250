package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Hann represents a Hann window function
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
	gain         float64
}

// NewHann creates a new Hann window. Spectral analysis wants the periodic form
// (symmetric=false); filter design wants the symmetric one.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

// generate fills the coefficient table from go-dsp's symmetric Hann.
// The periodic window of length N is the symmetric window of length N+1 without its last point.
func (h *Hann) generate() {
	if h.size <= 0 {
		h.coefficients = []float64{}
		return
	}

	if h.symmetric {
		h.coefficients = window.Hann(h.size)
	} else {
		h.coefficients = window.Hann(h.size + 1)[:h.size]
	}

	sum := 0.0
	for _, c := range h.coefficients {
		sum += c
	}
	h.gain = sum / float64(h.size)
}

// Apply applies the window to a signal (creates new array)
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i := range h.size {
		windowed[i] = signal[i] * h.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := range h.size {
		signal[i] *= h.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// CoherentGain is the mean coefficient; dividing a windowed spectrum by
// size*gain/2 recovers sinusoid amplitudes
func (h *Hann) CoherentGain() float64 {
	return h.gain
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}

// GetType returns the window type
func (h *Hann) GetType() string {
	return "hann"
}
