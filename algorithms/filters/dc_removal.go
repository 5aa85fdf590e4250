package filters

import (
	"fmt"
	"math"
)

// DCBlocker is a one-pole, one-zero high-pass filter that removes the DC offset
// decoded audio may carry.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//
// The difference equation is y[n] = x[n] - x[n-1] + R*y[n-1].
type DCBlocker struct {
	pole       float64 // R (0 < R < 1)
	sampleRate int

	x1 float64 // x[n-1]
	y1 float64 // y[n-1]
}

// NewDCBlocker creates a filter with the given -3dB cutoff.
// The pole is R = 1 - 2*pi*fc/fs, valid for fc << fs/2.
func NewDCBlocker(sampleRate int, cutoffHz float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if cutoffHz <= 0 || cutoffHz >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("cutoff %.2f Hz must be in (0, %d)", cutoffHz, sampleRate/2)
	}

	pole := 1.0 - 2.0*math.Pi*cutoffHz/float64(sampleRate)
	if pole <= 0 {
		pole = 0.001
	}
	return &DCBlocker{pole: pole, sampleRate: sampleRate}, nil
}

// Process filters one sample
func (dc *DCBlocker) Process(input float64) float64 {
	output := input - dc.x1 + dc.pole*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters a buffer into a new slice, continuing from the current state
func (dc *DCBlocker) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state. Call it between discontinuous signals.
func (dc *DCBlocker) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// Pole returns R
func (dc *DCBlocker) Pole() float64 {
	return dc.pole
}

// CutoffFrequency inverts the design formula: fc = (1-R)*fs/(2*pi)
func (dc *DCBlocker) CutoffFrequency() float64 {
	return (1.0 - dc.pole) * float64(dc.sampleRate) / (2.0 * math.Pi)
}

// Magnitude is |H(e^jw)| at the given frequency, where
// H(e^jw) = (1 - e^-jw) / (1 - R*e^-jw)
func (dc *DCBlocker) Magnitude(frequency float64) float64 {
	w := 2.0 * math.Pi * frequency / float64(dc.sampleRate)
	cosW, sinW := math.Cos(w), math.Sin(w)

	num := math.Hypot(1.0-cosW, sinW)
	den := math.Hypot(1.0-dc.pole*cosW, dc.pole*sinW)
	return num / den
}
