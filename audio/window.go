// Package audio holds the analysis window, the unit of work for one recognition cycle.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidSampleRate means the sample rate was zero or negative
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrEmptyWindow means no samples were supplied
	ErrEmptyWindow = errors.New("empty analysis window")

	// ErrInvalidSample means a sample was NaN or infinite
	ErrInvalidSample = errors.New("invalid sample value")
)

// Window is a fixed-length run of mono samples and its sample rate.
// It is immutable after construction.
type Window struct {
	samples    []float64
	sampleRate int
	offset     int // position of the first sample in the source stream
}

// NewWindow copies samples into a new window
func NewWindow(samples []float64, sampleRate int) (*Window, error) {
	return newWindowAt(samples, sampleRate, 0)
}

func newWindowAt(samples []float64, sampleRate, offset int) (*Window, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyWindow
	}

	copied := make([]float64, len(samples))
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w at index %d", ErrInvalidSample, i)
		}
		copied[i] = s
	}

	return &Window{samples: copied, sampleRate: sampleRate, offset: offset}, nil
}

// Len returns the number of samples
func (w *Window) Len() int {
	return len(w.samples)
}

// SampleRate returns the sample rate in Hz
func (w *Window) SampleRate() int {
	return w.sampleRate
}

// At returns sample i
func (w *Window) At(i int) float64 {
	return w.samples[i]
}

// Samples returns a copy of the samples
func (w *Window) Samples() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}

// Offset is the index of the first sample within the stream the window came from
func (w *Window) Offset() int {
	return w.offset
}

// Start is the window's start time within its stream
func (w *Window) Start() time.Duration {
	return time.Duration(w.offset) * time.Second / time.Duration(w.sampleRate)
}

// Duration is the time span covered by the window
func (w *Window) Duration() time.Duration {
	return time.Duration(len(w.samples)) * time.Second / time.Duration(w.sampleRate)
}

// PadOrTruncate returns samples resized to n, zero-padding at the end
func PadOrTruncate(samples []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	copy(out, samples)
	return out
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
