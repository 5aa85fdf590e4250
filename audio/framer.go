package audio

import (
	"fmt"
	"io"
)

// Source yields analysis windows one at a time and returns io.EOF when exhausted
type Source interface {
	Next() (*Window, error)
}

// Framer cuts already-decoded PCM into fixed-size windows advancing by hop samples.
// The last partial frame is zero-padded; a Framer is not safe for concurrent use.
type Framer struct {
	samples    []float64
	sampleRate int
	windowSize int
	hopSize    int
	pos        int
	done       bool
}

// NewFramer creates a framer over samples. The samples are not copied until framed.
func NewFramer(samples []float64, sampleRate, windowSize, hopSize int) (*Framer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive: %d", windowSize)
	}
	if hopSize <= 0 {
		hopSize = windowSize
	}

	return &Framer{
		samples:    samples,
		sampleRate: sampleRate,
		windowSize: windowSize,
		hopSize:    hopSize,
	}, nil
}

// Next returns the next window or io.EOF
func (f *Framer) Next() (*Window, error) {
	if f.done || f.pos >= len(f.samples) {
		f.done = true
		return nil, io.EOF
	}

	end := min(f.pos+f.windowSize, len(f.samples))
	frame := PadOrTruncate(f.samples[f.pos:end], f.windowSize)

	w, err := newWindowAt(frame, f.sampleRate, f.pos)
	if err != nil {
		return nil, err
	}

	if end == len(f.samples) {
		f.done = true
	}
	f.pos += f.hopSize

	return w, nil
}

// Count returns how many windows the framer yields in total
func (f *Framer) Count() int {
	if len(f.samples) == 0 {
		return 0
	}
	if len(f.samples) <= f.windowSize {
		return 1
	}
	// windows start at 0, hop, 2*hop, ... until one reaches the end
	remaining := len(f.samples) - f.windowSize
	return (remaining+f.hopSize-1)/f.hopSize + 1
}

// Reset rewinds to the first window
func (f *Framer) Reset() {
	f.pos = 0
	f.done = false
}

// Collect drains a source into a slice
func Collect(src Source) ([]*Window, error) {
	var windows []*Window
	for {
		w, err := src.Next()
		if err == io.EOF {
			return windows, nil
		}
		if err != nil {
			return windows, err
		}
		windows = append(windows, w)
	}
}
