package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Spectrum is a read-only magnitude spectrum of one analysis window.
// Bin k covers frequency k*sampleRate/size; there are size/2 bins.
type Spectrum struct {
	magnitudes []float64
	sampleRate int
	size       int
}

// NewSpectrum builds a spectrum from precomputed magnitudes. The slice is copied
// and must hold exactly size/2 non-negative values.
func NewSpectrum(magnitudes []float64, sampleRate, size int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if size <= 0 || len(magnitudes) != size/2 {
		return nil, fmt.Errorf("spectrum of size %d needs %d bins, got %d", size, size/2, len(magnitudes))
	}
	for k, m := range magnitudes {
		if m < 0 {
			return nil, fmt.Errorf("negative magnitude %g at bin %d", m, k)
		}
	}

	mags := make([]float64, len(magnitudes))
	copy(mags, magnitudes)
	return &Spectrum{magnitudes: mags, sampleRate: sampleRate, size: size}, nil
}

// Len returns the number of bins
func (s *Spectrum) Len() int {
	return len(s.magnitudes)
}

// Magnitude returns the magnitude of bin k
func (s *Spectrum) Magnitude(k int) float64 {
	return s.magnitudes[k]
}

// Magnitudes returns a copy of all bin magnitudes
func (s *Spectrum) Magnitudes() []float64 {
	mags := make([]float64, len(s.magnitudes))
	copy(mags, s.magnitudes)
	return mags
}

// Frequency returns the center frequency of bin k in Hz
func (s *Spectrum) Frequency(k int) float64 {
	return float64(k) * s.Resolution()
}

// Resolution returns the bin width in Hz
func (s *Spectrum) Resolution() float64 {
	return float64(s.sampleRate) / float64(s.size)
}

// SampleRate returns the sample rate of the analyzed window
func (s *Spectrum) SampleRate() int {
	return s.sampleRate
}

// Size returns the analyzed window length N
func (s *Spectrum) Size() int {
	return s.size
}

// Max returns the largest bin magnitude, 0 for an empty spectrum
func (s *Spectrum) Max() float64 {
	if len(s.magnitudes) == 0 {
		return 0
	}
	return floats.Max(s.magnitudes)
}

// Energy sums magnitudes of the bins whose center lies in [lo, hi) Hz
func (s *Spectrum) Energy(lo, hi float64) float64 {
	res := s.Resolution()
	sum := 0.0
	for k, m := range s.magnitudes {
		f := float64(k) * res
		if f >= lo && f < hi {
			sum += m
		}
	}
	return sum
}
