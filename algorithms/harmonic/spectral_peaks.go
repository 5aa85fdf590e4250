package harmonic

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"gonum.org/v1/gonum/floats"
)

// Peak is a locally dominant spectral component
type Peak struct {
	Frequency float64 `json:"frequency"` // Interpolated frequency in Hz
	Magnitude float64 `json:"magnitude"` // Interpolated magnitude
	Bin       int     `json:"bin"`       // Original FFT bin index
}

// PeakParams configures peak extraction
type PeakParams struct {
	NoiseFloor      float64 `json:"noise_floor" yaml:"noise_floor"`             // Fraction of the spectrum maximum
	MinSeparationHz float64 `json:"min_separation_hz" yaml:"min_separation_hz"` // Closer maxima are merged
	MaxPeaks        int     `json:"max_peaks" yaml:"max_peaks"`
}

// DefaultPeakParams returns peak extraction defaults
func DefaultPeakParams() PeakParams {
	return PeakParams{
		NoiseFloor:      0.1,
		MinSeparationHz: 10,
		MaxPeaks:        12,
	}
}

// Validate checks parameter ranges
func (p PeakParams) Validate() error {
	if p.NoiseFloor < 0 || p.NoiseFloor > 1 || math.IsNaN(p.NoiseFloor) {
		return fmt.Errorf("noise floor %g must be within [0, 1]", p.NoiseFloor)
	}
	if p.MinSeparationHz < 0 || math.IsNaN(p.MinSeparationHz) {
		return fmt.Errorf("minimum separation %g must not be negative", p.MinSeparationHz)
	}
	if p.MaxPeaks <= 0 {
		return fmt.Errorf("max peaks %d must be positive", p.MaxPeaks)
	}
	return nil
}

// PeakExtractor finds spectral peaks. It is stateless after construction.
type PeakExtractor struct {
	params PeakParams
}

// NewPeakExtractor creates a peak extractor
func NewPeakExtractor(params PeakParams) (*PeakExtractor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &PeakExtractor{params: params}, nil
}

// Params returns the extractor configuration
func (pe *PeakExtractor) Params() PeakParams {
	return pe.params
}

// Extract returns peaks sorted by descending magnitude (ascending frequency on
// ties), capped at MaxPeaks. A silent spectrum yields an empty slice.
func (pe *PeakExtractor) Extract(spectrum *spectral.Spectrum) []Peak {
	if spectrum == nil || spectrum.Len() < 3 {
		return []Peak{}
	}

	mags := spectrum.Magnitudes()
	maxMag := floats.Max(mags)
	if maxMag <= 0 {
		return []Peak{}
	}
	threshold := pe.params.NoiseFloor * maxMag

	// Strict local maxima above the floor
	var maxima []int
	for i := 1; i < len(mags)-1; i++ {
		if mags[i] > mags[i-1] && mags[i] > mags[i+1] && mags[i] >= threshold {
			maxima = append(maxima, i)
		}
	}

	// Tallest first, so a merge always keeps the taller maximum
	slices.SortFunc(maxima, func(a, b int) int {
		if mags[a] != mags[b] {
			if mags[a] > mags[b] {
				return -1
			}
			return 1
		}
		return a - b
	})

	resolution := spectrum.Resolution()
	var kept []int
	for _, bin := range maxima {
		tooClose := false
		for _, other := range kept {
			if math.Abs(float64(bin-other))*resolution < pe.params.MinSeparationHz {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, bin)
		}
	}

	peaks := make([]Peak, 0, len(kept))
	for _, bin := range kept {
		peaks = append(peaks, interpolate(mags, bin, resolution))
	}

	slices.SortFunc(peaks, comparePeaks)

	if len(peaks) > pe.params.MaxPeaks {
		peaks = peaks[:pe.params.MaxPeaks]
	}
	return peaks
}

// interpolate refines a maximum by fitting a parabola through the bin and its neighbors
func interpolate(mags []float64, bin int, resolution float64) Peak {
	peak := Peak{
		Frequency: float64(bin) * resolution,
		Magnitude: mags[bin],
		Bin:       bin,
	}

	y1, y2, y3 := mags[bin-1], mags[bin], mags[bin+1]
	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) <= 1e-12 {
		return peak
	}

	offset := (y3 - y1) / denom
	a := 0.5 * (y1 - 2.0*y2 + y3)
	b := 0.5 * (y3 - y1)

	peak.Frequency = (float64(bin) + offset) * resolution
	peak.Magnitude = y2 + a*offset*offset + b*offset
	return peak
}

func comparePeaks(a, b Peak) int {
	switch {
	case a.Magnitude > b.Magnitude:
		return -1
	case a.Magnitude < b.Magnitude:
		return 1
	case a.Frequency < b.Frequency:
		return -1
	case a.Frequency > b.Frequency:
		return 1
	}
	return 0
}

// PeakStats summarizes a set of detected peaks
type PeakStats struct {
	Count         int     `json:"count"`
	MaxMagnitude  float64 `json:"max_magnitude"`
	MinMagnitude  float64 `json:"min_magnitude"`
	MeanMagnitude float64 `json:"mean_magnitude"`
	MinFrequency  float64 `json:"min_frequency"`
	MaxFrequency  float64 `json:"max_frequency"`
}

// Summarize calculates statistics for detected peaks
func Summarize(peaks []Peak) PeakStats {
	if len(peaks) == 0 {
		return PeakStats{}
	}

	mags := make([]float64, len(peaks))
	freqs := make([]float64, len(peaks))
	for i, p := range peaks {
		mags[i] = p.Magnitude
		freqs[i] = p.Frequency
	}

	return PeakStats{
		Count:         len(peaks),
		MaxMagnitude:  floats.Max(mags),
		MinMagnitude:  floats.Min(mags),
		MeanMagnitude: floats.Sum(mags) / float64(len(mags)),
		MinFrequency:  floats.Min(freqs),
		MaxFrequency:  floats.Max(freqs),
	}
}
