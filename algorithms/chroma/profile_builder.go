package chroma

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kord/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-kord/theory"
)

// ProfileParams configures how peaks are folded into pitch classes
type ProfileParams struct {
	TuningA4          float64 `json:"tuning_a4" yaml:"tuning_a4"`
	MaxDeviationCents float64 `json:"max_deviation_cents" yaml:"max_deviation_cents"`
	HarmonicDecay     float64 `json:"harmonic_decay" yaml:"harmonic_decay"` // Weight of overtone h is decay^(h-1)
	Harmonics         int     `json:"harmonics" yaml:"harmonics"`           // Overtones folded per peak (2 = 2f and 3f)
	MinFrequency      float64 `json:"min_frequency" yaml:"min_frequency"`
	MaxFrequency      float64 `json:"max_frequency" yaml:"max_frequency"`
}

// DefaultProfileParams returns profile builder defaults
func DefaultProfileParams() ProfileParams {
	return ProfileParams{
		TuningA4:          theory.DefaultTuningA4,
		MaxDeviationCents: 50,
		HarmonicDecay:     0.5,
		Harmonics:         2,
		MinFrequency:      27.5,
		MaxFrequency:      5000,
	}
}

// Validate checks parameter ranges
func (p ProfileParams) Validate() error {
	switch {
	case !(p.TuningA4 > 0):
		return fmt.Errorf("tuning %g must be positive", p.TuningA4)
	case !(p.MaxDeviationCents > 0 && p.MaxDeviationCents <= 50):
		return fmt.Errorf("max deviation %g cents must be within (0, 50]", p.MaxDeviationCents)
	case !(p.HarmonicDecay >= 0 && p.HarmonicDecay <= 1):
		return fmt.Errorf("harmonic decay %g must be within [0, 1]", p.HarmonicDecay)
	case p.Harmonics < 0:
		return fmt.Errorf("harmonics %d must not be negative", p.Harmonics)
	case !(p.MinFrequency > 0 && p.MinFrequency < p.MaxFrequency):
		return fmt.Errorf("frequency band %g..%g is empty", p.MinFrequency, p.MaxFrequency)
	}
	return nil
}

// Builder folds spectral peaks into a pitch class profile
type Builder struct {
	params ProfileParams
}

// NewBuilder creates a profile builder
func NewBuilder(params ProfileParams) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Builder{params: params}, nil
}

// Params returns the builder configuration
func (b *Builder) Params() ProfileParams {
	return b.params
}

// Build maps each peak to its nearest pitch class and adds a decaying share of
// its magnitude to the classes of its overtones. Peaks outside the frequency band
// or more than MaxDeviationCents from a tempered pitch are dropped.
func (b *Builder) Build(peaks []harmonic.Peak) Profile {
	var p Profile

	for _, peak := range peaks {
		if peak.Magnitude <= 0 || peak.Frequency < b.params.MinFrequency || peak.Frequency > b.params.MaxFrequency {
			continue
		}

		note, cents, err := theory.NoteFromFrequency(peak.Frequency, b.params.TuningA4)
		if err != nil || math.Abs(cents) > b.params.MaxDeviationCents {
			continue
		}
		p.bins[note.Class] += peak.Magnitude

		weight := peak.Magnitude
		for h := 2; h <= b.params.Harmonics+1; h++ {
			weight *= b.params.HarmonicDecay
			overtone, _, err := theory.NoteFromFrequency(float64(h)*peak.Frequency, b.params.TuningA4)
			if err != nil {
				continue
			}
			p.bins[overtone.Class] += weight
		}
	}

	p.normalize()
	return p
}

// PitchClassOf returns the pitch class nearest to a frequency and its deviation in cents
func (b *Builder) PitchClassOf(frequency float64) (theory.PitchClass, float64, error) {
	note, cents, err := theory.NoteFromFrequency(frequency, b.params.TuningA4)
	if err != nil {
		return 0, 0, err
	}
	return note.Class, cents, nil
}
