package chroma

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-kord/theory"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidProfile is returned for bins that are negative, non-finite or not 12 long
var ErrInvalidProfile = errors.New("invalid pitch class profile")

// Profile is a 12-bin pitch class energy distribution indexed by theory.PitchClass.
// Bins sum to 1, or are all zero when nothing was detected.
type Profile struct {
	bins [12]float64
}

// NewProfile validates raw bin energies and normalizes them to sum to 1
func NewProfile(bins []float64) (Profile, error) {
	if len(bins) != 12 {
		return Profile{}, fmt.Errorf("%w: %d bins", ErrInvalidProfile, len(bins))
	}

	var p Profile
	for i, v := range bins {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Profile{}, fmt.Errorf("%w: bin %d is %v", ErrInvalidProfile, i, v)
		}
		p.bins[i] = v
	}
	p.normalize()
	return p, nil
}

// MustProfile is NewProfile for literals known to be valid
func MustProfile(bins ...float64) Profile {
	p, err := NewProfile(bins)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Profile) normalize() {
	sum := floats.Sum(p.bins[:])
	if sum <= 0 {
		p.bins = [12]float64{}
		return
	}
	floats.Scale(1/sum, p.bins[:])
}

// Bin returns the energy of one pitch class
func (p Profile) Bin(pc theory.PitchClass) float64 {
	return p.bins[pc%12]
}

// Bins returns all 12 bins
func (p Profile) Bins() [12]float64 {
	return p.bins
}

// Vector returns the bins as a fresh slice
func (p Profile) Vector() []float64 {
	v := make([]float64, 12)
	copy(v, p.bins[:])
	return v
}

// Empty reports whether no energy was detected
func (p Profile) Empty() bool {
	return p.bins == [12]float64{}
}

// Sum returns the total energy, 1 or 0
func (p Profile) Sum() float64 {
	return floats.Sum(p.bins[:])
}

// Dominant returns up to n pitch classes with non-zero energy, strongest first
func (p Profile) Dominant(n int) []theory.PitchClass {
	var classes []theory.PitchClass
	for _, pc := range theory.AllPitchClasses() {
		if p.bins[pc] > 0 {
			classes = append(classes, pc)
		}
	}

	slices.SortStableFunc(classes, func(a, b theory.PitchClass) int {
		switch {
		case p.bins[a] > p.bins[b]:
			return -1
		case p.bins[a] < p.bins[b]:
			return 1
		}
		return 0
	})

	if n >= 0 && len(classes) > n {
		classes = classes[:n]
	}
	return classes
}

// Entropy is the Shannon entropy of the distribution in nats; 0 when empty
func (p Profile) Entropy() float64 {
	if p.Empty() {
		return 0
	}
	return stat.Entropy(p.bins[:])
}

// Transpose rotates the profile so energy at pc moves to pc+semitones
func (p Profile) Transpose(semitones int) Profile {
	var out Profile
	for _, pc := range theory.AllPitchClasses() {
		out.bins[pc.Transpose(semitones)] = p.bins[pc]
	}
	return out
}

func (p Profile) String() string {
	var sb strings.Builder
	for i, pc := range theory.AllPitchClasses() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:%.3f", pc, p.bins[pc])
	}
	return sb.String()
}
