package chroma

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kord/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteFreq(t *testing.T, name string) float64 {
	t.Helper()
	n, err := theory.ParseNote(name)
	require.NoError(t, err)
	return n.Frequency(theory.DefaultTuningA4)
}

func newBuilder(t *testing.T, params ProfileParams) *Builder {
	t.Helper()
	b, err := NewBuilder(params)
	require.NoError(t, err)
	return b
}

func TestBuildFoldsHarmonics(t *testing.T) {
	peaks := []harmonic.Peak{
		{Frequency: noteFreq(t, "C4"), Magnitude: 1},
		{Frequency: noteFreq(t, "E4"), Magnitude: 1},
		{Frequency: noteFreq(t, "G4"), Magnitude: 1},
	}

	p := newBuilder(t, DefaultProfileParams()).Build(peaks)

	total := 5.25
	assert.InDelta(t, 1.5/total, p.Bin(theory.C), 1e-9)
	assert.InDelta(t, 1.5/total, p.Bin(theory.E), 1e-9)
	assert.InDelta(t, 1.75/total, p.Bin(theory.G), 1e-9)
	assert.InDelta(t, 0.25/total, p.Bin(theory.B), 1e-9)
	assert.InDelta(t, 0.25/total, p.Bin(theory.D), 1e-9)
	assert.InDelta(t, 1.0, p.Sum(), 1e-12)
	assert.Equal(t, []theory.PitchClass{theory.G, theory.C, theory.E}, p.Dominant(3))
}

func TestBuildWithoutHarmonics(t *testing.T) {
	params := DefaultProfileParams()
	params.HarmonicDecay = 0

	p := newBuilder(t, params).Build([]harmonic.Peak{
		{Frequency: noteFreq(t, "A3"), Magnitude: 3},
		{Frequency: noteFreq(t, "C5"), Magnitude: 1},
	})

	assert.InDelta(t, 0.75, p.Bin(theory.A), 1e-9)
	assert.InDelta(t, 0.25, p.Bin(theory.C), 1e-9)
	assert.InDelta(t, 0.0, p.Bin(theory.E), 1e-12)
}

func TestBuildDiscardsOutOfTunePeaks(t *testing.T) {
	b := newBuilder(t, DefaultProfileParams())

	sharp := 440 * math.Pow(2, 0.6/12)
	assert.True(t, b.Build([]harmonic.Peak{{Frequency: sharp, Magnitude: 1}}).Empty())

	slight := 440 * math.Pow(2, 0.3/12)
	p := b.Build([]harmonic.Peak{{Frequency: slight, Magnitude: 1}})
	assert.False(t, p.Empty())
	assert.Equal(t, []theory.PitchClass{theory.A}, p.Dominant(1))
}

func TestBuildFrequencyBand(t *testing.T) {
	b := newBuilder(t, DefaultProfileParams())

	p := b.Build([]harmonic.Peak{
		{Frequency: 20, Magnitude: 1},
		{Frequency: 7040, Magnitude: 1},
	})
	assert.True(t, p.Empty())
	assert.Equal(t, 0.0, p.Sum())
}

func TestBuildEmpty(t *testing.T) {
	p := newBuilder(t, DefaultProfileParams()).Build(nil)
	assert.True(t, p.Empty())
	assert.Equal(t, make([]float64, 12), p.Vector())
	assert.Empty(t, p.Dominant(3))
	assert.Equal(t, 0.0, p.Entropy())
}

func TestBuildIsLoudnessInvariant(t *testing.T) {
	b := newBuilder(t, DefaultProfileParams())
	peaks := []harmonic.Peak{
		{Frequency: noteFreq(t, "D4"), Magnitude: 0.8},
		{Frequency: noteFreq(t, "F4"), Magnitude: 0.5},
	}
	loud := []harmonic.Peak{
		{Frequency: peaks[0].Frequency, Magnitude: 8},
		{Frequency: peaks[1].Frequency, Magnitude: 5},
	}

	quiet, scaled := b.Build(peaks), b.Build(loud)
	for i := range 12 {
		pc := theory.PitchClass(i)
		assert.InDelta(t, quiet.Bin(pc), scaled.Bin(pc), 1e-12)
	}
}

func TestPitchClassOf(t *testing.T) {
	b := newBuilder(t, DefaultProfileParams())

	pc, cents, err := b.PitchClassOf(261.63)
	require.NoError(t, err)
	assert.Equal(t, theory.C, pc)
	assert.InDelta(t, 0.0, cents, 0.1)

	_, _, err = b.PitchClassOf(0)
	assert.Error(t, err)
}

func TestProfileParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultProfileParams().Validate())

	for name, mutate := range map[string]func(*ProfileParams){
		"tuning":    func(p *ProfileParams) { p.TuningA4 = 0 },
		"cents":     func(p *ProfileParams) { p.MaxDeviationCents = 60 },
		"decay":     func(p *ProfileParams) { p.HarmonicDecay = 1.5 },
		"harmonics": func(p *ProfileParams) { p.Harmonics = -1 },
		"band":      func(p *ProfileParams) { p.MinFrequency = 6000 },
	} {
		params := DefaultProfileParams()
		mutate(&params)
		_, err := NewBuilder(params)
		assert.Error(t, err, name)
	}
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile([]float64{2, 0, 0, 0, 2, 0, 0, 4, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p.Bin(theory.C), 1e-12)
	assert.InDelta(t, 0.5, p.Bin(theory.G), 1e-12)

	_, err = NewProfile([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = NewProfile([]float64{1, -1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = NewProfile([]float64{math.NaN(), 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	zero, err := NewProfile(make([]float64, 12))
	require.NoError(t, err)
	assert.True(t, zero.Empty())

	assert.Panics(t, func() { MustProfile(1, 2, 3) })
}

func TestProfileEntropyAndTranspose(t *testing.T) {
	p := MustProfile(1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0)
	assert.InDelta(t, math.Log(4), p.Entropy(), 1e-12)

	single := MustProfile(0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0)
	assert.InDelta(t, 0.0, single.Entropy(), 1e-12)

	up := single.Transpose(5)
	assert.Equal(t, 1.0, up.Bin(theory.D))
	assert.Equal(t, single, up.Transpose(-5))

	assert.Contains(t, single.String(), "A:1.000")
}
