package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchClassNames(t *testing.T) {
	names := make([]string, 0, PitchClassCount)
	for _, pc := range AllPitchClasses() {
		names = append(names, pc.String())
	}
	assert.Equal(t, []string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}, names)

	assert.Equal(t, "A#", BFlat.Spell(SharpSpelling))
	assert.Equal(t, "Gb", FSharp.Spell(FlatSpelling))
}

func TestPitchClassTranspose(t *testing.T) {
	assert.Equal(t, G, C.Transpose(7))
	assert.Equal(t, A, C.Transpose(-3))
	assert.Equal(t, C, B.Transpose(1))
	assert.Equal(t, E, PitchClassOf(-8))
}

func TestParsePitchClass(t *testing.T) {
	cases := map[string]PitchClass{
		"C":   C,
		"c#":  CSharp,
		"Db":  CSharp,
		"E♭":  EFlat,
		"F♯":  FSharp,
		"Cb":  B,
		"B#":  C,
		"Fb":  E,
		"Gx":  A,
		"Abb": G,
	}
	for in, want := range cases {
		got, err := ParsePitchClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "H", "C?", "#"} {
		_, err := ParsePitchClass(bad)
		assert.Error(t, err, bad)
	}
}

func TestSpellingFor(t *testing.T) {
	assert.Equal(t, FlatSpelling, SpellingFor(F, false))
	assert.Equal(t, SharpSpelling, SpellingFor(G, false))
	assert.Equal(t, FlatSpelling, SpellingFor(C, true))  // C minor -> Eb major
	assert.Equal(t, SharpSpelling, SpellingFor(E, true)) // E minor -> G major
	assert.Equal(t, FlatSpelling, SpellingFor(BFlat, true))
	assert.Equal(t, SharpSpelling, SpellingFor(CSharp, false))
}

func TestNoteFrequencies(t *testing.T) {
	a4 := NewNote(A, 4)
	assert.InDelta(t, 440.0, a4.Frequency(DefaultTuningA4), 1e-9)
	assert.Equal(t, 69, a4.MIDI())

	c4 := NewNote(C, 4)
	assert.InDelta(t, 261.63, c4.Frequency(DefaultTuningA4), 0.01)
	assert.Equal(t, 60, c4.MIDI())

	// octave-0 table agrees with equal temperament to two decimals
	for _, pc := range AllPitchClasses() {
		assert.InDelta(t, NewNote(pc, 0).Frequency(DefaultTuningA4), pc.BaseFrequency(), 0.01, pc.String())
	}
}

func TestNoteFromFrequency(t *testing.T) {
	note, cents, err := NoteFromFrequency(329.63, DefaultTuningA4)
	require.NoError(t, err)
	assert.Equal(t, NewNote(E, 4), note)
	assert.InDelta(t, 0, cents, 1)

	note, cents, err = NoteFromFrequency(452, DefaultTuningA4)
	require.NoError(t, err)
	assert.Equal(t, NewNote(A, 4), note)
	assert.Greater(t, cents, 40.0)

	note, _, err = NoteFromFrequency(16.35, DefaultTuningA4)
	require.NoError(t, err)
	assert.Equal(t, NewNote(C, 0), note)

	_, _, err = NoteFromFrequency(0, DefaultTuningA4)
	assert.Error(t, err)
}

func TestNoteOrderingAndParsing(t *testing.T) {
	b3 := NewNote(B, 3)
	c4 := MustNote(t, "C4")
	assert.Equal(t, -1, b3.Compare(c4))
	assert.Equal(t, 1, c4.Compare(b3))
	assert.Equal(t, 0, c4.Compare(NewNote(C, 4)))
	assert.Equal(t, c4, b3.Transpose(1))

	low := MustNote(t, "B-1")
	assert.Equal(t, -1, low.Octave)
	assert.Equal(t, NewNote(C, 0), low.Transpose(1))
	assert.Equal(t, "Eb3", MustNote(t, "D#3").String())

	_, err := ParseNote("C")
	assert.Error(t, err)
}

func MustNote(t *testing.T, s string) Note {
	t.Helper()
	n, err := ParseNote(s)
	require.NoError(t, err)
	return n
}

func TestIntervals(t *testing.T) {
	c4 := NewNote(C, 4)

	assert.Equal(t, "perfect fifth", IntervalBetween(c4, NewNote(G, 4)).Quality())
	assert.Equal(t, "tritone", Interval(6).Quality())
	assert.Equal(t, "octave", Interval(12).Quality())
	assert.Equal(t, "major ninth", Interval(14).Quality())
	assert.Equal(t, "perfect eleventh", Interval(17).Quality())
	assert.Equal(t, "major thirteenth", Interval(21).Quality())
	assert.Equal(t, "major ninth", Interval(26).Quality())

	down := IntervalBetween(NewNote(E, 4), c4)
	assert.True(t, down.Descending())
	assert.Equal(t, 4, down.Size())
	assert.Equal(t, "descending major third", down.String())

	assert.Equal(t, 1, Interval(0).Degree())
	assert.Equal(t, 3, Interval(3).Degree())
	assert.Equal(t, 8, Interval(12).Degree())
	assert.Equal(t, 9, Interval(14).Degree())
	assert.Equal(t, 13, Interval(21).Degree())
	assert.Equal(t, Interval(2), Interval(14).Simple())
}
