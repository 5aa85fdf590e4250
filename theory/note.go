package theory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Note is a pitch class in a specific octave (scientific pitch notation, C4 = middle C)
type Note struct {
	Class  PitchClass
	Octave int
}

// NewNote creates a note
func NewNote(class PitchClass, octave int) Note {
	return Note{Class: class % PitchClassCount, Octave: octave}
}

// NoteFromSemitone converts a semitone index (C0 = 0) to a note
func NoteFromSemitone(semitone int) Note {
	octave := semitone / PitchClassCount
	if semitone < 0 && semitone%PitchClassCount != 0 {
		octave--
	}
	return Note{Class: PitchClassOf(semitone), Octave: octave}
}

// NoteFromFrequency returns the nearest equal-tempered note and the deviation in cents
func NoteFromFrequency(frequency, tuningA4 float64) (Note, float64, error) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return Note{}, 0, fmt.Errorf("invalid frequency %v", frequency)
	}
	if tuningA4 <= 0 {
		tuningA4 = DefaultTuningA4
	}

	// semitones relative to A4, which sits 57 semitones above C0
	exact := 12 * math.Log2(frequency/tuningA4)
	nearest := math.Round(exact)
	cents := (exact - nearest) * 100

	return NoteFromSemitone(int(nearest) + 57), cents, nil
}

// Semitone is the distance in semitones from C0
func (n Note) Semitone() int {
	return n.Octave*PitchClassCount + int(n.Class)
}

// MIDI returns the MIDI note number (C4 = 60)
func (n Note) MIDI() int {
	return n.Semitone() + 12
}

// Frequency returns the equal-tempered frequency for the given A4 tuning
func (n Note) Frequency(tuningA4 float64) float64 {
	if tuningA4 <= 0 {
		tuningA4 = DefaultTuningA4
	}
	return tuningA4 * math.Pow(2, float64(n.Semitone()-57)/12)
}

// Transpose returns the note moved by a signed number of semitones
func (n Note) Transpose(semitones int) Note {
	return NoteFromSemitone(n.Semitone() + semitones)
}

// Compare orders notes by pitch height: -1 if n is lower, 0 if equal, 1 if higher
func (n Note) Compare(other Note) int {
	a, b := n.Semitone(), other.Semitone()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

// ParseNote parses names such as "C4", "Eb3" or "F#-1"
func ParseNote(s string) (Note, error) {
	pc, rest, err := parsePitchPrefix(strings.TrimSpace(s))
	if err != nil {
		return Note{}, err
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("invalid octave in note %q", s)
	}
	return NewNote(pc, octave), nil
}
