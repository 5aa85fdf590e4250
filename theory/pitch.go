// Package theory holds the symbolic music model shared by the text and audio
// paths: pitch classes, notes, intervals, chord qualities and the chord catalog.
package theory

import (
	"fmt"
	"strings"
)

// PitchClassCount is the number of pitch classes in twelve-tone equal temperament
const PitchClassCount = 12

// DefaultTuningA4 is the reference frequency of A4 in Hz
const DefaultTuningA4 = 440.0

// PitchClass is one of the 12 octave-equivalence classes (0=C, 1=C#/Db, ..., 11=B)
type PitchClass uint8

const (
	C PitchClass = iota
	CSharp
	D
	EFlat
	E
	F
	FSharp
	G
	AFlat
	A
	BFlat
	B
)

// Spelling selects how accidentals are written
type Spelling int

const (
	SharpSpelling Spelling = iota
	FlatSpelling
)

var (
	canonicalNames = [PitchClassCount]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}
	sharpNames     = [PitchClassCount]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames      = [PitchClassCount]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

	// Base frequencies at octave 0 (A4 = 440 Hz)
	baseFrequencies = [PitchClassCount]float64{
		16.35, 17.32, 18.35, 19.45, 20.60, 21.83, 23.12, 24.50, 25.96, 27.50, 29.14, 30.87,
	}

	naturalClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

	// major keys written with flats
	flatKeys = [PitchClassCount]bool{F: true, BFlat: true, EFlat: true, AFlat: true, CSharp: true}
)

// PitchClassOf reduces any semitone count to its pitch class
func PitchClassOf(semitones int) PitchClass {
	return PitchClass(mod12(semitones))
}

// AllPitchClasses returns C through B in ascending order
func AllPitchClasses() []PitchClass {
	classes := make([]PitchClass, PitchClassCount)
	for i := range classes {
		classes[i] = PitchClass(i)
	}
	return classes
}

// Valid reports whether pc is in [0,12)
func (pc PitchClass) Valid() bool {
	return pc < PitchClassCount
}

// String returns the canonical name (C, C#, D, Eb, E, F, F#, G, Ab, A, Bb, B)
func (pc PitchClass) String() string {
	if !pc.Valid() {
		return fmt.Sprintf("PitchClass(%d)", uint8(pc))
	}
	return canonicalNames[pc]
}

// Spell returns the name using the requested accidental
func (pc PitchClass) Spell(s Spelling) string {
	if !pc.Valid() {
		return pc.String()
	}
	if s == FlatSpelling {
		return flatNames[pc]
	}
	return sharpNames[pc]
}

// Transpose moves the pitch class by a signed number of semitones
func (pc PitchClass) Transpose(semitones int) PitchClass {
	return PitchClassOf(int(pc) + semitones)
}

// BaseFrequency is the frequency of this pitch class at octave 0
func (pc PitchClass) BaseFrequency() float64 {
	return baseFrequencies[pc%PitchClassCount]
}

// SpellingFor picks accidentals for a chord's tones. Roots with an accidental keep it;
// natural roots follow the key signature of their major key, or of the relative
// major when the chord has a minor third.
func SpellingFor(root PitchClass, minorThird bool) Spelling {
	switch name := canonicalNames[root%PitchClassCount]; {
	case strings.HasSuffix(name, "b"):
		return FlatSpelling
	case strings.HasSuffix(name, "#"):
		return SharpSpelling
	}

	key := root
	if minorThird {
		key = root.Transpose(3)
	}
	if flatKeys[key%PitchClassCount] {
		return FlatSpelling
	}
	return SharpSpelling
}

// ParsePitchClass parses a note name such as "C", "F#", "Bb", "E♭" or "Cx"
func ParsePitchClass(name string) (PitchClass, error) {
	pc, rest, err := parsePitchPrefix(strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("invalid pitch class %q: unexpected %q", name, rest)
	}
	return pc, nil
}

// parsePitchPrefix reads a letter and any accidentals from the front of s
func parsePitchPrefix(s string) (PitchClass, string, error) {
	if s == "" {
		return 0, "", fmt.Errorf("empty pitch name")
	}

	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	natural, ok := naturalClasses[letter]
	if !ok {
		return 0, "", fmt.Errorf("invalid pitch letter %q", s[:1])
	}

	offset := 0
	rest := s[1:]
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "#"):
			offset++
			rest = rest[1:]
		case strings.HasPrefix(rest, "♯"):
			offset++
			rest = rest[len("♯"):]
		case strings.HasPrefix(rest, "x"):
			offset += 2
			rest = rest[1:]
		case strings.HasPrefix(rest, "♭"):
			offset--
			rest = rest[len("♭"):]
		case strings.HasPrefix(rest, "b"):
			offset--
			rest = rest[1:]
		default:
			return PitchClassOf(natural + offset), rest, nil
		}
	}

	return PitchClassOf(natural + offset), rest, nil
}

func mod12(n int) int {
	m := n % PitchClassCount
	if m < 0 {
		m += PitchClassCount
	}
	return m
}
