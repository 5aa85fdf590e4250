package theory

import (
	"fmt"
	"strings"
)

// Template is a root pitch class plus a chord quality
type Template struct {
	Root    PitchClass
	Quality Quality
}

// NewTemplate creates a template after validating the quality's offsets
func NewTemplate(root PitchClass, quality Quality) (Template, error) {
	if !root.Valid() {
		return Template{}, fmt.Errorf("%w: root %d out of range", ErrInvalidTemplate, root)
	}
	if err := validateOffsets(quality); err != nil {
		return Template{}, err
	}
	return Template{Root: root, Quality: quality}, nil
}

// validateOffsets enforces: starts at 0, strictly ascending, unique pitch classes, span < 24
func validateOffsets(q Quality) error {
	if len(q.Offsets) == 0 {
		return fmt.Errorf("%w: quality %q has no offsets", ErrInvalidTemplate, q.Name)
	}
	if q.Offsets[0] != 0 {
		return fmt.Errorf("%w: quality %q must start at the root", ErrInvalidTemplate, q.Name)
	}

	var seen [PitchClassCount]bool
	for i, o := range q.Offsets {
		if i > 0 && o <= q.Offsets[i-1] {
			return fmt.Errorf("%w: quality %q offsets must ascend", ErrInvalidTemplate, q.Name)
		}
		if o >= 2*PitchClassCount {
			return fmt.Errorf("%w: quality %q spans %d semitones", ErrInvalidTemplate, q.Name, o)
		}
		pc := mod12(o)
		if seen[pc] {
			return fmt.Errorf("%w: quality %q repeats pitch class offset %d", ErrInvalidTemplate, q.Name, o)
		}
		seen[pc] = true
	}
	return nil
}

// Name returns the canonical chord symbol, e.g. "C", "F#m7", "Bbmaj9"
func (t Template) Name() string {
	return t.Root.String() + t.Quality.Symbol
}

func (t Template) String() string {
	return t.Name()
}

// Len is the number of chord tones
func (t Template) Len() int {
	return t.Quality.Len()
}

// Offsets returns a copy of the quality's offsets
func (t Template) Offsets() []int {
	offsets := make([]int, len(t.Quality.Offsets))
	copy(offsets, t.Quality.Offsets)
	return offsets
}

// PitchClasses returns the chord tones in voicing order starting from the root
func (t Template) PitchClasses() []PitchClass {
	classes := make([]PitchClass, len(t.Quality.Offsets))
	for i, o := range t.Quality.Offsets {
		classes[i] = t.Root.Transpose(o)
	}
	return classes
}

// Contains reports whether pc is a chord tone
func (t Template) Contains(pc PitchClass) bool {
	for _, o := range t.Quality.Offsets {
		if t.Root.Transpose(o) == pc {
			return true
		}
	}
	return false
}

// Mask returns the chord tones as a 12-slot membership array
func (t Template) Mask() [PitchClassCount]bool {
	var mask [PitchClassCount]bool
	for _, o := range t.Quality.Offsets {
		mask[t.Root.Transpose(o)] = true
	}
	return mask
}

// NoteNames spells the chord tones using the key implied by the root
func (t Template) NoteNames() []string {
	spelling := SpellingFor(t.Root, t.Quality.HasMinorThird())
	names := make([]string, 0, t.Len())
	for _, pc := range t.PitchClasses() {
		names = append(names, pc.Spell(spelling))
	}
	return names
}

// Intervals returns each chord tone's interval above the root
func (t Template) Intervals() []Interval {
	return t.Quality.Intervals()
}

// Voicing places the chord tones above a root in the given octave
func (t Template) Voicing(octave int) []Note {
	root := NewNote(t.Root, octave)
	notes := make([]Note, len(t.Quality.Offsets))
	for i, o := range t.Quality.Offsets {
		notes[i] = root.Transpose(o)
	}
	return notes
}

// Equal compares root and quality
func (t Template) Equal(other Template) bool {
	return t.Root == other.Root && t.Quality.Equal(other.Quality)
}

// Describe returns a one-line human description, e.g. "C major: C E G"
func (t Template) Describe() string {
	return fmt.Sprintf("%s %s: %s", t.Root, t.Quality.Name, strings.Join(t.NoteNames(), " "))
}
