package theory

import "fmt"

// Interval is a signed distance in semitones between two notes
type Interval int

var simpleIntervalNames = [PitchClassCount]string{
	"unison",
	"minor second",
	"major second",
	"minor third",
	"major third",
	"perfect fourth",
	"tritone",
	"perfect fifth",
	"minor sixth",
	"major sixth",
	"minor seventh",
	"major seventh",
}

// Compound intervals keep their own names instead of collapsing to the simple form
var compoundIntervalNames = [PitchClassCount]string{
	"octave",
	"minor ninth",
	"major ninth",
	"minor tenth",
	"major tenth",
	"perfect eleventh",
	"augmented eleventh",
	"perfect twelfth",
	"minor thirteenth",
	"major thirteenth",
	"minor fourteenth",
	"major fourteenth",
}

var simpleDegrees = [PitchClassCount]int{1, 2, 2, 3, 3, 4, 4, 5, 6, 6, 7, 7}

// IntervalBetween returns the signed interval from a to b
func IntervalBetween(a, b Note) Interval {
	return Interval(b.Semitone() - a.Semitone())
}

// Semitones returns the signed size
func (i Interval) Semitones() int {
	return int(i)
}

// Size returns the unsigned size
func (i Interval) Size() int {
	if i < 0 {
		return int(-i)
	}
	return int(i)
}

// Descending reports whether the interval goes down
func (i Interval) Descending() bool {
	return i < 0
}

// Simple reduces the interval to less than an octave (always non-negative)
func (i Interval) Simple() Interval {
	return Interval(mod12(i.Size()))
}

// Quality names the interval. Anything of an octave or more uses the compound table.
func (i Interval) Quality() string {
	size := i.Size()
	if size < PitchClassCount {
		return simpleIntervalNames[size]
	}
	return compoundIntervalNames[size%PitchClassCount]
}

// Degree returns the diatonic number (1 for unison, 3 for a third, 9 for a ninth...)
func (i Interval) Degree() int {
	size := i.Size()
	octaves := size / PitchClassCount
	return simpleDegrees[size%PitchClassCount] + 7*octaves
}

func (i Interval) String() string {
	if i < 0 {
		return fmt.Sprintf("descending %s", i.Quality())
	}
	return i.Quality()
}
