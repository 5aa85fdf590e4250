package theory

// Quality is a chord type defined by semitone offsets from the root
type Quality struct {
	Name    string   // Descriptive name ("major", "minor seventh", ...)
	Symbol  string   // Canonical suffix used when formatting ("", "m", "maj7", ...)
	Aliases []string // Extra suffixes accepted when parsing
	Offsets []int    // Ascending semitone offsets, starting at 0
}

// Known chord qualities
var (
	Power           = Quality{Name: "power", Symbol: "5", Offsets: []int{0, 7}}
	Major           = Quality{Name: "major", Symbol: "", Aliases: []string{"maj", "M", "major"}, Offsets: []int{0, 4, 7}}
	Minor           = Quality{Name: "minor", Symbol: "m", Aliases: []string{"min", "-", "minor"}, Offsets: []int{0, 3, 7}}
	Diminished      = Quality{Name: "diminished", Symbol: "dim", Aliases: []string{"°", "o"}, Offsets: []int{0, 3, 6}}
	Augmented       = Quality{Name: "augmented", Symbol: "aug", Aliases: []string{"+"}, Offsets: []int{0, 4, 8}}
	Sus2            = Quality{Name: "suspended second", Symbol: "sus2", Offsets: []int{0, 2, 7}}
	Sus4            = Quality{Name: "suspended fourth", Symbol: "sus4", Aliases: []string{"sus"}, Offsets: []int{0, 5, 7}}
	Sixth           = Quality{Name: "sixth", Symbol: "6", Aliases: []string{"maj6", "M6"}, Offsets: []int{0, 4, 7, 9}}
	MinorSixth      = Quality{Name: "minor sixth", Symbol: "m6", Aliases: []string{"min6", "-6"}, Offsets: []int{0, 3, 7, 9}}
	Dominant7       = Quality{Name: "dominant seventh", Symbol: "7", Aliases: []string{"dom7"}, Offsets: []int{0, 4, 7, 10}}
	Major7          = Quality{Name: "major seventh", Symbol: "maj7", Aliases: []string{"M7", "Δ7", "Δ", "ma7"}, Offsets: []int{0, 4, 7, 11}}
	Minor7          = Quality{Name: "minor seventh", Symbol: "m7", Aliases: []string{"min7", "-7"}, Offsets: []int{0, 3, 7, 10}}
	HalfDiminished7 = Quality{Name: "half-diminished seventh", Symbol: "m7b5", Aliases: []string{"ø", "ø7", "min7b5", "-7b5"}, Offsets: []int{0, 3, 6, 10}}
	Diminished7     = Quality{Name: "diminished seventh", Symbol: "dim7", Aliases: []string{"°7", "o7"}, Offsets: []int{0, 3, 6, 9}}
	MinorMajor7     = Quality{Name: "minor-major seventh", Symbol: "m(maj7)", Aliases: []string{"mM7", "m(M7)", "minmaj7", "mmaj7"}, Offsets: []int{0, 3, 7, 11}}
	Add9            = Quality{Name: "added ninth", Symbol: "add9", Aliases: []string{"add2"}, Offsets: []int{0, 4, 7, 14}}
	Dominant9       = Quality{Name: "dominant ninth", Symbol: "9", Aliases: []string{"dom9"}, Offsets: []int{0, 4, 7, 10, 14}}
	Major9          = Quality{Name: "major ninth", Symbol: "maj9", Aliases: []string{"M9", "Δ9"}, Offsets: []int{0, 4, 7, 11, 14}}
	Minor9          = Quality{Name: "minor ninth", Symbol: "m9", Aliases: []string{"min9", "-9"}, Offsets: []int{0, 3, 7, 10, 14}}
)

// KnownQualities lists every quality the parser understands
func KnownQualities() []Quality {
	return []Quality{
		Power, Major, Minor, Diminished, Augmented, Sus2, Sus4, Sixth, MinorSixth,
		Dominant7, Major7, Minor7, HalfDiminished7, Diminished7, MinorMajor7,
		Add9, Dominant9, Major9, Minor9,
	}
}

// DefaultQualities is the recognition set. No two of its templates share a
// pitch-class set under any transposition, so every exact profile has one best match.
func DefaultQualities() []Quality {
	return []Quality{
		Power, Major, Minor, Diminished, Sus4,
		Dominant7, Major7, Minor7, HalfDiminished7, MinorMajor7,
		Add9, Dominant9, Major9, Minor9,
	}
}

// Len is the number of chord tones
func (q Quality) Len() int {
	return len(q.Offsets)
}

// HasMinorThird reports whether the quality contains a minor third above the root
// and no major third
func (q Quality) HasMinorThird() bool {
	minor, major := false, false
	for _, o := range q.Offsets {
		switch mod12(o) {
		case 3:
			minor = true
		case 4:
			major = true
		}
	}
	return minor && !major
}

// Equal compares names and offsets
func (q Quality) Equal(other Quality) bool {
	if q.Name != other.Name || len(q.Offsets) != len(other.Offsets) {
		return false
	}
	for i := range q.Offsets {
		if q.Offsets[i] != other.Offsets[i] {
			return false
		}
	}
	return true
}

// Intervals returns the offsets as intervals
func (q Quality) Intervals() []Interval {
	intervals := make([]Interval, len(q.Offsets))
	for i, o := range q.Offsets {
		intervals[i] = Interval(o)
	}
	return intervals
}
