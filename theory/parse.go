package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChord means the text is not valid chord notation
var ErrUnknownChord = errors.New("unknown chord")

// suffix -> quality, built once from KnownQualities and never written afterwards
var qualityBySuffix = func() map[string]Quality {
	m := make(map[string]Quality)
	for _, q := range KnownQualities() {
		m[q.Symbol] = q
		for _, alias := range q.Aliases {
			m[alias] = q
		}
	}
	return m
}()

// ParseChord parses chord notation such as "C", "F#m7", "Bbmaj9" or "Eø7"
func ParseChord(s string) (Template, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Template{}, fmt.Errorf("%w: empty input", ErrUnknownChord)
	}

	root, suffix, err := parsePitchPrefix(text)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %q: %v", ErrUnknownChord, s, err)
	}

	quality, ok := qualityBySuffix[suffix]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q: unrecognized quality %q", ErrUnknownChord, s, suffix)
	}

	return NewTemplate(root, quality)
}

// MustParseChord panics on invalid input; intended for tests and literals
func MustParseChord(s string) Template {
	t, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatChord returns the canonical notation for a template
func FormatChord(t Template) string {
	return t.Name()
}

// LookupQuality finds a known quality by descriptive name ("minor seventh") or
// by any suffix it is written with ("m7", "min7")
func LookupQuality(name string) (Quality, error) {
	text := strings.TrimSpace(name)
	for _, q := range KnownQualities() {
		if strings.EqualFold(q.Name, text) {
			return q, nil
		}
	}
	if q, ok := qualityBySuffix[text]; ok {
		return q, nil
	}
	return Quality{}, fmt.Errorf("%w: unrecognized quality %q", ErrUnknownChord, name)
}
