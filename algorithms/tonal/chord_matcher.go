package tonal

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/theory"
	"gonum.org/v1/gonum/floats"
)

// Candidate is a catalog template scored against a profile
type Candidate struct {
	Template theory.Template `json:"-"`
	Index    int             `json:"index"` // Position in the catalog
	Score    float64         `json:"score"` // Cosine similarity in [0, 1]
}

// Name returns the chord symbol of the candidate
func (c Candidate) Name() string {
	return c.Template.Name()
}

// CompareCandidates orders candidates by descending score, then fewer notes,
// then lower root pitch class, then lower catalog index
func CompareCandidates(a, b Candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.Template.Len() != b.Template.Len():
		return a.Template.Len() - b.Template.Len()
	case a.Template.Root != b.Template.Root:
		return int(a.Template.Root) - int(b.Template.Root)
	}
	return a.Index - b.Index
}

// SortCandidates sorts in place using CompareCandidates
func SortCandidates(cands []Candidate) {
	slices.SortFunc(cands, CompareCandidates)
}

// Top returns the first k candidates, or all of them when k <= 0 or k exceeds the length
func Top(cands []Candidate, k int) []Candidate {
	if k <= 0 || k >= len(cands) {
		return cands
	}
	return cands[:k]
}

// Matcher scores profiles against every template of a catalog by cosine
// similarity. Template vectors are built once; the matcher is read-only afterwards.
type Matcher struct {
	catalog   *theory.Catalog
	templates [][]float64 // unit-norm ideal profiles, indexed like the catalog
}

// NewMatcher precomputes the ideal profile of every catalog template
func NewMatcher(catalog *theory.Catalog) (*Matcher, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, theory.ErrEmptyCatalog
	}

	m := &Matcher{
		catalog:   catalog,
		templates: make([][]float64, catalog.Len()),
	}

	for i := range catalog.Len() {
		t := catalog.At(i)
		vec := make([]float64, theory.PitchClassCount)
		weight := 1 / math.Sqrt(float64(t.Len()))
		for _, pc := range t.PitchClasses() {
			vec[pc] = weight
		}
		m.templates[i] = vec
	}

	return m, nil
}

// Name identifies the matcher as a scorer
func (m *Matcher) Name() string {
	return "heuristic"
}

// Catalog returns the catalog the matcher scores against
func (m *Matcher) Catalog() *theory.Catalog {
	return m.catalog
}

// Score returns the cosine similarity of the profile to each template, indexed
// like the catalog. The spectrum is not consulted. An empty profile scores 0 everywhere.
func (m *Matcher) Score(profile chroma.Profile, _ *spectral.Spectrum) ([]float64, error) {
	scores := make([]float64, len(m.templates))
	if profile.Empty() {
		return scores, nil
	}

	v := profile.Vector()
	norm := floats.Norm(v, 2)
	for i, tmpl := range m.templates {
		s := floats.Dot(v, tmpl) / norm
		scores[i] = math.Min(math.Max(s, 0), 1)
	}
	return scores, nil
}

// Match returns a candidate for every template in ranking order. An empty
// profile has no candidates.
func (m *Matcher) Match(profile chroma.Profile) []Candidate {
	if profile.Empty() {
		return []Candidate{}
	}

	scores, _ := m.Score(profile, nil)
	return m.Candidates(scores)
}

// Candidates pairs per-template scores with their templates and ranks them
func (m *Matcher) Candidates(scores []float64) []Candidate {
	n := min(len(scores), m.catalog.Len())
	cands := make([]Candidate, n)
	for i := range n {
		cands[i] = Candidate{Template: m.catalog.At(i), Index: i, Score: scores[i]}
	}
	SortCandidates(cands)
	return cands
}
