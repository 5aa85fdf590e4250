package theory

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrEmptyCatalog means catalog generation produced no templates
	ErrEmptyCatalog = errors.New("empty chord catalog")

	// ErrInvalidTemplate means a quality's offsets break the template invariants
	ErrInvalidTemplate = errors.New("invalid chord template")

	// ErrDuplicateTemplate means the same (root, quality) pair was generated twice
	ErrDuplicateTemplate = errors.New("duplicate chord template")
)

// Catalog is the ordered, read-only set of chord templates (qualities x 12 roots).
// The order is part of the contract with trained models and must stay deterministic.
type Catalog struct {
	templates []Template
	byName    map[string]int
	checksum  uint64
}

// NewCatalog generates templates quality by quality, each over roots C..B
func NewCatalog(qualities ...Quality) (*Catalog, error) {
	if len(qualities) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		templates: make([]Template, 0, len(qualities)*PitchClassCount),
		byName:    make(map[string]int, len(qualities)*PitchClassCount),
	}

	for _, q := range qualities {
		for root := range PitchClassCount {
			t, err := NewTemplate(PitchClass(root), q)
			if err != nil {
				return nil, err
			}
			name := t.Name()
			if _, exists := c.byName[name]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, name)
			}
			c.byName[name] = len(c.templates)
			c.templates = append(c.templates, t)
		}
	}

	if len(c.templates) == 0 {
		return nil, ErrEmptyCatalog
	}

	c.checksum = checksumOf(c.templates)
	return c, nil
}

// DefaultCatalog builds the catalog from DefaultQualities
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultQualities()...)
}

// MustDefaultCatalog is DefaultCatalog for start-up code; failure is a programming error
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("theory: default catalog: %v", err))
	}
	return c
}

func checksumOf(templates []Template) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(len(templates)))
	for _, t := range templates {
		_, _ = d.WriteString("\n")
		_, _ = d.WriteString(t.Name())
	}
	return d.Sum64()
}

// Len returns the number of templates
func (c *Catalog) Len() int {
	return len(c.templates)
}

// At returns the template at index i
func (c *Catalog) At(i int) Template {
	return c.templates[i]
}

// Templates returns a copy of the ordered templates
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// IndexOf returns the catalog index of t, or -1
func (c *Catalog) IndexOf(t Template) int {
	i, ok := c.byName[t.Name()]
	if !ok || !c.templates[i].Equal(t) {
		return -1
	}
	return i
}

// Lookup parses a chord name and returns its catalog index
func (c *Catalog) Lookup(name string) (Template, int, error) {
	t, err := ParseChord(name)
	if err != nil {
		return Template{}, -1, err
	}
	i := c.IndexOf(t)
	if i < 0 {
		return t, -1, fmt.Errorf("chord %s is not in the catalog", t.Name())
	}
	return t, i, nil
}

// Checksum fingerprints the catalog size and ordering
func (c *Catalog) Checksum() uint64 {
	return c.checksum
}
