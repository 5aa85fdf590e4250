package config

import (
	"fmt"

	"github.com/RyanBlaney/sonido-kord/theory"
)

// ResolveQualities maps the configured names to chord qualities
func (m MatcherConfig) ResolveQualities() ([]theory.Quality, error) {
	if len(m.Qualities) == 0 {
		return theory.DefaultQualities(), nil
	}

	qualities := make([]theory.Quality, 0, len(m.Qualities))
	for _, name := range m.Qualities {
		q, err := theory.LookupQuality(name)
		if err != nil {
			return nil, err
		}
		qualities = append(qualities, q)
	}
	return qualities, nil
}

// Catalog builds the chord catalog for the configured qualities
func (m MatcherConfig) Catalog() (*theory.Catalog, error) {
	qualities, err := m.ResolveQualities()
	if err != nil {
		return nil, fmt.Errorf("%w: matcher: %v", ErrInvalidConfig, err)
	}
	return theory.NewCatalog(qualities...)
}
