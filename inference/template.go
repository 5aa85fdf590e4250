package inference

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kord/theory"
)

// NewTemplateArtifact builds a single-layer model whose logits are gain times the
// projection of the profile onto each unit template. Its ranking follows the
// heuristic matcher; it seeds training and serves as a reference model.
func NewTemplateArtifact(catalog *theory.Catalog, features FeatureSet, bands int, gain float64) (*Artifact, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, theory.ErrEmptyCatalog
	}
	if features == FeaturesPCP {
		bands = 0
	}
	if gain <= 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil, fmt.Errorf("gain %g must be positive", gain)
	}

	a := &Artifact{
		Version:         FormatVersion,
		Features:        features,
		Bands:           bands,
		CatalogSize:     catalog.Len(),
		CatalogChecksum: catalog.Checksum(),
	}
	inputs := a.InputSize()

	weights := make([]float64, inputs*catalog.Len())
	for i, t := range catalog.Templates() {
		w := gain / math.Sqrt(float64(t.Len()))
		for _, pc := range t.PitchClasses() {
			weights[i*inputs+int(pc)] = w
		}
	}

	a.Layers = []Layer{{
		Inputs:     inputs,
		Outputs:    catalog.Len(),
		Weights:    weights,
		Bias:       make([]float64, catalog.Len()),
		Activation: ActivationLinear,
	}}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
