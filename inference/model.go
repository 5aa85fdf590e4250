package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type dense struct {
	weights    *mat.Dense
	bias       *mat.VecDense
	activation Activation
}

// Model is a feed-forward classifier built from an artifact. It is read-only
// after construction and safe for concurrent use.
type Model struct {
	features FeatureSet
	bands    int
	inputs   int
	outputs  int
	checksum uint64
	layers   []dense
}

// NewModel builds the forward pass of a validated artifact
func NewModel(a *Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	m := &Model{
		features: a.Features,
		bands:    a.Bands,
		inputs:   a.InputSize(),
		outputs:  a.CatalogSize,
		checksum: a.CatalogChecksum,
		layers:   make([]dense, len(a.Layers)),
	}

	for i, l := range a.Layers {
		w := make([]float64, len(l.Weights))
		copy(w, l.Weights)
		b := make([]float64, len(l.Bias))
		copy(b, l.Bias)

		m.layers[i] = dense{
			weights:    mat.NewDense(l.Outputs, l.Inputs, w),
			bias:       mat.NewVecDense(l.Outputs, b),
			activation: l.Activation,
		}
	}

	return m, nil
}

// Features returns the input layout the model expects
func (m *Model) Features() FeatureSet {
	return m.features
}

// Bands returns the number of band energies following the profile bins
func (m *Model) Bands() int {
	return m.bands
}

// InputSize returns the feature vector length
func (m *Model) InputSize() int {
	return m.inputs
}

// OutputSize returns the number of classes, equal to the catalog size
func (m *Model) OutputSize() int {
	return m.outputs
}

// Layers returns the number of dense layers
func (m *Model) Layers() int {
	return len(m.layers)
}

// Predict runs the forward pass and returns a probability per catalog template
func (m *Model) Predict(features []float64) ([]float64, error) {
	if len(features) != m.inputs {
		return nil, fmt.Errorf("model takes %d features, got %d", m.inputs, len(features))
	}

	in := make([]float64, len(features))
	copy(in, features)
	x := mat.NewVecDense(len(in), in)

	for _, l := range m.layers {
		rows, _ := l.weights.Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)
		activate(l.activation, y.RawVector().Data)
		x = y
	}

	out := make([]float64, x.Len())
	copy(out, x.RawVector().Data)
	softmax(out)

	for _, p := range out {
		if math.IsNaN(p) {
			return nil, fmt.Errorf("model produced NaN")
		}
	}
	return out, nil
}

func activate(a Activation, v []float64) {
	switch a {
	case ActivationReLU:
		for i, x := range v {
			v[i] = math.Max(0, x)
		}
	case ActivationTanh:
		for i, x := range v {
			v[i] = math.Tanh(x)
		}
	}
}

// softmax normalizes logits in place, shifted by the max for stability
func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	peak := floats.Max(v)
	for i, x := range v {
		v[i] = math.Exp(x - peak)
	}
	floats.Scale(1/floats.Sum(v), v)
}
