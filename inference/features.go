package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"gonum.org/v1/gonum/floats"
)

// Band energies cover 55 Hz (A1) to 5 kHz
const (
	bandMinHz = 55.0
	bandMaxHz = 5000.0
)

// BandEdges returns bands+1 logarithmically spaced edges in Hz
func BandEdges(bands int) []float64 {
	if bands <= 0 {
		return nil
	}
	edges := make([]float64, bands+1)
	ratio := math.Log(bandMaxHz / bandMinHz)
	for i := range edges {
		edges[i] = bandMinHz * math.Exp(ratio*float64(i)/float64(bands))
	}
	return edges
}

// Features builds the model input for one window. Band energies are scaled
// to sum to 1 so the vector does not depend on loudness.
func Features(set FeatureSet, bands int, profile chroma.Profile, spectrum *spectral.Spectrum) ([]float64, error) {
	switch set {
	case FeaturesPCP:
		return profile.Vector(), nil
	case FeaturesPCPBands:
	default:
		return nil, fmt.Errorf("unknown feature set %q", set)
	}

	if spectrum == nil {
		return nil, errors.New("band features need a spectrum")
	}

	edges := BandEdges(bands)
	energies := make([]float64, bands)
	for i := range energies {
		energies[i] = spectrum.Energy(edges[i], edges[i+1])
	}
	if sum := floats.Sum(energies); sum > 0 {
		floats.Scale(1/sum, energies)
	}

	return append(profile.Vector(), energies...), nil
}
