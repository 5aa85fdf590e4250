package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names an FFT implementation
type Backend string

const (
	BackendGoDSP Backend = "go-dsp"
	BackendGonum Backend = "gonum"
)

// FFT computes the non-negative half of a real-input transform
type FFT struct {
	backend Backend
}

// NewFFT creates an FFT calculator for the given backend. An empty name selects go-dsp.
func NewFFT(backend Backend) (*FFT, error) {
	switch backend {
	case "":
		backend = BackendGoDSP
	case BackendGoDSP, BackendGonum:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return &FFT{backend: backend}, nil
}

// Backend returns the backend in use
func (f *FFT) Backend() Backend {
	return f.backend
}

// Compute returns coefficients 0..N/2 of the transform of x
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	half := len(x)/2 + 1

	switch f.backend {
	case BackendGonum:
		// fourier.FFT keeps work buffers, so each call gets its own
		return fourier.NewFFT(len(x)).Coefficients(nil, x)
	default:
		return fft.FFTReal(x)[:half]
	}
}
