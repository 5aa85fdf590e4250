package spectral

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/RyanBlaney/sonido-kord/algorithms/windowing"
	"github.com/RyanBlaney/sonido-kord/audio"
)

var (
	ErrInvalidWindowSize = errors.New("invalid window size")
	ErrUnknownBackend    = errors.New("unknown fft backend")
)

// Params configures the spectral analyzer
type Params struct {
	Backend Backend `json:"backend" yaml:"backend"`
	MinSize int     `json:"min_size" yaml:"min_size"`
	MaxSize int     `json:"max_size" yaml:"max_size"`
}

// DefaultParams returns the supported window range 64..65536 on the go-dsp backend
func DefaultParams() Params {
	return Params{
		Backend: BackendGoDSP,
		MinSize: 64,
		MaxSize: 65536,
	}
}

// Validate checks that the size bounds are powers of two in order
func (p Params) Validate() error {
	if !audio.IsPowerOfTwo(p.MinSize) || !audio.IsPowerOfTwo(p.MaxSize) {
		return fmt.Errorf("%w: bounds %d..%d must be powers of two", ErrInvalidWindowSize, p.MinSize, p.MaxSize)
	}
	if p.MinSize < 2 || p.MinSize > p.MaxSize {
		return fmt.Errorf("%w: bounds %d..%d out of order", ErrInvalidWindowSize, p.MinSize, p.MaxSize)
	}
	return nil
}

// Analyzer turns analysis windows into magnitude spectra. It holds no per-call
// state and may be shared between goroutines.
type Analyzer struct {
	params Params
	fft    *FFT

	// size -> *windowing.Hann
	windows sync.Map
}

// NewAnalyzer creates an analyzer; zero size bounds fall back to the defaults
func NewAnalyzer(params Params) (*Analyzer, error) {
	defaults := DefaultParams()
	if params.MinSize == 0 {
		params.MinSize = defaults.MinSize
	}
	if params.MaxSize == 0 {
		params.MaxSize = defaults.MaxSize
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	f, err := NewFFT(params.Backend)
	if err != nil {
		return nil, err
	}
	params.Backend = f.Backend()

	return &Analyzer{params: params, fft: f}, nil
}

// Params returns the analyzer configuration
func (a *Analyzer) Params() Params {
	return a.params
}

// Supports reports whether n is an accepted window length
func (a *Analyzer) Supports(n int) bool {
	return audio.IsPowerOfTwo(n) && n >= a.params.MinSize && n <= a.params.MaxSize
}

// Analyze applies a Hann window and returns the N/2-bin magnitude spectrum.
// Magnitudes are scaled so a bin-centered sinusoid of amplitude A reads A.
func (a *Analyzer) Analyze(w *audio.Window) (*Spectrum, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil window", ErrInvalidWindowSize)
	}
	n := w.Len()
	if !a.Supports(n) {
		return nil, fmt.Errorf("%w: %d samples, need a power of two in [%d, %d]",
			ErrInvalidWindowSize, n, a.params.MinSize, a.params.MaxSize)
	}

	hann := a.window(n)
	windowed := hann.Apply(w.Samples())
	coeffs := a.fft.Compute(windowed)

	scale := 2.0 / (float64(n) * hann.CoherentGain())
	mags := make([]float64, n/2)
	for k := range mags {
		mags[k] = cmplx.Abs(coeffs[k]) * scale
	}

	return &Spectrum{magnitudes: mags, sampleRate: w.SampleRate(), size: n}, nil
}

func (a *Analyzer) window(n int) *windowing.Hann {
	if h, ok := a.windows.Load(n); ok {
		return h.(*windowing.Hann)
	}
	h, _ := a.windows.LoadOrStore(n, windowing.NewHann(n, false))
	return h.(*windowing.Hann)
}
