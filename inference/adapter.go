package inference

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/RyanBlaney/sonido-kord/theory"
)

// Adapter scores windows with a trained model. An adapter whose model failed to
// load stays usable but unavailable, so callers can fall back to the heuristic path.
type Adapter struct {
	model *Model
	err   error
}

// NewAdapter wraps an already loaded model
func NewAdapter(model *Model) *Adapter {
	if model == nil {
		return &Adapter{err: ErrModelUnavailable}
	}
	return &Adapter{model: model}
}

// Open loads a model artifact for the catalog. It never fails: problems are
// logged and reported through Available and Err.
func Open(path string, catalog *theory.Catalog, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{
		"component": "inference_adapter",
		"path":      path,
	})

	if path == "" {
		logger.Debug("No model configured, using heuristic matching only")
		return &Adapter{err: fmt.Errorf("%w: no model path", ErrModelUnavailable)}
	}

	model, err := LoadFile(path, catalog)
	if err != nil {
		if errors.Is(err, ErrModelCatalogMismatch) {
			logger.Error(err, "Model does not match the chord catalog, using heuristic matching only", logging.Fields{
				"catalog_size": catalog.Len(),
			})
		} else {
			logger.Warn("Failed to load model, using heuristic matching only", logging.Fields{
				"error": err.Error(),
			})
		}
		return &Adapter{err: err}
	}

	logger.Info("Model loaded", logging.Fields{
		"features":     string(model.Features()),
		"layers":       model.Layers(),
		"catalog_size": model.OutputSize(),
	})
	return &Adapter{model: model}
}

// Available reports whether a model is loaded
func (a *Adapter) Available() bool {
	return a != nil && a.model != nil
}

// Err returns why the adapter is unavailable, nil when it is available
func (a *Adapter) Err() error {
	if a == nil {
		return ErrModelUnavailable
	}
	return a.err
}

// Model returns the loaded model, nil when unavailable
func (a *Adapter) Model() *Model {
	if a == nil {
		return nil
	}
	return a.model
}

// Name identifies the adapter as a scorer
func (a *Adapter) Name() string {
	return "learned"
}

// Score returns a probability per catalog template
func (a *Adapter) Score(profile chroma.Profile, spectrum *spectral.Spectrum) ([]float64, error) {
	if !a.Available() {
		return nil, a.Err()
	}

	features, err := Features(a.model.Features(), a.model.Bands(), profile, spectrum)
	if err != nil {
		return nil, err
	}
	return a.model.Predict(features)
}
