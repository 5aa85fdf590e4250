package recognition

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/algorithms/tonal"
	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/config"
	"github.com/RyanBlaney/sonido-kord/inference"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/google/uuid"
)

// Scorer assigns a score to every catalog template for one window.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Name() string
	Score(profile chroma.Profile, spectrum *spectral.Spectrum) ([]float64, error)
}

var (
	_ Scorer = (*tonal.Matcher)(nil)
	_ Scorer = (*inference.Adapter)(nil)
)

// Result is the outcome of recognizing one window
type Result struct {
	ID       string          `json:"id"`
	Start    time.Duration   `json:"start"`
	Peaks    []harmonic.Peak `json:"peaks"`
	Profile  chroma.Profile  `json:"-"`
	Decision *Decision       `json:"decision"`
	NoPeaks  bool            `json:"no_peaks"`

	tuningA4 float64
}

// Notes maps the detected peaks to notes, strongest first, without repeats
func (r *Result) Notes() []theory.Note {
	seen := make(map[theory.Note]bool, len(r.Peaks))
	notes := make([]theory.Note, 0, len(r.Peaks))
	for _, p := range r.Peaks {
		n, _, err := theory.NoteFromFrequency(p.Frequency, r.tuningA4)
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		notes = append(notes, n)
	}
	return notes
}

// Recognizer runs the full per-window pipeline: spectrum, peaks, profile,
// heuristic match, optional learned scoring and combination. It keeps no state
// between windows and may be used from many goroutines.
type Recognizer struct {
	catalog   *theory.Catalog
	cfg       config.Config
	analyzer  *spectral.Analyzer
	extractor *harmonic.PeakExtractor
	builder   *chroma.Builder
	matcher   *tonal.Matcher
	combiner  *Combiner
	learned   Scorer
	adapter   *inference.Adapter
	logger    logging.Logger
}

// Option configures a Recognizer
type Option func(*Recognizer)

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(r *Recognizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAdapter adds a model adapter. An unavailable adapter leaves the
// recognizer on the heuristic path.
func WithAdapter(adapter *inference.Adapter) Option {
	return func(r *Recognizer) {
		r.adapter = adapter
	}
}

// WithScorer adds a learned scorer. It takes precedence over WithAdapter.
func WithScorer(scorer Scorer) Option {
	return func(r *Recognizer) {
		r.learned = scorer
	}
}

// New builds a recognizer. A nil catalog is built from cfg.Matcher.
func New(catalog *theory.Catalog, cfg config.Config, opts ...Option) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if catalog == nil {
		var err error
		if catalog, err = cfg.Matcher.Catalog(); err != nil {
			return nil, err
		}
	}

	analyzer, err := spectral.NewAnalyzer(cfg.Spectral)
	if err != nil {
		return nil, err
	}
	extractor, err := harmonic.NewPeakExtractor(cfg.Peaks)
	if err != nil {
		return nil, err
	}
	builder, err := chroma.NewBuilder(cfg.Profile)
	if err != nil {
		return nil, err
	}
	matcher, err := tonal.NewMatcher(catalog)
	if err != nil {
		return nil, err
	}

	r := &Recognizer{
		catalog:   catalog,
		cfg:       cfg,
		analyzer:  analyzer,
		extractor: extractor,
		builder:   builder,
		matcher:   matcher,
		combiner:  NewCombiner(catalog, cfg.Combiner),
		logger:    logging.GetGlobalLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.logger = r.logger.WithFields(logging.Fields{
		"component": "recognizer",
	})

	if r.learned == nil && r.adapter != nil {
		if r.adapter.Available() {
			r.learned = r.adapter
		} else {
			r.logger.Info("Model unavailable, recognition is heuristic only", logging.Fields{
				"reason": fmt.Sprint(r.adapter.Err()),
			})
		}
	}

	return r, nil
}

// Catalog returns the chord catalog
func (r *Recognizer) Catalog() *theory.Catalog {
	return r.catalog
}

// Config returns the configuration
func (r *Recognizer) Config() config.Config {
	return r.cfg
}

// Learned returns the learned scorer, nil when heuristic only
func (r *Recognizer) Learned() Scorer {
	return r.learned
}

// Recognize analyzes one window. The only error is a rejected window; a window
// without peaks yields a Result with NoPeaks set and an empty decision.
func (r *Recognizer) Recognize(w *audio.Window) (*Result, error) {
	spectrum, err := r.analyzer.Analyze(w)
	if err != nil {
		return nil, err
	}

	peaks := r.extractor.Extract(spectrum)
	profile := r.builder.Build(peaks)
	heuristic := r.matcher.Match(profile)

	var learned []float64
	if r.learned != nil && !profile.Empty() {
		learned = r.scoreLearned(profile, spectrum)
	}

	result := &Result{
		ID:       uuid.NewString(),
		Start:    w.Start(),
		Peaks:    peaks,
		Profile:  profile,
		Decision: r.combiner.Combine(heuristic, learned),
		NoPeaks:  len(peaks) == 0,
		tuningA4: r.cfg.Profile.TuningA4,
	}

	if best, ok := result.Decision.Best(); ok {
		r.logger.Debug("Window recognized", logging.Fields{
			"id":         result.ID,
			"start":      result.Start.String(),
			"peaks":      len(peaks),
			"chord":      best.Name(),
			"confidence": best.Confidence,
			"source":     string(result.Decision.Source),
		})
	} else {
		r.logger.Debug("No peaks detected", logging.Fields{
			"id":    result.ID,
			"start": result.Start.String(),
		})
	}

	return result, nil
}

// scoreLearned runs the learned scorer; any failure degrades the window to
// heuristic only
func (r *Recognizer) scoreLearned(profile chroma.Profile, spectrum *spectral.Spectrum) []float64 {
	scores, err := r.learned.Score(profile, spectrum)
	if err != nil {
		r.logger.Warn("Learned scorer failed, using heuristic result", logging.Fields{
			"scorer": r.learned.Name(),
			"error":  err.Error(),
		})
		return nil
	}
	if len(scores) != r.catalog.Len() {
		r.logger.Warn("Learned scorer returned wrong number of scores, using heuristic result", logging.Fields{
			"scorer":       r.learned.Name(),
			"scores":       len(scores),
			"catalog_size": r.catalog.Len(),
		})
		return nil
	}
	return scores
}
