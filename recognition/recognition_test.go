package recognition

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/algorithms/tonal"
	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/config"
	"github.com/RyanBlaney/sonido-kord/inference"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate = 44100
	testSize = 8192
)

func chordWindow(t *testing.T, names ...string) *audio.Window {
	t.Helper()
	samples := make([]float64, testSize)
	for _, name := range names {
		n, err := theory.ParseNote(name)
		require.NoError(t, err)
		f := n.Frequency(theory.DefaultTuningA4)
		for i := range samples {
			samples[i] += 0.3 * math.Sin(2*math.Pi*f*float64(i)/testRate)
		}
	}
	w, err := audio.NewWindow(samples, testRate)
	require.NoError(t, err)
	return w
}

func newRecognizer(t *testing.T, opts ...Option) *Recognizer {
	t.Helper()
	opts = append([]Option{WithLogger(&logging.NoOpLogger{})}, opts...)
	r, err := New(theory.MustDefaultCatalog(), config.Default(), opts...)
	require.NoError(t, err)
	return r
}

func templateAdapter(t *testing.T, catalog *theory.Catalog) *inference.Adapter {
	t.Helper()
	a, err := inference.NewTemplateArtifact(catalog, inference.FeaturesPCP, 0, 20)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, inference.Write(&buf, a))
	model, err := inference.Load(&buf, catalog)
	require.NoError(t, err)
	return inference.NewAdapter(model)
}

type failingScorer struct{}

func (failingScorer) Name() string { return "failing" }
func (failingScorer) Score(chroma.Profile, *spectral.Spectrum) ([]float64, error) {
	return nil, errors.New("device lost")
}

type shortScorer struct{}

func (shortScorer) Name() string { return "short" }
func (shortScorer) Score(chroma.Profile, *spectral.Spectrum) ([]float64, error) {
	return []float64{1}, nil
}

func TestRecognizeCMajor(t *testing.T) {
	r := newRecognizer(t)

	res, err := r.Recognize(chordWindow(t, "C4", "E4", "G4"))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.False(t, res.NoPeaks)
	assert.Len(t, res.Peaks, 3)

	best, ok := res.Decision.Best()
	require.True(t, ok)
	assert.Equal(t, "C", best.Name())
	assert.Greater(t, best.Confidence, 0.9)
	assert.Equal(t, SourceHeuristic, res.Decision.Source)
	assert.Len(t, res.Decision.Candidates, 5)

	names := make([]string, 0, 3)
	for _, n := range res.Notes() {
		names = append(names, n.String())
	}
	assert.ElementsMatch(t, []string{"C4", "E4", "G4"}, names)
}

func TestRecognizeOtherChords(t *testing.T) {
	r := newRecognizer(t)

	for want, notes := range map[string][]string{
		"Am":    {"A3", "C4", "E4"},
		"G7":    {"G3", "B3", "D4", "F4"},
		"Dsus4": {"D4", "G4", "A4"},
	} {
		res, err := r.Recognize(chordWindow(t, notes...))
		require.NoError(t, err, want)
		best, ok := res.Decision.Best()
		require.True(t, ok, want)
		assert.Equal(t, want, best.Name())
	}
}

func TestRecognizeRejectsBadWindowSize(t *testing.T) {
	r := newRecognizer(t)

	w, err := audio.NewWindow(make([]float64, 100), testRate)
	require.NoError(t, err)

	res, err := r.Recognize(w)
	assert.ErrorIs(t, err, spectral.ErrInvalidWindowSize)
	assert.Nil(t, res)
}

func TestRecognizeSilence(t *testing.T) {
	r := newRecognizer(t, WithAdapter(templateAdapter(t, theory.MustDefaultCatalog())))

	w, err := audio.NewWindow(make([]float64, testSize), testRate)
	require.NoError(t, err)

	res, err := r.Recognize(w)
	require.NoError(t, err)
	assert.True(t, res.NoPeaks)
	assert.True(t, res.Profile.Empty())
	assert.Empty(t, res.Decision.Candidates)
	assert.Empty(t, res.Notes())

	_, ok := res.Decision.Best()
	assert.False(t, ok)
}

func TestUnavailableModelDegradesToHeuristic(t *testing.T) {
	w := chordWindow(t, "F3", "A3", "C4")
	heuristic := newRecognizer(t)
	want, err := heuristic.Recognize(w)
	require.NoError(t, err)

	unavailable := inference.Open("", theory.MustDefaultCatalog(), &logging.NoOpLogger{})
	require.False(t, unavailable.Available())

	for name, opt := range map[string]Option{
		"unavailable adapter": WithAdapter(unavailable),
		"failing scorer":      WithScorer(failingScorer{}),
		"short scorer":        WithScorer(shortScorer{}),
	} {
		t.Run(name, func(t *testing.T) {
			r := newRecognizer(t, opt)
			got, err := r.Recognize(w)
			require.NoError(t, err)
			assert.Equal(t, want.Decision, got.Decision)
			assert.Equal(t, SourceHeuristic, got.Decision.Source)
		})
	}
}

func TestCatalogMismatchDegradesToHeuristic(t *testing.T) {
	small, err := theory.NewCatalog(theory.Major, theory.Minor, theory.Dominant7)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "small.skm")
	a, err := inference.NewTemplateArtifact(small, inference.FeaturesPCP, 0, 10)
	require.NoError(t, err)
	require.NoError(t, inference.WriteFile(path, a))

	catalog := theory.MustDefaultCatalog()
	adapter := inference.Open(path, catalog, &logging.NoOpLogger{})
	assert.ErrorIs(t, adapter.Err(), inference.ErrModelCatalogMismatch)

	r := newRecognizer(t, WithAdapter(adapter))
	assert.Nil(t, r.Learned())

	res, err := r.Recognize(chordWindow(t, "C4", "E4", "G4"))
	require.NoError(t, err)
	assert.Equal(t, SourceHeuristic, res.Decision.Source)
}

func TestRecognizeWithModel(t *testing.T) {
	catalog := theory.MustDefaultCatalog()
	r := newRecognizer(t, WithAdapter(templateAdapter(t, catalog)))
	require.NotNil(t, r.Learned())

	res, err := r.Recognize(chordWindow(t, "C4", "E4", "G4"))
	require.NoError(t, err)

	assert.Equal(t, SourceCombined, res.Decision.Source)
	best, ok := res.Decision.Best()
	require.True(t, ok)
	assert.Equal(t, "C", best.Name())
	assert.Greater(t, best.Learned, 0.0)
	assert.LessOrEqual(t, len(res.Decision.Candidates), 5)

	for _, c := range res.Decision.Candidates {
		assert.InDelta(t, 0.5*c.Score+0.5*c.Learned, c.Confidence, 1e-12, c.Name())
	}
}

func TestRecognizeAllMatchesSequential(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 3
	r, err := New(nil, cfg, WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	chords := [][]string{
		{"C4", "E4", "G4"},
		{"A3", "C4", "E4"},
		{"G3", "B3", "D4", "F4"},
		{"D4", "F#4", "A4"},
		{"E4", "G4", "B4"},
		{"F3", "A3", "C4", "E4"},
	}
	windows := make([]*audio.Window, len(chords))
	for i, c := range chords {
		windows[i] = chordWindow(t, c...)
	}

	results, err := r.RecognizeAll(context.Background(), windows)
	require.NoError(t, err)
	require.Len(t, results, len(windows))

	for i, w := range windows {
		want, err := r.Recognize(w)
		require.NoError(t, err)
		assert.Equal(t, want.Decision, results[i].Decision, "window %d", i)
		assert.Equal(t, want.Peaks, results[i].Peaks, "window %d", i)
	}
}

func TestRecognizeAllIsolatesFailures(t *testing.T) {
	r := newRecognizer(t)

	bad, err := audio.NewWindow(make([]float64, 100), testRate)
	require.NoError(t, err)
	windows := []*audio.Window{chordWindow(t, "C4", "E4", "G4"), bad, chordWindow(t, "A3", "C4", "E4")}

	results, err := r.RecognizeAll(context.Background(), windows)
	require.Error(t, err)
	assert.ErrorIs(t, err, spectral.ErrInvalidWindowSize)

	var werr *WindowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 1, werr.Index)

	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])

	empty, err := r.RecognizeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecognizeAllCancelled(t *testing.T) {
	r := newRecognizer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RecognizeAll(ctx, []*audio.Window{chordWindow(t, "C4")})
	assert.ErrorIs(t, err, context.Canceled)
}

type sliceSource struct {
	windows []*audio.Window
	next    int
}

func (s *sliceSource) Next() (*audio.Window, error) {
	if s.next >= len(s.windows) {
		return nil, io.EOF
	}
	w := s.windows[s.next]
	s.next++
	return w, nil
}

func TestStream(t *testing.T) {
	r := newRecognizer(t)

	samples := chordWindow(t, "C4", "E4", "G4").Samples()
	samples = append(samples, samples...)
	framer, err := audio.NewFramer(samples, testRate, testSize, testSize/2)
	require.NoError(t, err)

	var chords []string
	err = r.Stream(context.Background(), framer, func(res *Result, err error) error {
		require.NoError(t, err)
		best, ok := res.Decision.Best()
		require.True(t, ok)
		chords = append(chords, best.Name())
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, chords, framer.Count())
	assert.Equal(t, "C", chords[0])
}

func TestStreamPassesWindowErrors(t *testing.T) {
	r := newRecognizer(t)

	bad, err := audio.NewWindow(make([]float64, 100), testRate)
	require.NoError(t, err)
	src := &sliceSource{windows: []*audio.Window{bad, chordWindow(t, "C4", "E4", "G4")}}

	var errs []error
	var results int
	err = r.Stream(context.Background(), src, func(res *Result, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		results++
		return nil
	})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], spectral.ErrInvalidWindowSize)
	assert.Equal(t, 1, results)
}

func TestStreamStops(t *testing.T) {
	r := newRecognizer(t)
	windows := []*audio.Window{chordWindow(t, "C4"), chordWindow(t, "D4"), chordWindow(t, "E4")}

	stop := errors.New("enough")
	calls := 0
	err := r.Stream(context.Background(), &sliceSource{windows: windows}, func(*Result, error) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Stream(ctx, &sliceSource{windows: windows}, func(*Result, error) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombinerHeuristicOnly(t *testing.T) {
	catalog := theory.MustDefaultCatalog()
	m, err := tonal.NewMatcher(catalog)
	require.NoError(t, err)
	c := NewCombiner(catalog, config.Default().Combiner)

	cands := m.Match(chroma.MustProfile(1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0))
	d := c.Combine(cands, nil)

	require.Len(t, d.Candidates, 5)
	assert.Equal(t, SourceHeuristic, d.Source)
	for i, s := range d.Candidates {
		assert.Equal(t, cands[i], s.Candidate)
		assert.Equal(t, cands[i].Score, s.Confidence)
	}

	ranking := d.Ranking()
	assert.Equal(t, Ranked{Name: "C", Confidence: cands[0].Score}, ranking[0])
	assert.Len(t, d.RunnersUp(), 4)
}

func TestCombinerBlendsUnion(t *testing.T) {
	catalog := theory.MustDefaultCatalog()
	m, err := tonal.NewMatcher(catalog)
	require.NoError(t, err)

	cfg := config.Default().Combiner
	cfg.TopK = 2
	c := NewCombiner(catalog, cfg)

	cands := m.Match(chroma.MustProfile(1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0))

	_, am, err := catalog.Lookup("Am")
	require.NoError(t, err)
	learned := make([]float64, catalog.Len())
	learned[am] = 0.9
	learned[cands[0].Index] = 0.1

	d := c.Combine(cands, learned)
	assert.Equal(t, SourceCombined, d.Source)
	require.Len(t, d.Candidates, 2)

	// Am only makes the learned top 2; its cosine against C major is 2/3
	assert.Equal(t, "Am", d.Candidates[0].Name())
	assert.InDelta(t, (2.0/3+0.9)/2, d.Candidates[0].Confidence, 1e-9)
	assert.InDelta(t, 0.9, d.Candidates[0].Learned, 1e-12)
	assert.Equal(t, "C", d.Candidates[1].Name())
	assert.InDelta(t, 0.55, d.Candidates[1].Confidence, 1e-9)
}

func TestCombinerLearnedOnlyCandidate(t *testing.T) {
	catalog := theory.MustDefaultCatalog()
	m, err := tonal.NewMatcher(catalog)
	require.NoError(t, err)
	c := NewCombiner(catalog, config.CombinerConfig{HeuristicWeight: 1, LearnedWeight: 3, TopK: 1})

	cands := m.Match(chroma.MustProfile(1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 0))
	_, fsharp, err := catalog.Lookup("F#")
	require.NoError(t, err)
	learned := make([]float64, catalog.Len())
	learned[fsharp] = 1

	d := c.Combine(cands, learned)
	require.Len(t, d.Candidates, 1)
	assert.Equal(t, "F#", d.Candidates[0].Name())
	assert.InDelta(t, 0.75, d.Candidates[0].Confidence, 1e-9)
}

func TestDecisionNilSafety(t *testing.T) {
	var d *Decision
	_, ok := d.Best()
	assert.False(t, ok)
	assert.Nil(t, d.RunnersUp())
	assert.Nil(t, d.Ranking())
}
