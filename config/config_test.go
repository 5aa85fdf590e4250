package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.1, cfg.Peaks.NoiseFloor)
	assert.Equal(t, 0.5, cfg.Profile.HarmonicDecay)
	assert.Equal(t, 5, cfg.Combiner.TopK)
	assert.Equal(t, spectral.BackendGoDSP, cfg.Spectral.Backend)

	catalog, err := cfg.Matcher.Catalog()
	require.NoError(t, err)
	assert.Equal(t, theory.MustDefaultCatalog().Checksum(), catalog.Checksum())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
audio:
  window_size: 4096
spectral:
  backend: gonum
peaks:
  noise_floor: 0.2
profile:
  harmonic_decay: 0.3
matcher:
  qualities: [major, m, "7"]
combiner:
  learned_weight: 0.25
model:
  path: models/chords.skm
workers: 4
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Audio.WindowSize)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, spectral.BackendGonum, cfg.Spectral.Backend)
	assert.Equal(t, 65536, cfg.Spectral.MaxSize)
	assert.Equal(t, 0.2, cfg.Peaks.NoiseFloor)
	assert.Equal(t, 12, cfg.Peaks.MaxPeaks)
	assert.Equal(t, 0.3, cfg.Profile.HarmonicDecay)
	assert.Equal(t, 0.5, cfg.Combiner.HeuristicWeight)
	assert.Equal(t, 0.25, cfg.Combiner.LearnedWeight)
	assert.Equal(t, "models/chords.skm", cfg.Model.Path)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)

	catalog, err := cfg.Matcher.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 36, catalog.Len())
	assert.Equal(t, "Cm", catalog.At(12).Name())
	assert.Equal(t, "C7", catalog.At(24).Name())
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"workers": 2, "combiner": {"top_k": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.Combiner.TopK)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":      "audio: [",
		"window":      "audio:\n  window_size: 1000\n",
		"window size": "audio:\n  window_size: 32\n",
		"hop":         "audio:\n  hop_size: 10000\n",
		"bounds":      "spectral:\n  min_size: 100\n",
		"floor":       "peaks:\n  noise_floor: 2\n",
		"decay":       "profile:\n  harmonic_decay: -1\n",
		"quality":     "matcher:\n  qualities: [blues]\n",
		"weights":     "combiner:\n  heuristic_weight: 0\n  learned_weight: 0\n",
		"top k":       "combiner:\n  top_k: 0\n",
		"workers":     "workers: -1\n",
		"log level":   "log_level: loud\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "kord.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0o644))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Matcher.Qualities = []string{"major", "minor"}
	cfg.Model.Path = "chords.skm"

	data, err := cfg.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
