package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/RyanBlaney/sonido-kord/algorithms/chroma"
	"github.com/RyanBlaney/sonido-kord/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-kord/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/goccy/go-yaml"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every tunable of the recognition pipeline
type Config struct {
	Audio    AudioConfig          `json:"audio" yaml:"audio"`
	Spectral spectral.Params      `json:"spectral" yaml:"spectral"`
	Peaks    harmonic.PeakParams  `json:"peaks" yaml:"peaks"`
	Profile  chroma.ProfileParams `json:"profile" yaml:"profile"`
	Matcher  MatcherConfig        `json:"matcher" yaml:"matcher"`
	Combiner CombinerConfig       `json:"combiner" yaml:"combiner"`
	Model    ModelConfig          `json:"model" yaml:"model"`

	Workers  int    `json:"workers" yaml:"workers"` // Parallel windows; 0 = one per CPU
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// AudioConfig controls how decoded files are split into analysis windows
type AudioConfig struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	WindowSize int `json:"window_size" yaml:"window_size"`
	HopSize    int `json:"hop_size" yaml:"hop_size"` // 0 = WindowSize
}

// MatcherConfig selects the chord qualities of the catalog, by name or symbol.
// Empty means the default recognition set.
type MatcherConfig struct {
	Qualities []string `json:"qualities,omitempty" yaml:"qualities,omitempty"`
}

// CombinerConfig weighs heuristic scores against model probabilities
type CombinerConfig struct {
	HeuristicWeight float64 `json:"heuristic_weight" yaml:"heuristic_weight"`
	LearnedWeight   float64 `json:"learned_weight" yaml:"learned_weight"`
	TopK            int     `json:"top_k" yaml:"top_k"`
}

// ModelConfig points at an optional trained model artifact
type ModelConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: 44100,
			WindowSize: 8192,
			HopSize:    4096,
		},
		Spectral: spectral.DefaultParams(),
		Peaks:    harmonic.DefaultPeakParams(),
		Profile:  chroma.DefaultProfileParams(),
		Combiner: CombinerConfig{
			HeuristicWeight: 0.5,
			LearnedWeight:   0.5,
			TopK:            5,
		},
		Workers:  0,
		LogLevel: "info",
	}
}

// Parse reads YAML (or JSON) over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a config file. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every section
func (c Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("%w: audio: %v", ErrInvalidConfig, err)
	}
	if err := c.Spectral.Validate(); err != nil {
		return fmt.Errorf("%w: spectral: %v", ErrInvalidConfig, err)
	}
	if c.Audio.WindowSize < c.Spectral.MinSize || c.Audio.WindowSize > c.Spectral.MaxSize {
		return fmt.Errorf("%w: audio: window size %d outside spectral range %d..%d",
			ErrInvalidConfig, c.Audio.WindowSize, c.Spectral.MinSize, c.Spectral.MaxSize)
	}
	if err := c.Peaks.Validate(); err != nil {
		return fmt.Errorf("%w: peaks: %v", ErrInvalidConfig, err)
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("%w: profile: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Matcher.ResolveQualities(); err != nil {
		return fmt.Errorf("%w: matcher: %v", ErrInvalidConfig, err)
	}
	if err := c.Combiner.Validate(); err != nil {
		return fmt.Errorf("%w: combiner: %v", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidConfig, c.Workers)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the audio framing settings
func (a AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d must be positive", a.SampleRate)
	}
	if !audio.IsPowerOfTwo(a.WindowSize) {
		return fmt.Errorf("window size %d must be a power of two", a.WindowSize)
	}
	if a.HopSize < 0 || a.HopSize > a.WindowSize {
		return fmt.Errorf("hop size %d must be within [0, %d]", a.HopSize, a.WindowSize)
	}
	return nil
}

// Validate checks the combiner weights
func (c CombinerConfig) Validate() error {
	for _, w := range []float64{c.HeuristicWeight, c.LearnedWeight} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weight %g must be a non-negative number", w)
		}
	}
	if c.HeuristicWeight+c.LearnedWeight == 0 {
		return errors.New("weights must not both be zero")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top k %d must be positive", c.TopK)
	}
	return nil
}
