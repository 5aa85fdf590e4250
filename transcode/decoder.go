package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-kord/algorithms/filters"
	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/logging"
)

// Audio is decoded mono PCM
type Audio struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Source     *SourceInfo   `json:"source,omitempty"`
}

// Framer splits the decoded audio into analysis windows
func (a *Audio) Framer(windowSize, hopSize int) (*audio.Framer, error) {
	return audio.NewFramer(a.PCM, a.SampleRate, windowSize, hopSize)
}

// SourceInfo holds the properties of the input stream reported by ffprobe
type SourceInfo struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	SampleRate      int           `json:"sample_rate" yaml:"sample_rate"`
	MaxDuration     time.Duration `json:"max_duration" yaml:"max_duration"`         // 0 = whole file
	ResampleQuality string        `json:"resample_quality" yaml:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath      string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath     string        `json:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	DCCutoff        float64       `json:"dc_cutoff" yaml:"dc_cutoff"` // Hz; 0 keeps any DC offset
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		SampleRate:      44100,
		ResampleQuality: "medium",
		FFmpegPath:      "ffmpeg",  // Assume in PATH
		FFprobePath:     "ffprobe", // Assume in PATH
		Timeout:         30 * time.Second,
		DCCutoff:        10,
	}
}

// Validate checks the decoder configuration without running anything
func (c DecoderConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", c.SampleRate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", c.Timeout)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", c.MaxDuration)
	}
	switch c.ResampleQuality {
	case "", "fast", "medium", "high":
	default:
		return fmt.Errorf("unknown resample quality %q", c.ResampleQuality)
	}
	if c.DCCutoff < 0 || c.DCCutoff >= float64(c.SampleRate)/2 {
		return fmt.Errorf("dc cutoff %.2f Hz out of range", c.DCCutoff)
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("ffmpeg and ffprobe paths are required")
	}
	return nil
}

// Decoder turns audio files into mono PCM using ffmpeg
type Decoder struct {
	config DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config DecoderConfig, logger logging.Logger) (*Decoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Decoder{
		config: config,
		logger: logger.WithFields(logging.Fields{"component": "audio_decoder"}),
	}, nil
}

// Config returns the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return d.config
}

// Decode probes and decodes a file. The timeout applies to each ffmpeg run.
func (d *Decoder) Decode(ctx context.Context, filename string) (*Audio, error) {
	logger := d.logger.WithFields(logging.Fields{
		"filename": filename,
	})

	info, err := d.Probe(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": info.SampleRate,
		"input_channels":    info.Channels,
		"input_codec":       info.Codec,
		"input_duration":    info.Duration,
	})

	args := d.buildFFmpegArgs(filename, info)

	runCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := exec.CommandContext(runCtx, d.config.FFmpegPath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	if d.config.DCCutoff > 0 {
		blocker, err := filters.NewDCBlocker(d.config.SampleRate, d.config.DCCutoff)
		if err != nil {
			return nil, err
		}
		samples = blocker.ProcessBuffer(samples)
	}

	decoded := &Audio{
		PCM:        samples,
		SampleRate: d.config.SampleRate,
		Duration:   time.Duration(len(samples)) * time.Second / time.Duration(d.config.SampleRate),
		Source:     info,
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":  len(samples),
		"output_duration": decoded.Duration.Seconds(),
	})
	return decoded, nil
}

// Probe reads the first audio stream's properties with ffprobe
func (d *Decoder) Probe(ctx context.Context, filename string) (*SourceInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	runCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	output, err := exec.CommandContext(runCtx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

// Check verifies that ffmpeg and ffprobe can be executed
func (d *Decoder) Check(ctx context.Context) error {
	for _, bin := range []string{d.config.FFmpegPath, d.config.FFprobePath} {
		if err := exec.CommandContext(ctx, bin, "-version").Run(); err != nil {
			return fmt.Errorf("%s not available: %w", bin, err)
		}
	}
	return nil
}

// parseProbeOutput parses ffprobe JSON to extract audio metadata
func parseProbeOutput(jsonData []byte) (*SourceInfo, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, errors.New("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	// ffprobe reports these as strings and omits them for some containers
	sampleRate, _ := strconv.Atoi(stream.SampleRate)
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &SourceInfo{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs decodes the first audio stream to mono f64le on stdout
func (d *Decoder) buildFFmpegArgs(filename string, info *SourceInfo) []string {
	args := []string{
		"-i", filename,
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.SampleRate),
	}

	if info != nil && info.SampleRate != d.config.SampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error", "pipe:1")
}

// bytesToFloat64 converts raw little-endian float64 bytes, dropping a trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	if sampleCount == 0 {
		return nil
	}

	samples := make([]float64, sampleCount)
	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
