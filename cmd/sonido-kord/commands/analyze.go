package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/RyanBlaney/sonido-kord/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-kord/audio"
	"github.com/RyanBlaney/sonido-kord/config"
	"github.com/RyanBlaney/sonido-kord/inference"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/RyanBlaney/sonido-kord/recognition"
	"github.com/RyanBlaney/sonido-kord/transcode"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	modelPath   string
	topK        int
	maxDuration time.Duration
	ffmpegPath  string
	stream      bool
}

// windowReport is the printable form of one recognized window
type windowReport struct {
	Index      int                  `json:"index"`
	Start      float64              `json:"start"`
	Chord      string               `json:"chord,omitempty"`
	Confidence float64              `json:"confidence"`
	Source     recognition.Source   `json:"source,omitempty"`
	Ranking    []recognition.Ranked `json:"ranking"`
	Notes      []string             `json:"notes"`
	Peaks      harmonic.PeakStats   `json:"peaks"`
	Error      string               `json:"error,omitempty"`
}

type analysisReport struct {
	File       string                `json:"file"`
	SampleRate int                   `json:"sample_rate"`
	Duration   float64               `json:"duration"`
	Learned    bool                  `json:"learned"`
	Windows    []windowReport        `json:"windows"`
	Source     *transcode.SourceInfo `json:"source,omitempty"`
}

func newAnalyzeCommand(opts *globalOptions) *cobra.Command {
	aopts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Recognize the chord of every window of an audio file",
		Long: `Decode an audio file with ffmpeg and recognize the chord in each analysis window.

Window and hop sizes come from the audio section of the config file. With a
model artifact (--model or model.path in the config) the heuristic ranking is
blended with the model's probabilities.

Examples:
  sonido-kord analyze song.mp3
  sonido-kord analyze --model chords.skm --top 3 --json song.flac`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if aopts.modelPath != "" {
				cfg.Model.Path = aopts.modelPath
			}
			if aopts.topK > 0 {
				cfg.Combiner.TopK = aopts.topK
			}

			report, err := runAnalysis(cmd.Context(), args[0], cfg, aopts)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			return printAnalysis(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&aopts.modelPath, "model", "m", "", "trained model artifact")
	cmd.Flags().IntVarP(&aopts.topK, "top", "k", 0, "number of ranked candidates per window")
	cmd.Flags().DurationVar(&aopts.maxDuration, "max-duration", 0, "only analyze the beginning of the file")
	cmd.Flags().StringVar(&aopts.ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary")
	cmd.Flags().BoolVar(&aopts.stream, "stream", false, "recognize windows one at a time instead of in parallel")
	return cmd
}

func runAnalysis(ctx context.Context, filename string, cfg config.Config, aopts *analyzeOptions) (*analysisReport, error) {
	logger := logging.WithFields(logging.Fields{"file": filename})

	catalog, err := cfg.Matcher.Catalog()
	if err != nil {
		return nil, err
	}
	adapter := inference.Open(cfg.Model.Path, catalog, logger)

	recognizer, err := recognition.New(catalog, cfg,
		recognition.WithLogger(logger),
		recognition.WithAdapter(adapter),
	)
	if err != nil {
		return nil, err
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.SampleRate = cfg.Audio.SampleRate
	decoderConfig.MaxDuration = aopts.maxDuration
	decoderConfig.FFmpegPath = aopts.ffmpegPath
	decoder, err := transcode.NewDecoder(decoderConfig, logger)
	if err != nil {
		return nil, err
	}

	decoded, err := decoder.Decode(ctx, filename)
	if err != nil {
		return nil, err
	}

	framer, err := decoded.Framer(cfg.Audio.WindowSize, cfg.Audio.HopSize)
	if err != nil {
		return nil, err
	}

	report := &analysisReport{
		File:       filename,
		SampleRate: decoded.SampleRate,
		Duration:   decoded.Duration.Seconds(),
		Learned:    recognizer.Learned() != nil,
		Source:     decoded.Source,
	}

	logger.Info("Analyzing audio", logging.Fields{
		"windows":  framer.Count(),
		"duration": decoded.Duration.String(),
		"learned":  report.Learned,
	})

	if aopts.stream {
		index := 0
		err = recognizer.Stream(ctx, framer, func(res *recognition.Result, err error) error {
			report.Windows = append(report.Windows, newWindowReport(index, res, err))
			index++
			return nil
		})
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	windows, err := audio.Collect(framer)
	if err != nil {
		return nil, err
	}
	results, err := recognizer.RecognizeAll(ctx, windows)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	failed := windowErrors(err)
	for i, res := range results {
		report.Windows = append(report.Windows, newWindowReport(i, res, failed[i]))
	}
	return report, nil
}

func newWindowReport(index int, res *recognition.Result, err error) windowReport {
	wr := windowReport{Index: index}
	if err != nil {
		wr.Error = err.Error()
		return wr
	}

	wr.Start = res.Start.Seconds()
	wr.Ranking = res.Decision.Ranking()
	wr.Peaks = harmonic.Summarize(res.Peaks)
	for _, n := range res.Notes() {
		wr.Notes = append(wr.Notes, n.String())
	}
	if best, ok := res.Decision.Best(); ok {
		wr.Chord = best.Name()
		wr.Confidence = best.Confidence
		wr.Source = res.Decision.Source
	}
	return wr
}

func printAnalysis(out io.Writer, report *analysisReport) error {
	mode := "heuristic"
	if report.Learned {
		mode = "heuristic + model"
	}
	fmt.Fprintf(out, "%s: %.1fs at %d Hz, %d windows (%s)\n\n",
		report.File, report.Duration, report.SampleRate, len(report.Windows), mode)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCHORD\tCONF\tALTERNATIVES\tNOTES")
	for _, wr := range report.Windows {
		switch {
		case wr.Error != "":
			fmt.Fprintf(w, "#%d\t!\t\t%s\t\n", wr.Index, wr.Error)
		case wr.Chord == "":
			fmt.Fprintf(w, "%7.2fs\t-\t\t\t\n", wr.Start)
		default:
			alternatives := make([]string, 0, len(wr.Ranking))
			for _, r := range wr.Ranking[min(1, len(wr.Ranking)):] {
				alternatives = append(alternatives, fmt.Sprintf("%s %.2f", r.Name, r.Confidence))
			}
			fmt.Fprintf(w, "%7.2fs\t%s\t%.2f\t%s\t%s\n",
				wr.Start, wr.Chord, wr.Confidence,
				strings.Join(alternatives, ", "), strings.Join(wr.Notes, " "))
		}
	}
	return w.Flush()
}

// windowErrors indexes the per-window failures joined into a batch error
func windowErrors(err error) map[int]error {
	failed := make(map[int]error)
	if err == nil {
		return failed
	}

	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		var we *recognition.WindowError
		if errors.As(e, &we) {
			failed[we.Index] = we.Err
		}
	}
	return failed
}
