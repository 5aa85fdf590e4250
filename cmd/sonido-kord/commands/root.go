package commands

import (
	"encoding/json"
	"io"

	"github.com/RyanBlaney/sonido-kord/config"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	verbose    bool
	noColor    bool
	jsonOutput bool
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand assembles the command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sonido-kord",
		Short: "Chord recognition for audio",
		Long: `sonido-kord finds the chord sounding in each window of an audio signal.

Windows are transformed to a magnitude spectrum, reduced to spectral peaks,
folded into a 12-bin pitch class profile and matched against a catalog of chord
templates. An optional trained model artifact refines the ranking.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Results go to stdout, so every log level goes to stderr
			logger := logging.NewDefaultLoggerTo(cmd.ErrOrStderr(), cmd.ErrOrStderr(), true)
			if opts.verbose {
				logger.SetLevel(logging.DebugLevel)
			}
			logging.SetGlobalLogger(logger)
			if opts.noColor {
				logging.DisableColors()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored log output")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newDescribeCommand(opts),
		newCatalogCommand(opts),
		newModelCommand(opts),
	)
	return root
}

// loadConfig reads the config file and applies its log level unless --verbose is set
func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !o.verbose {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logging.SetLevel(level)
	}
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
