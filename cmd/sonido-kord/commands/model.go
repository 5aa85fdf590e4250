package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-kord/inference"
	"github.com/RyanBlaney/sonido-kord/logging"
	"github.com/spf13/cobra"
)

type layerInfo struct {
	Inputs     int                  `json:"inputs"`
	Outputs    int                  `json:"outputs"`
	Activation inference.Activation `json:"activation"`
}

type modelInfo struct {
	Path            string               `json:"path"`
	Version         int                  `json:"version"`
	Features        inference.FeatureSet `json:"features"`
	Bands           int                  `json:"bands,omitempty"`
	InputSize       int                  `json:"input_size"`
	CatalogSize     int                  `json:"catalog_size"`
	CatalogChecksum string               `json:"catalog_checksum"`
	Layers          []layerInfo          `json:"layers"`
	Compatible      bool                 `json:"compatible"`
	Mismatch        string               `json:"mismatch,omitempty"`
}

func newModelCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Create and inspect trained model artifacts",
	}
	cmd.AddCommand(newModelInspectCommand(opts), newModelInitCommand(opts))
	return cmd
}

func newModelInspectCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Show an artifact's layout and whether it fits the configured catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Matcher.Catalog()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := inference.Read(f)
			if err != nil {
				return err
			}

			info := modelInfo{
				Path:            args[0],
				Version:         a.Version,
				Features:        a.Features,
				Bands:           a.Bands,
				InputSize:       a.InputSize(),
				CatalogSize:     a.CatalogSize,
				CatalogChecksum: fmt.Sprintf("%016x", a.CatalogChecksum),
				Compatible:      true,
			}
			for _, l := range a.Layers {
				info.Layers = append(info.Layers, layerInfo{Inputs: l.Inputs, Outputs: l.Outputs, Activation: l.Activation})
			}
			if err := a.CheckCatalog(catalog); err != nil {
				info.Compatible = false
				info.Mismatch = err.Error()
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (format v%d)\n", info.Path, info.Version)
			fmt.Fprintf(out, "  features: %s, %d inputs\n", info.Features, info.InputSize)
			fmt.Fprintf(out, "  catalog:  %d templates, checksum %s\n", info.CatalogSize, info.CatalogChecksum)
			for i, l := range info.Layers {
				fmt.Fprintf(out, "  layer %d:  %d -> %d %s\n", i, l.Inputs, l.Outputs, l.Activation)
			}
			if info.Compatible {
				fmt.Fprintln(out, "  matches the configured catalog")
			} else {
				fmt.Fprintf(out, "  incompatible: %s\n", info.Mismatch)
			}
			return nil
		},
	}
}

func newModelInitCommand(opts *globalOptions) *cobra.Command {
	var (
		out      string
		features string
		bands    int
		gain     float64
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a template-projection artifact for the configured catalog",
		Long: `Write a single-layer artifact whose outputs follow the chord templates.

The artifact ranks chords like the heuristic matcher. It is a starting point for
training and a reference model for checking the model path end to end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Matcher.Catalog()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(out); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", out)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}

			a, err := inference.NewTemplateArtifact(catalog, inference.FeatureSet(features), bands, gain)
			if err != nil {
				return err
			}
			if err := inference.WriteFile(out, a); err != nil {
				return err
			}

			logging.Info("Model artifact written", logging.Fields{
				"path":      out,
				"templates": a.CatalogSize,
				"features":  string(a.Features),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "chords.skm", "output path")
	cmd.Flags().StringVar(&features, "features", string(inference.FeaturesPCP), "input features (pcp or pcp+bands)")
	cmd.Flags().IntVar(&bands, "bands", 8, "band energies appended with pcp+bands")
	cmd.Flags().Float64Var(&gain, "gain", 20, "logit scale applied to template projections")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
