package commands

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/spf13/cobra"
)

type chordDescription struct {
	Name      string   `json:"name"`
	Quality   string   `json:"quality"`
	Notes     []string `json:"notes"`
	Intervals []string `json:"intervals"`
	Voicing   []string `json:"voicing"`
}

func describeChord(t theory.Template, octave int) chordDescription {
	d := chordDescription{
		Name:    t.Name(),
		Quality: t.Quality.Name,
		Notes:   t.NoteNames(),
	}
	for _, iv := range t.Intervals() {
		d.Intervals = append(d.Intervals, iv.String())
	}
	for _, n := range t.Voicing(octave) {
		d.Voicing = append(d.Voicing, n.String())
	}
	return d
}

func newDescribeCommand(opts *globalOptions) *cobra.Command {
	var octave int

	cmd := &cobra.Command{
		Use:   "describe <chord>...",
		Short: "Show the notes and intervals of chord symbols",
		Long: `Parse chord symbols and print their notes, intervals and a close voicing.

Example:
  sonido-kord describe C F#m7 Bbmaj9 "Eø7"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptions := make([]chordDescription, 0, len(args))
			for _, arg := range args {
				t, err := theory.ParseChord(arg)
				if err != nil {
					return err
				}
				descriptions = append(descriptions, describeChord(t, octave))
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), descriptions)
			}

			out := cmd.OutOrStdout()
			for _, d := range descriptions {
				fmt.Fprintf(out, "%s (%s)\n", d.Name, d.Quality)
				fmt.Fprintf(out, "  notes:     %s\n", strings.Join(d.Notes, " "))
				fmt.Fprintf(out, "  intervals: %s\n", strings.Join(d.Intervals, ", "))
				fmt.Fprintf(out, "  voicing:   %s\n", strings.Join(d.Voicing, " "))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&octave, "octave", 4, "octave of the root in the printed voicing")
	return cmd
}
