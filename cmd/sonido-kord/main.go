// Command sonido-kord recognizes chords in audio files.
//
// Usage:
//
//	sonido-kord [flags] <command> [args]
//
// Commands:
//
//	analyze  - Recognize the chord of every window of an audio file
//	describe - Show the notes and intervals of chord symbols
//	catalog  - List the chord templates used for recognition
//	model    - Create and inspect trained model artifacts
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-kord/cmd/sonido-kord/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
