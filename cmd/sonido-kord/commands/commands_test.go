package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-kord/inference"
	"github.com/RyanBlaney/sonido-kord/recognition"
	"github.com/RyanBlaney/sonido-kord/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestDescribe(t *testing.T) {
	out, err := run(t, "describe", "C", "Am7")
	require.NoError(t, err)
	assert.Contains(t, out, "C (major)")
	assert.Contains(t, out, "C E G")
	assert.Contains(t, out, "C4 E4 G4")
	assert.Contains(t, out, "Am7 (minor seventh)")
}

func TestDescribeJSON(t *testing.T) {
	out, err := run(t, "--json", "describe", "--octave", "3", "G7")
	require.NoError(t, err)

	var got []chordDescription
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "G7", got[0].Name)
	assert.Equal(t, []string{"G", "B", "D", "F"}, got[0].Notes)
	assert.Equal(t, []string{"G3", "B3", "D4", "F4"}, got[0].Voicing)
}

func TestDescribeRejectsUnknownChord(t *testing.T) {
	_, err := run(t, "describe", "H7")
	assert.ErrorIs(t, err, theory.ErrUnknownChord)
}

func TestCatalogJSON(t *testing.T) {
	out, err := run(t, "--json", "catalog")
	require.NoError(t, err)

	var got struct {
		Size      int            `json:"size"`
		Templates []catalogEntry `json:"templates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 168, got.Size)
	require.Len(t, got.Templates, 168)
	assert.Equal(t, "C5", got.Templates[0].Name)
	assert.Equal(t, "C", got.Templates[12].Name)
}

func TestCatalogFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matcher:\n  qualities: [major, minor]\n"), 0o644))

	out, err := run(t, "--config", path, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "24 templates")
	assert.Contains(t, out, "Bm")
}

func TestModelInitAndInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chords.skm")

	_, err := run(t, "model", "init", "--out", path)
	require.NoError(t, err)

	out, err := run(t, "--json", "model", "inspect", path)
	require.NoError(t, err)

	var info modelInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.Compatible)
	assert.Equal(t, inference.FeaturesPCP, info.Features)
	assert.Equal(t, 12, info.InputSize)
	assert.Equal(t, 168, info.CatalogSize)
	require.Len(t, info.Layers, 1)
	assert.Equal(t, inference.ActivationLinear, info.Layers[0].Activation)

	_, err = run(t, "model", "init", "--out", path)
	assert.Error(t, err, "existing file needs --force")

	_, err = run(t, "model", "init", "--out", path, "--force", "--features", "pcp+bands", "--bands", "4")
	require.NoError(t, err)
}

func TestModelInspectReportsCatalogMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chords.skm")
	_, err := run(t, "model", "init", "--out", path)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("matcher:\n  qualities: [major]\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "model", "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "incompatible")
}

func TestModelInspectRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.skm")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))

	_, err := run(t, "model", "inspect", path)
	assert.ErrorIs(t, err, inference.ErrModelLoad)
}

func TestAnalyzeRequiresFile(t *testing.T) {
	_, err := run(t, "analyze")
	assert.Error(t, err)
}

func TestWindowErrors(t *testing.T) {
	assert.Empty(t, windowErrors(nil))

	cause := errors.New("too short")
	joined := errors.Join(
		&recognition.WindowError{Index: 1, Err: cause},
		&recognition.WindowError{Index: 4, Err: cause},
	)
	failed := windowErrors(joined)
	require.Len(t, failed, 2)
	assert.Equal(t, cause, failed[1])
	assert.Equal(t, cause, failed[4])
	assert.Nil(t, failed[0])
}
