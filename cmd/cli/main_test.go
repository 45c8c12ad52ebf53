package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_CompilesValidSpec(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	spec := `
id: demo
models:
  - id: gpt
    provider: openai
flows:
  - id: main
    steps:
      - id: ask
        kind: input_message
        outputs:
          - id: q
            type: text
      - id: reply
        kind: llm
        model: gpt
        inputs: [q]
        outputs:
          - id: answer
            type: text
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "spec.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(spec), 0600))

	args := []string{"-log-level", "error", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
}

func TestRun_InvalidSpecFails(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "spec.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("id: app\nnot_a_field: 1\n"), 0600))

	args := []string{"-log-level", "error", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
