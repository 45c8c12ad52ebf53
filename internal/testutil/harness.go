// Package testutil provides shared helpers for pipeline tests: a
// thread-safe log buffer, temp-dir specification trees, and a compile
// harness that runs the full pipeline with debug logging captured.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowspec/internal/ctxlog"
	"github.com/specialistvlad/flowspec/internal/pipeline"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles materializes a map of relative path to content under a fresh
// temporary directory and returns its root. The test provides relative
// paths (e.g. "refs/models.yaml"), which naturally creates the
// subdirectory structure.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return tmpDir
}

// CompileResult holds the outcomes of one harness compilation.
type CompileResult struct {
	Result    *pipeline.Result
	Err       error
	LogOutput string
}

// Compile runs the full pipeline on src, which is either literal YAML or a
// path, with debug logging captured.
func Compile(t *testing.T, src string) *CompileResult {
	t.Helper()
	return CompileWithOptions(t, src, pipeline.Options{})
}

// CompileWithOptions is Compile with explicit pipeline options.
func CompileWithOptions(t *testing.T, src string, opts pipeline.Options) *CompileResult {
	t.Helper()

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	res, err := pipeline.Run(ctx, src, opts)

	t.Cleanup(func() {
		if t.Failed() && os.Getenv("FLOWSPEC_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return &CompileResult{Result: res, Err: err, LogOutput: logBuffer.String()}
}

// CompileFiles writes a specification tree to a temp dir and compiles one
// entry file from it.
func CompileFiles(t *testing.T, files map[string]string, entry string) *CompileResult {
	t.Helper()

	root := WriteFiles(t, files)
	return Compile(t, filepath.Join(root, entry))
}
