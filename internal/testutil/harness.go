package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/invoke"
	"github.com/vk/flowgridgo/internal/job"
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

// HarnessResult holds the outcomes of an end-to-end test run.
type HarnessResult struct {
	LogOutput string
	Result    *job.Result
	Err       error
	WorkDir   string
}

// RunJob provides a standardized harness for end-to-end tests: it writes
// the given manifest and job files into a temporary directory tree,
// points the app at it, and runs one job with the provided invoker.
// File keys are relative paths like "modules/format_videos.hcl",
// "pipelines/transcode.hcl", or "job.yaml".
func RunJob(t *testing.T, files map[string]string, invoker invoke.Invoker) *HarnessResult {
	t.Helper()
	return RunJobWithContext(context.Background(), t, files, invoker)
}

// RunJobWithContext is RunJob with a caller-provided context, for
// cancellation tests.
func RunJobWithContext(ctx context.Context, t *testing.T, files map[string]string, invoker invoke.Invoker) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	workDir := filepath.Join(tmpDir, "work")
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "pipelines"), 0o755))
	for name, content := range files {
		// Fixtures reference the scratch tree via the WORKDIR marker.
		content = strings.ReplaceAll(content, "{{WORKDIR}}", workDir)
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	logBuffer := &SafeBuffer{}

	appConfig, err := app.NewConfig(app.Config{
		JobPath:       filepath.Join(tmpDir, "job.yaml"),
		ModulesPath:   filepath.Join(tmpDir, "modules"),
		PipelinesPath: filepath.Join(tmpDir, "pipelines"),
		LogLevel:      "debug",
		LogFormat:     "text",
		Workers:       4,
	})
	require.NoError(t, err)

	testApp := app.NewApp(logBuffer, appConfig, invoker)
	result, runErr := testApp.Run(ctx)

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Result:    result,
		Err:       runErr,
		WorkDir:   workDir,
	}
}
