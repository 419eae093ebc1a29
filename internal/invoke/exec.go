package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
)

// configFileName is the resolved config written into each instance's
// scratch directory before its executable runs.
const configFileName = "config.json"

// ExecInvoker runs module executables as child processes. The resolved
// config is written to <workdir>/<instance>/config.json and passed as the
// executable's single argument; a zero exit status means success and the
// engine then verifies the declared outputs exist.
type ExecInvoker struct {
	// BinDir, when set, is prepended to bare executable names so module
	// binaries can live outside PATH.
	BinDir string
	// Env is appended to the child's inherited environment.
	Env []string
}

// Invoke implements Invoker.
func (x *ExecInvoker) Invoke(ctx context.Context, inv Invocation) error {
	logger := ctxlog.FromContext(ctx).With("instance", inv.Instance, "module", inv.Module)

	dir := filepath.Join(inv.WorkDir, inv.Instance)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
	}
	// Producers assume their output parents exist.
	for _, path := range inv.Outputs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
		}
	}

	config, err := EncodeConfig(inv)
	if err != nil {
		return &ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: fmt.Errorf("encoding config: %w", err)}
	}
	configPath := filepath.Join(dir, configFileName)
	if err := os.WriteFile(configPath, config, 0o644); err != nil {
		return &ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
	}

	executable := inv.Executable
	if x.BinDir != "" && !strings.ContainsRune(executable, os.PathSeparator) {
		executable = filepath.Join(x.BinDir, executable)
	}

	logger.Debug("Spawning module executable.", "executable", executable, "config", configPath)
	cmd := exec.CommandContext(ctx, executable, configPath)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), x.Env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &ExecutionError{Instance: inv.Instance, Module: inv.Module, Timeout: true, Err: ctx.Err()}
		}
		return &ExecutionError{
			Instance: inv.Instance,
			Module:   inv.Module,
			Err:      fmt.Errorf("%w; stderr: %s", err, tail(stderr.String(), 512)),
		}
	}
	logger.Debug("Module executable completed.")
	return nil
}

// tail returns at most the last n bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
