package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/flowgridgo/internal/invoke"
)

// FakeInvoker stands in for module executables in tests. It records every
// invocation, creates the declared output files (so output verification
// passes), and can be told to fail or stall specific instances.
type FakeInvoker struct {
	mu          sync.Mutex
	invocations []invoke.Invocation

	// Fail maps instance names to the error their invocation returns.
	Fail map[string]error
	// Delay maps instance names to an artificial execution duration.
	Delay map[string]time.Duration
	// SkipOutputs suppresses output file creation, for exercising the
	// engine's output verification.
	SkipOutputs bool
}

// Invoke implements invoke.Invoker.
func (f *FakeInvoker) Invoke(ctx context.Context, inv invoke.Invocation) error {
	if d := f.Delay[inv.Instance]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return &invoke.ExecutionError{
				Instance: inv.Instance,
				Module:   inv.Module,
				Timeout:  errors.Is(ctx.Err(), context.DeadlineExceeded),
				Err:      ctx.Err(),
			}
		}
	}

	f.mu.Lock()
	f.invocations = append(f.invocations, inv)
	f.mu.Unlock()

	if err := f.Fail[inv.Instance]; err != nil {
		return &invoke.ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
	}

	if !f.SkipOutputs {
		for _, path := range inv.Outputs {
			// Sequence ports carry printf-style patterns, not paths.
			if strings.ContainsRune(path, '%') {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return &invoke.ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
			}
			if err := os.WriteFile(path, []byte("fake artifact\n"), 0o644); err != nil {
				return &invoke.ExecutionError{Instance: inv.Instance, Module: inv.Module, Err: err}
			}
		}
	}
	return nil
}

// Invocations returns a copy of the recorded invocations.
func (f *FakeInvoker) Invocations() []invoke.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]invoke.Invocation, len(f.invocations))
	copy(out, f.invocations)
	return out
}

// InvocationFor returns the recorded invocation for an instance.
func (f *FakeInvoker) InvocationFor(instance string) (invoke.Invocation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invocations {
		if inv.Instance == instance {
			return inv, true
		}
	}
	return invoke.Invocation{}, false
}
