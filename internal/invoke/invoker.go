package invoke

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Invocation is one fully resolved module call: everything the external
// executable needs, with no further negotiation at run time.
type Invocation struct {
	// Module is the module manifest identifier.
	Module string
	// Executable is the external program implementing the module.
	Executable string
	// Instance is the pipeline instance name being run.
	Instance string
	// WorkDir is the job-scoped working directory.
	WorkDir string
	// Parameters is the merged, final parameter map.
	Parameters map[string]cty.Value
	// Inputs and Outputs map port names to concrete paths.
	Inputs  map[string]string
	Outputs map[string]string
}

// Invoker runs one module invocation to completion. Implementations must
// honor ctx cancellation and deadlines.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) error
}

// ExecutionError reports a failed module invocation. Timeouts are carried
// on the same type so they propagate identically to ordinary failures.
type ExecutionError struct {
	Instance string
	Module   string
	Timeout  bool
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("module %q (instance %q) timed out: %v", e.Module, e.Instance, e.Err)
	}
	return fmt.Sprintf("module %q (instance %q) failed: %v", e.Module, e.Instance, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
