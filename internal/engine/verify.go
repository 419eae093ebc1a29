package engine

import (
	"fmt"
	"os"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/invoke"
)

// verifyOutputs checks that a successful module actually produced every
// bound output at its assigned path, before any downstream node is
// unlocked. Sequence-typed ports hold printf-style patterns rather than
// literal paths and are not stat-able.
func (e *Executor) verifyOutputs(n *graph.Node) error {
	for port, path := range e.plan.Outputs[n.Name] {
		spec, ok := n.Module.Output(port)
		if ok {
			if tspec, known := e.plan.Types.Lookup(spec.Type); known && tspec.Sequence {
				continue
			}
		}
		if _, err := os.Stat(path); err != nil {
			return &invoke.ExecutionError{
				Instance: n.Name,
				Module:   n.Module.ID,
				Err:      fmt.Errorf("declared output %q missing at %q: %w", port, path, err),
			}
		}
	}
	return nil
}
