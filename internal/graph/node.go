package graph

import (
	"sync"
	"sync/atomic"

	"github.com/vk/flowgridgo/internal/manifest"
)

// State is the scheduling state of a node during a run.
type State int32

const (
	Pending State = iota
	Ready
	Running
	Done
	Failed
	Skipped
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Node is a single vertex of the execution graph: a module instance, or
// one of the synthetic INPUT/OUTPUT boundary nodes (Instance nil).
type Node struct {
	// Name is the instance name, or the reserved INPUT/OUTPUT owner.
	Name     string
	Instance *manifest.ModuleInstance
	Module   *manifest.ModuleManifest

	// Preds and Succs hold the dependency links, keyed by node name.
	Preds map[string]*Node
	Succs map[string]*Node

	// Err records why the node failed or was skipped.
	Err error

	state    atomic.Int32
	waiting  atomic.Int32
	skipOnce sync.Once
}

// Synthetic reports whether this is an INPUT/OUTPUT boundary node.
func (n *Node) Synthetic() bool { return n.Instance == nil }

// State returns the node's current scheduling state.
func (n *Node) State() State { return State(n.state.Load()) }

// SetState transitions the node to the given state.
func (n *Node) SetState(s State) { n.state.Store(int32(s)) }

// InitCounters seeds the predecessor wait counter before a run.
func (n *Node) InitCounters() {
	n.waiting.Store(int32(len(n.Preds)))
}

// PredDone records one predecessor reaching done and reports the number
// still outstanding.
func (n *Node) PredDone() int32 {
	return n.waiting.Add(-1)
}

// Once runs f at most once for this node, guarding the skip/cancel cascade
// against double counting.
func (n *Node) Once(f func()) {
	n.skipOnce.Do(f)
}
