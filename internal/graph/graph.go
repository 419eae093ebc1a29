package graph

import (
	"fmt"
	"strings"
)

// Edge is one data edge of the execution graph, carrying a concrete
// artifact path once the namer has assigned it.
type Edge struct {
	From     *Node
	FromPort string
	To       *Node
	ToPort   string
	// Path is the concrete filesystem location both sides agree on.
	// Assigned by the artifact namer before execution.
	Path string
}

// Graph is the derived execution DAG for one job.
type Graph struct {
	Nodes map[string]*Node
	Edges []*Edge
	// Input and Output are the synthetic boundary nodes, also present in
	// Nodes under their reserved names.
	Input  *Node
	Output *Node
}

// InstanceNodes returns the non-synthetic nodes, i.e. the module
// instances.
func (g *Graph) InstanceNodes() []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !n.Synthetic() {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// CycleError reports a dependency cycle, naming the node sequence that
// closes it.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("pipeline graph contains a cycle: %s", strings.Join(e.Nodes, " -> "))
}

// detectCycles runs a depth-first traversal over the instance nodes,
// following successor links. The synthetic boundary nodes cannot take
// part in a cycle (INPUT has no predecessors, OUTPUT no successors) and
// are excluded.
func (g *Graph) detectCycles() error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	marks := make(map[string]int, len(g.Nodes))
	var stack []string

	var visit func(n *Node) error
	visit = func(n *Node) error {
		marks[n.Name] = visiting
		stack = append(stack, n.Name)
		for _, succ := range n.Succs {
			if succ.Synthetic() {
				continue
			}
			switch marks[succ.Name] {
			case visiting:
				// Back edge: slice the stack from the first occurrence
				// of the successor to name the full cycle.
				for i, name := range stack {
					if name == succ.Name {
						cycle := append([]string{}, stack[i:]...)
						cycle = append(cycle, succ.Name)
						return &CycleError{Nodes: cycle}
					}
				}
				return &CycleError{Nodes: []string{succ.Name, succ.Name}}
			case unvisited:
				if err := visit(succ); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		marks[n.Name] = visited
		return nil
	}

	for _, n := range g.Nodes {
		if n.Synthetic() || marks[n.Name] != unvisited {
			continue
		}
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// link records a dependency edge from producer to consumer.
func link(from, to *Node) {
	if _, ok := to.Preds[from.Name]; !ok {
		to.Preds[from.Name] = from
		from.Succs[to.Name] = to
	}
}
