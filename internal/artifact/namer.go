package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/job"
)

// Namer assigns artifact paths inside a job-scoped working directory.
type Namer struct {
	WorkingDir string
}

// Assign computes the path for every edge of the graph. Edges bound to
// the request's declared inputs/outputs use the request-supplied path
// verbatim; every other edge gets <working_dir>/<producer>/<port>. All
// edges sharing a producer/port pair resolve to the same path, so every
// consumer of a fanned-out output reads the file the producer actually
// wrote — including when one of the consumers is the OUTPUT boundary.
// A producer port feeding more than one declared pipeline output must
// therefore be requested at a single path; conflicting bindings fail
// the assignment, since the producer writes each port exactly once.
func (n *Namer) Assign(g *graph.Graph, req *job.Request) error {
	byProducer := make(map[string]string)
	key := func(e *graph.Edge) string { return e.From.Name + "." + e.FromPort }

	pin := func(e *graph.Edge, path string) error {
		k := key(e)
		if prev, ok := byProducer[k]; ok && prev != path {
			return fmt.Errorf("job request pins %s to both %q and %q; a producer port writes exactly one path", k, prev, path)
		}
		e.Path = path
		byProducer[k] = path
		return nil
	}

	// First pass: paths fixed by the request. An OUTPUT-bound edge pins
	// the producer's path for every sibling edge of the same port.
	for _, e := range g.Edges {
		switch {
		case e.From == g.Input:
			path, ok := req.Inputs[e.FromPort]
			if !ok {
				return fmt.Errorf("no request binding for pipeline input %q", e.FromPort)
			}
			if err := pin(e, path); err != nil {
				return err
			}
		case e.To == g.Output:
			path, ok := req.Outputs[e.ToPort]
			if !ok {
				return fmt.Errorf("no request binding for pipeline output %q", e.ToPort)
			}
			if err := pin(e, path); err != nil {
				return err
			}
		}
	}

	// Second pass: everything else shares the producer's pinned path or
	// gets the deterministic working-directory location.
	for _, e := range g.Edges {
		if e.Path != "" {
			continue
		}
		if path, ok := byProducer[key(e)]; ok {
			e.Path = path
			continue
		}
		path := filepath.Join(n.WorkingDir, e.From.Name, e.FromPort)
		byProducer[key(e)] = path
		e.Path = path
	}
	return nil
}

// Bindings collects the concrete input and output paths for one node from
// the assigned edges. Unbound optional ports are absent.
func Bindings(g *graph.Graph, node *graph.Node) (inputs, outputs map[string]string) {
	inputs = make(map[string]string)
	outputs = make(map[string]string)
	for _, e := range g.Edges {
		if e.To == node {
			inputs[e.ToPort] = e.Path
		}
		if e.From == node {
			outputs[e.FromPort] = e.Path
		}
	}
	// Port defaults cover inputs the pipeline left unconnected.
	if node.Module != nil {
		for _, port := range node.Module.Inputs {
			if _, bound := inputs[port.Name]; !bound && port.Default != "" {
				inputs[port.Name] = port.Default
			}
		}
	}
	return inputs, outputs
}
