package graph

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/job"
	"github.com/vk/flowgridgo/internal/manifest"
)

// Build constructs the validated execution graph for one job. It creates
// one node per module instance, binds the synthetic INPUT/OUTPUT nodes to
// the request's declared inputs and outputs, adds one edge per
// connection, and verifies required-input bindings, output bindings, and
// acyclicity.
func Build(ctx context.Context, p *manifest.PipelineManifest, modules map[string]*manifest.ModuleManifest, req *job.Request) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building execution graph.", "pipeline", p.ID)

	g := &Graph{Nodes: make(map[string]*Node)}
	g.Input = newNode(manifest.PipelineInput, nil, nil)
	g.Output = newNode(manifest.PipelineOutput, nil, nil)
	g.Nodes[g.Input.Name] = g.Input
	g.Nodes[g.Output.Name] = g.Output

	for i := range p.Instances {
		inst := &p.Instances[i]
		g.Nodes[inst.Name] = newNode(inst.Name, inst, modules[inst.ModuleID])
	}
	logger.Debug("Nodes created.", "count", len(g.Nodes))

	// The request must bind every declared pipeline input and output,
	// and must not bind names the pipeline does not declare.
	if err := checkBindings(p.Inputs, req.Inputs, "input"); err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", p.ID, err)
	}
	if err := checkBindings(p.Outputs, req.Outputs, "output"); err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", p.ID, err)
	}

	// One edge per connection. Endpoint existence and sink uniqueness
	// were validated at manifest load; here we materialize the links.
	inbound := make(map[string]int)
	for _, c := range p.Connections {
		from := g.Nodes[c.Source.Owner]
		to := g.Nodes[c.Sink.Owner]
		g.Edges = append(g.Edges, &Edge{
			From:     from,
			FromPort: c.Source.Port,
			To:       to,
			ToPort:   c.Sink.Port,
		})
		link(from, to)
		inbound[c.Sink.String()]++
	}
	logger.Debug("Edges created.", "count", len(g.Edges))

	// Every required module input needs exactly one inbound edge or a
	// declared port default; unreferenced optional inputs stay unbound.
	for _, n := range g.InstanceNodes() {
		for _, port := range n.Module.Inputs {
			sink := manifest.Endpoint{Owner: n.Name, Port: port.Name}
			if inbound[sink.String()] > 0 || !port.Required || port.Default != "" {
				continue
			}
			return nil, fmt.Errorf("pipeline %q: required input %s is not connected and has no default", p.ID, sink)
		}
	}

	// Every declared pipeline output must be produced by exactly one
	// connection.
	for _, name := range p.Outputs {
		sink := manifest.Endpoint{Owner: manifest.PipelineOutput, Port: name}
		if inbound[sink.String()] != 1 {
			return nil, fmt.Errorf("pipeline %q: output %q must have exactly one inbound connection, got %d", p.ID, name, inbound[sink.String()])
		}
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Cycle detection passed.")

	return g, nil
}

func newNode(name string, inst *manifest.ModuleInstance, mod *manifest.ModuleManifest) *Node {
	return &Node{
		Name:     name,
		Instance: inst,
		Module:   mod,
		Preds:    make(map[string]*Node),
		Succs:    make(map[string]*Node),
	}
}

// checkBindings verifies the request's bindings exactly cover the
// declared boundary names.
func checkBindings(declared []string, bound map[string]string, kind string) error {
	for _, name := range declared {
		if path, ok := bound[name]; !ok || path == "" {
			return fmt.Errorf("job request binds no path for pipeline %s %q", kind, name)
		}
	}
	for name := range bound {
		if !containsName(declared, name) {
			return fmt.Errorf("job request binds unknown pipeline %s %q", kind, name)
		}
	}
	return nil
}

func containsName(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
