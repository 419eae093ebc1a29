package engine

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/artifact"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/job"
	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/modelstore"
	"github.com/vk/flowgridgo/internal/params"
	"github.com/vk/flowgridgo/internal/typesys"
)

// Plan is the fully resolved, concrete form of a pipeline ready to run:
// per instance, the merged parameter map and the port-to-path bindings.
// A Plan is built once per job and discarded when the job ends; it is
// never persisted or shared across jobs.
type Plan struct {
	Pipeline   *manifest.PipelineManifest
	Graph      *graph.Graph
	Request    *job.Request
	Types      *typesys.Registry
	WorkingDir string

	// Params maps instance name to its resolved parameter map.
	Params map[string]map[string]cty.Value
	// Inputs and Outputs map instance name to port-to-path bindings.
	Inputs  map[string]map[string]string
	Outputs map[string]map[string]string
}

// BuildPlan compiles a job request into an executable plan: load and
// validate the pipeline, build the execution graph, resolve parameters,
// resolve model references, and assign artifact paths. Any error here
// aborts the job before a single module runs.
func BuildPlan(ctx context.Context, lib *manifest.Library, req *job.Request, models modelstore.Store) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	pipeline, err := lib.Pipeline(ctx, req.Pipeline)
	if err != nil {
		return nil, err
	}
	modules, err := lib.ModulesFor(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(ctx, pipeline, modules, req)
	if err != nil {
		return nil, err
	}

	overrides, err := req.Overrides()
	if err != nil {
		return nil, err
	}
	for instance := range overrides {
		if _, ok := pipeline.Instance(instance); !ok {
			return nil, fmt.Errorf("parameter override addresses unknown instance %q", instance)
		}
	}

	plan := &Plan{
		Pipeline:   pipeline,
		Graph:      g,
		Request:    req,
		Types:      lib.Types(),
		WorkingDir: req.EnsureWorkingDir(),
		Params:     make(map[string]map[string]cty.Value),
		Inputs:     make(map[string]map[string]string),
		Outputs:    make(map[string]map[string]string),
	}

	for i := range pipeline.Instances {
		inst := &pipeline.Instances[i]
		mod := modules[inst.ModuleID]
		resolved, err := params.Resolve(inst, mod, overrides[inst.Name], lib.Types())
		if err != nil {
			return nil, err
		}
		if err := resolveModels(ctx, inst, mod, resolved, models); err != nil {
			return nil, err
		}
		plan.Params[inst.Name] = resolved
	}

	namer := &artifact.Namer{WorkingDir: plan.WorkingDir}
	if err := namer.Assign(g, req); err != nil {
		return nil, err
	}
	for _, n := range g.InstanceNodes() {
		inputs, outputs := artifact.Bindings(g, n)
		plan.Inputs[n.Name] = inputs
		plan.Outputs[n.Name] = outputs
	}

	logger.Debug("Execution plan built.",
		"pipeline", pipeline.ID, "nodes", len(g.Nodes), "edges", len(g.Edges), "working_dir", plan.WorkingDir)
	return plan, nil
}

// resolveModels rewrites model-typed parameters ("name@version") to the
// local paths the store resolves them to.
func resolveModels(ctx context.Context, inst *manifest.ModuleInstance, mod *manifest.ModuleManifest, resolved map[string]cty.Value, models modelstore.Store) error {
	for _, spec := range mod.Parameters {
		if spec.Type != "model" {
			continue
		}
		val, ok := resolved[spec.Name]
		if !ok || val.IsNull() {
			continue
		}
		if models == nil {
			return fmt.Errorf("instance %q: parameter %q needs a model store, but none is configured", inst.Name, spec.Name)
		}
		ref, err := modelstore.ParseRef(val.AsString())
		if err != nil {
			return fmt.Errorf("instance %q: parameter %q: %w", inst.Name, spec.Name, err)
		}
		path, err := models.Resolve(ctx, ref)
		if err != nil {
			return fmt.Errorf("instance %q: parameter %q: %w", inst.Name, spec.Name, err)
		}
		resolved[spec.Name] = cty.StringVal(path)
	}
	return nil
}
