package manifest

import (
	"fmt"

	"github.com/vk/flowgridgo/internal/typesys"
)

// Validate checks a module manifest for structural soundness: non-empty
// identity, unique port and parameter names, and known type tags of the
// right kind. It returns a *Error on the first problem found.
func (m *ModuleManifest) Validate(types *typesys.Registry) error {
	if m.ID == "" {
		return newError("(unnamed)", fmt.Errorf("module manifest has no identifier"))
	}
	if m.Executable == "" {
		return newError(m.ID, fmt.Errorf("module manifest declares no executable"))
	}

	seen := make(map[string]string)
	for _, ports := range [][]PortSpec{m.Inputs, m.Outputs} {
		for _, p := range ports {
			if prev, dup := seen[p.Name]; dup {
				return newError(m.ID, fmt.Errorf("duplicate port name %q (already used as %s)", p.Name, prev))
			}
			seen[p.Name] = "port"
			spec, ok := types.Lookup(p.Type)
			if !ok {
				return newError(m.ID, fmt.Errorf("port %q: %w", p.Name, &typesys.UnknownTagError{Tag: p.Type}))
			}
			if spec.Kind == typesys.KindValue {
				return newError(m.ID, fmt.Errorf("port %q uses parameter type tag %q", p.Name, p.Type))
			}
		}
	}

	// Parameters live in their own namespace; only parameter names must
	// be mutually unique.
	params := make(map[string]bool)
	for _, p := range m.Parameters {
		if params[p.Name] {
			return newError(m.ID, fmt.Errorf("duplicate parameter name %q", p.Name))
		}
		params[p.Name] = true
		if !types.IsValue(p.Type) {
			return newError(m.ID, fmt.Errorf("parameter %q: type tag %q is not a parameter type", p.Name, p.Type))
		}
		if p.Required && p.Default != nil {
			return newError(m.ID, fmt.Errorf("parameter %q is required but also carries a default", p.Name))
		}
	}
	return nil
}

// ValidatePipeline checks a pipeline manifest against the module manifests
// it references: instance and boundary names must be unique, tunable and
// set parameters must exist on the referenced module without overlapping,
// every connection endpoint must exist, sinks must be singly bound,
// endpoint types must be compatible, and the input boundary may not feed
// the output boundary directly. Acyclicity is checked later by the
// graph builder, which also knows the job request.
func ValidatePipeline(p *PipelineManifest, modules map[string]*ModuleManifest, types *typesys.Registry) error {
	if p.ID == "" {
		return newError("(unnamed)", fmt.Errorf("pipeline manifest has no identifier"))
	}

	boundary := make(map[string]bool)
	for _, name := range p.Inputs {
		if boundary[name] {
			return newError(p.ID, fmt.Errorf("duplicate pipeline input %q", name))
		}
		boundary[name] = true
	}
	for _, name := range p.Outputs {
		if boundary[name] {
			return newError(p.ID, fmt.Errorf("duplicate pipeline output %q", name))
		}
		boundary[name] = true
	}

	instances := make(map[string]bool)
	for i := range p.Instances {
		inst := &p.Instances[i]
		if inst.Name == PipelineInput || inst.Name == PipelineOutput {
			return newError(p.ID, fmt.Errorf("instance name %q is reserved", inst.Name))
		}
		if instances[inst.Name] {
			return newError(p.ID, fmt.Errorf("duplicate instance name %q", inst.Name))
		}
		instances[inst.Name] = true

		mod, ok := modules[inst.ModuleID]
		if !ok {
			return newError(p.ID, fmt.Errorf("instance %q uses unknown module %q", inst.Name, inst.ModuleID))
		}
		for _, name := range inst.Tunable {
			if _, ok := mod.Parameter(name); !ok {
				return newError(p.ID, fmt.Errorf("instance %q: tunable parameter %q does not exist on module %q", inst.Name, name, mod.ID))
			}
		}
		for name := range inst.Set {
			if _, ok := mod.Parameter(name); !ok {
				return newError(p.ID, fmt.Errorf("instance %q: set parameter %q does not exist on module %q", inst.Name, name, mod.ID))
			}
			if inst.IsTunable(name) {
				return newError(p.ID, fmt.Errorf("instance %q: parameter %q is both set and tunable", inst.Name, name))
			}
		}
	}

	// A sink endpoint (module input or OUTPUT pseudo-port) receives at
	// most one connection. Sources may fan out freely.
	sinks := make(map[string]bool)
	for _, c := range p.Connections {
		// Pipeline outputs are produced by modules; a connection from the
		// input boundary straight to the output boundary would leave the
		// declared output path unpopulated.
		if c.Source.IsPipelineInput() && c.Sink.IsPipelineOutput() {
			return newError(p.ID, fmt.Errorf("connection %s -> %s passes a pipeline input straight to a pipeline output; route it through a module instance", c.Source, c.Sink))
		}
		srcType, err := validateSource(p, modules, c.Source)
		if err != nil {
			return newError(p.ID, err)
		}
		sinkType, err := validateSink(p, modules, c.Sink)
		if err != nil {
			return newError(p.ID, err)
		}
		key := c.Sink.String()
		if sinks[key] {
			return newError(p.ID, fmt.Errorf("sink %s is bound by more than one connection", key))
		}
		sinks[key] = true

		// Pipeline inputs are implicitly typed by whatever they feed;
		// only module-to-module edges carry a declared type on both ends.
		if srcType != "" && sinkType != "" {
			if err := types.Compatible(srcType, sinkType); err != nil {
				return newError(p.ID, fmt.Errorf("connection %s -> %s: %w", c.Source, c.Sink, err))
			}
		}
	}
	return nil
}

// validateSource checks the source endpoint of a connection and returns
// its declared type tag, or "" for implicitly-typed pipeline inputs.
func validateSource(p *PipelineManifest, modules map[string]*ModuleManifest, e Endpoint) (string, error) {
	if e.IsPipelineOutput() {
		return "", fmt.Errorf("OUTPUT.%s cannot be used as a connection source", e.Port)
	}
	if e.IsPipelineInput() {
		if !p.DeclaresInput(e.Port) {
			return "", fmt.Errorf("connection references undeclared pipeline input %q", e.Port)
		}
		return "", nil
	}
	inst, ok := p.Instance(e.Owner)
	if !ok {
		return "", fmt.Errorf("connection references unknown instance %q", e.Owner)
	}
	mod := modules[inst.ModuleID]
	port, ok := mod.Output(e.Port)
	if !ok {
		return "", fmt.Errorf("instance %q (module %q) has no output port %q", inst.Name, mod.ID, e.Port)
	}
	return port.Type, nil
}

// validateSink checks the sink endpoint of a connection and returns its
// declared type tag, or "" for pipeline outputs.
func validateSink(p *PipelineManifest, modules map[string]*ModuleManifest, e Endpoint) (string, error) {
	if e.IsPipelineInput() {
		return "", fmt.Errorf("INPUT.%s cannot be used as a connection sink", e.Port)
	}
	if e.IsPipelineOutput() {
		if !p.DeclaresOutput(e.Port) {
			return "", fmt.Errorf("connection references undeclared pipeline output %q", e.Port)
		}
		return "", nil
	}
	inst, ok := p.Instance(e.Owner)
	if !ok {
		return "", fmt.Errorf("connection references unknown instance %q", e.Owner)
	}
	mod := modules[inst.ModuleID]
	port, ok := mod.Input(e.Port)
	if !ok {
		return "", fmt.Errorf("instance %q (module %q) has no input port %q", inst.Name, mod.ID, e.Port)
	}
	return port.Type, nil
}
