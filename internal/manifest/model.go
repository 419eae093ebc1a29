package manifest

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// PortSpec describes one named, typed data slot on a module.
type PortSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	// Default is a fallback path for inputs left unbound by the pipeline.
	// Empty means no default. Outputs never carry defaults.
	Default string
}

// ParameterSpec describes one tunable knob of a module. Parameters live in
// a separate namespace from ports.
type ParameterSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     *cty.Value
}

// ModuleManifest is the typed description of one module: its identifier,
// the executable that implements it, and its ports and parameters.
// Instances are immutable once loaded.
type ModuleManifest struct {
	ID          string
	Description string
	Executable  string
	Inputs      []PortSpec
	Outputs     []PortSpec
	Parameters  []ParameterSpec
}

// Input returns the input port with the given name.
func (m *ModuleManifest) Input(name string) (*PortSpec, bool) {
	return findPort(m.Inputs, name)
}

// Output returns the output port with the given name.
func (m *ModuleManifest) Output(name string) (*PortSpec, bool) {
	return findPort(m.Outputs, name)
}

// Parameter returns the parameter spec with the given name.
func (m *ModuleManifest) Parameter(name string) (*ParameterSpec, bool) {
	for i := range m.Parameters {
		if m.Parameters[i].Name == name {
			return &m.Parameters[i], true
		}
	}
	return nil, false
}

func findPort(ports []PortSpec, name string) (*PortSpec, bool) {
	for i := range ports {
		if ports[i].Name == name {
			return &ports[i], true
		}
	}
	return nil, false
}

// ModuleInstance is one use of a module within a pipeline.
type ModuleInstance struct {
	// Name is the instance name, unique within the pipeline.
	Name string
	// ModuleID references the ModuleManifest this instance runs.
	ModuleID string
	// Tunable lists the parameter names the pipeline author exposes to
	// job requests.
	Tunable []string
	// Set holds pipeline-level fixed parameter overrides, hidden from
	// job requests.
	Set map[string]cty.Value
}

// IsTunable reports whether job requests may override the named parameter
// on this instance.
func (mi *ModuleInstance) IsTunable(name string) bool {
	for _, t := range mi.Tunable {
		if t == name {
			return true
		}
	}
	return false
}

// Reserved endpoint owners addressing the pipeline's own boundary.
const (
	PipelineInput  = "INPUT"
	PipelineOutput = "OUTPUT"
)

// Endpoint addresses one side of a connection: either a port on a module
// instance, or a declared pipeline input/output via the reserved owners
// INPUT and OUTPUT.
type Endpoint struct {
	Owner string
	Port  string
}

// IsPipelineInput reports whether the endpoint addresses a declared
// pipeline input.
func (e Endpoint) IsPipelineInput() bool { return e.Owner == PipelineInput }

// IsPipelineOutput reports whether the endpoint addresses a declared
// pipeline output.
func (e Endpoint) IsPipelineOutput() bool { return e.Owner == PipelineOutput }

func (e Endpoint) String() string {
	return e.Owner + "." + e.Port
}

// ParseEndpoint parses "owner.port" addressing, e.g. "INPUT.video" or
// "formatter.output_video_path".
func ParseEndpoint(s string) (Endpoint, error) {
	owner, port, ok := strings.Cut(s, ".")
	if !ok || owner == "" || port == "" {
		return Endpoint{}, fmt.Errorf("invalid endpoint address %q: want \"owner.port\"", s)
	}
	return Endpoint{Owner: owner, Port: port}, nil
}

// Connection is one typed data edge from a source endpoint to a sink
// endpoint.
type Connection struct {
	Source Endpoint
	Sink   Endpoint
}

// PipelineManifest is the typed description of one pipeline: its declared
// external inputs and outputs, module instances, and the connections
// between their ports. Instances are immutable once loaded.
type PipelineManifest struct {
	ID          string
	Description string
	Inputs      []string
	Outputs     []string
	Instances   []ModuleInstance
	Connections []Connection
}

// Instance returns the module instance with the given name.
func (p *PipelineManifest) Instance(name string) (*ModuleInstance, bool) {
	for i := range p.Instances {
		if p.Instances[i].Name == name {
			return &p.Instances[i], true
		}
	}
	return nil, false
}

// DeclaresInput reports whether name is a declared pipeline input.
func (p *PipelineManifest) DeclaresInput(name string) bool {
	return containsString(p.Inputs, name)
}

// DeclaresOutput reports whether name is a declared pipeline output.
func (p *PipelineManifest) DeclaresOutput(name string) bool {
	return containsString(p.Outputs, name)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
