// Package schema defines the HCL block structures for module and pipeline
// manifest files. These are the raw document shapes; the hcl package
// translates them into the validated manifest model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Module manifest schema ---

// PortBlock declares a single input or output port on a module.
type PortBlock struct {
	Name        string  `hcl:"name,label"`
	Type        string  `hcl:"type"`
	Description string  `hcl:"description,optional"`
	Required    bool    `hcl:"required,optional"`
	Default     *string `hcl:"default,optional"`
}

// ParameterBlock declares a single tunable parameter on a module.
type ParameterBlock struct {
	Name        string     `hcl:"name,label"`
	Type        string     `hcl:"type"`
	Description string     `hcl:"description,optional"`
	Required    bool       `hcl:"required,optional"`
	Default     *cty.Value `hcl:"default,optional"`
}

// ModuleBlock represents the `module` block of a module manifest file.
type ModuleBlock struct {
	ID          string            `hcl:"id,label"`
	Description string            `hcl:"description,optional"`
	Executable  string            `hcl:"executable"`
	Inputs      []*PortBlock      `hcl:"input,block"`
	Outputs     []*PortBlock      `hcl:"output,block"`
	Parameters  []*ParameterBlock `hcl:"parameter,block"`
}

// ModuleFile is the top-level structure of a module manifest file.
type ModuleFile struct {
	Module *ModuleBlock `hcl:"module,block"`
	Body   hcl.Body     `hcl:",remain"`
}

// --- Pipeline manifest schema ---

// SetParamsBlock holds the raw body of a `set_parameters` block. Its
// attributes are evaluated into concrete values during translation.
type SetParamsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// InstanceBlock represents a `module` block inside a pipeline: one named
// instance of a module, with its exposed and fixed parameters.
type InstanceBlock struct {
	Name    string          `hcl:"name,label"`
	Uses    string          `hcl:"uses"`
	Tunable []string        `hcl:"tunable_parameters,optional"`
	Set     *SetParamsBlock `hcl:"set_parameters,block"`
}

// ConnectionBlock represents a `connection` block: one typed data edge
// between two endpoints addressed as "INPUT.<name>", "OUTPUT.<name>", or
// "<instance>.<port>".
type ConnectionBlock struct {
	Source string `hcl:"source"`
	Sink   string `hcl:"sink"`
}

// PipelineBlock represents the `pipeline` block of a pipeline manifest.
type PipelineBlock struct {
	ID          string             `hcl:"id,label"`
	Description string             `hcl:"description,optional"`
	Inputs      []string           `hcl:"inputs"`
	Outputs     []string           `hcl:"outputs"`
	Modules     []*InstanceBlock   `hcl:"module,block"`
	Connections []*ConnectionBlock `hcl:"connection,block"`
}

// PipelineFile is the top-level structure of a pipeline manifest file.
type PipelineFile struct {
	Pipeline *PipelineBlock `hcl:"pipeline,block"`
	Body     hcl.Body       `hcl:",remain"`
}
