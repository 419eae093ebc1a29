package hcl

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/schema"
)

// translateModule converts the HCL-specific module schema into the typed
// manifest model.
func translateModule(b *schema.ModuleBlock) *manifest.ModuleManifest {
	m := &manifest.ModuleManifest{
		ID:          b.ID,
		Description: b.Description,
		Executable:  b.Executable,
	}
	for _, in := range b.Inputs {
		port := manifest.PortSpec{
			Name:        in.Name,
			Type:        in.Type,
			Description: in.Description,
			Required:    in.Required,
		}
		if in.Default != nil {
			port.Default = *in.Default
		}
		m.Inputs = append(m.Inputs, port)
	}
	for _, out := range b.Outputs {
		m.Outputs = append(m.Outputs, manifest.PortSpec{
			Name:        out.Name,
			Type:        out.Type,
			Description: out.Description,
			Required:    out.Required,
		})
	}
	for _, p := range b.Parameters {
		param := manifest.ParameterSpec{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
		}
		// A default only counts if it evaluated to a non-null value.
		if p.Default != nil && !p.Default.IsNull() {
			param.Default = p.Default
		}
		m.Parameters = append(m.Parameters, param)
	}
	return m
}

// translatePipeline converts the HCL-specific pipeline schema into the
// typed manifest model, evaluating set_parameters attributes and parsing
// connection endpoint addresses.
func translatePipeline(b *schema.PipelineBlock) (*manifest.PipelineManifest, error) {
	p := &manifest.PipelineManifest{
		ID:          b.ID,
		Description: b.Description,
		Inputs:      b.Inputs,
		Outputs:     b.Outputs,
	}

	for _, mb := range b.Modules {
		inst := manifest.ModuleInstance{
			Name:     mb.Name,
			ModuleID: mb.Uses,
			Tunable:  mb.Tunable,
			Set:      make(map[string]cty.Value),
		}
		if mb.Set != nil {
			attrs, diags := mb.Set.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, diags
			}
			for name, attr := range attrs {
				// Set parameters are literals; there is no evaluation
				// context for them to reference.
				val, diags := attr.Expr.Value(nil)
				if diags.HasErrors() {
					return nil, diags
				}
				inst.Set[name] = val
			}
		}
		p.Instances = append(p.Instances, inst)
	}

	for _, cb := range b.Connections {
		source, err := manifest.ParseEndpoint(cb.Source)
		if err != nil {
			return nil, fmt.Errorf("connection source: %w", err)
		}
		sink, err := manifest.ParseEndpoint(cb.Sink)
		if err != nil {
			return nil, fmt.Errorf("connection sink: %w", err)
		}
		p.Connections = append(p.Connections, manifest.Connection{Source: source, Sink: sink})
	}
	return p, nil
}
