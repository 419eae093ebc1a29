package params

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/typesys"
)

// NotTunableError reports a job-level override addressed to a parameter
// the pipeline author did not expose on that instance.
type NotTunableError struct {
	Instance  string
	Parameter string
}

func (e *NotTunableError) Error() string {
	return fmt.Sprintf("parameter %q on instance %q is not tunable", e.Parameter, e.Instance)
}

// MissingError reports a required parameter with no value after all three
// layers were applied.
type MissingError struct {
	Instance  string
	Parameter string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required parameter %q on instance %q has no value", e.Parameter, e.Instance)
}

// Resolve computes the effective parameter map for one module instance by
// applying, in increasing precedence: module defaults, the instance's
// set_parameters, and the job-level overrides for that instance. Override
// values arrive as plain Go values (from the YAML request) and are
// converted to the parameter's declared type.
func Resolve(inst *manifest.ModuleInstance, mod *manifest.ModuleManifest, overrides map[string]any, types *typesys.Registry) (map[string]cty.Value, error) {
	resolved := make(map[string]cty.Value)

	// Layer 1: module defaults.
	for _, spec := range mod.Parameters {
		if spec.Default != nil {
			resolved[spec.Name] = *spec.Default
		}
	}

	// Layer 2: pipeline-level fixed overrides. Existence was validated
	// at manifest load.
	for name, val := range inst.Set {
		spec, _ := mod.Parameter(name)
		converted, err := toDeclaredType(val, spec, types)
		if err != nil {
			return nil, fmt.Errorf("instance %q: set parameter %q: %w", inst.Name, name, err)
		}
		resolved[name] = converted
	}

	// Layer 3: job-level overrides, restricted to tunable parameters.
	for name, raw := range overrides {
		if _, ok := mod.Parameter(name); !ok {
			return nil, fmt.Errorf("override for unknown parameter %q on instance %q", name, inst.Name)
		}
		if !inst.IsTunable(name) {
			return nil, &NotTunableError{Instance: inst.Name, Parameter: name}
		}
		val, err := FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("instance %q: override %q: %w", inst.Name, name, err)
		}
		spec, _ := mod.Parameter(name)
		converted, err := toDeclaredType(val, spec, types)
		if err != nil {
			return nil, fmt.Errorf("instance %q: override %q: %w", inst.Name, name, err)
		}
		resolved[name] = converted
	}

	for _, spec := range mod.Parameters {
		if _, ok := resolved[spec.Name]; !ok && spec.Required {
			return nil, &MissingError{Instance: inst.Name, Parameter: spec.Name}
		}
	}
	return resolved, nil
}

// toDeclaredType converts a value to the parameter's declared cty type.
// Dynamically-typed parameters (array, object) pass through unchanged.
func toDeclaredType(val cty.Value, spec *manifest.ParameterSpec, types *typesys.Registry) (cty.Value, error) {
	want, ok := types.CtyType(spec.Type)
	if !ok || want == cty.DynamicPseudoType {
		return val, nil
	}
	converted, err := convert.Convert(val, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
	}
	return converted, nil
}

// FromGo converts a native Go value (as decoded from YAML) into its
// corresponding cty.Value.
func FromGo(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(t))
		for i, elem := range t {
			ev, err := FromGo(elem)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = ev
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}
		vals := make(map[string]cty.Value, len(t))
		for key, elem := range t {
			ev, err := FromGo(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("in attribute %q: %w", key, err)
			}
			vals[key] = ev
		}
		return cty.ObjectVal(vals), nil
	default:
		ty, err := gocty.ImpliedType(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("unable to infer value type for %T: %w", v, err)
		}
		return gocty.ToCtyValue(v, ty)
	}
}
