package invoke

import (
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// EncodeConfig serializes an invocation into the JSON document the module
// executables consume:
//
//	{
//	  "data": [{"<input port>": "<path>", "<output port>": "<path>", ...}],
//	  "parameters": {"<name>": <value>, ...}
//	}
//
// The data array carries one record per processing batch; this engine
// always emits exactly one.
func EncodeConfig(inv Invocation) ([]byte, error) {
	ports := make(map[string]cty.Value, len(inv.Inputs)+len(inv.Outputs))
	for name, path := range inv.Inputs {
		ports[name] = cty.StringVal(path)
	}
	for name, path := range inv.Outputs {
		ports[name] = cty.StringVal(path)
	}
	data := cty.TupleVal([]cty.Value{objectVal(ports)})

	parameters := make(map[string]cty.Value, len(inv.Parameters))
	for name, val := range inv.Parameters {
		parameters[name] = val
	}

	root := cty.ObjectVal(map[string]cty.Value{
		"data":       data,
		"parameters": objectVal(parameters),
	})
	return ctyjson.Marshal(root, root.Type())
}

func objectVal(vals map[string]cty.Value) cty.Value {
	if len(vals) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vals)
}
