package stdlib

import (
	"encoding/json"
	"fmt"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerJSON registers json.* functions.
func (r *Registry) registerJSON() {
	r.Register("json.decode", jsonDecode)
	r.Register("json.encode", jsonEncode)
}

func jsonDecode(args []types.Value) (types.Value, error) {
	if err := requireArgs("json.decode", args, 1, 1); err != nil {
		return types.Null, err
	}
	in := args[0].Unwrap()
	if in.Type() != types.TypeString {
		return types.Null, types.NewTypeError("json.decode requires a string argument")
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(in.AsString()), &raw); err != nil {
		return types.Null, types.NewValueError(fmt.Sprintf("json.decode: invalid JSON: %v", err))
	}
	return types.ValueFromJSON(raw), nil
}

func jsonEncode(args []types.Value) (types.Value, error) {
	if err := requireArgs("json.encode", args, 1, 1); err != nil {
		return types.Null, err
	}
	b, err := args[0].MarshalJSON()
	if err != nil {
		return types.Null, fmt.Errorf("json.encode: %v", err)
	}
	return types.NewString(string(b)), nil
}
