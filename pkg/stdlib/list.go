package stdlib

import (
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerList registers list.* functions.
func (r *Registry) registerList() {
	r.Register("list.concat", listConcat)
	r.Register("list.prepend", listPrepend)
}

// listConcat is list.concat(list, other). A non-list other is appended as
// one element.
func listConcat(args []types.Value) (types.Value, error) {
	if err := requireArgs("list.concat", args, 2, 2); err != nil {
		return types.Null, err
	}
	list1, list2 := args[0].Unwrap(), args[1]
	if list1.Type() != types.TypeList {
		return types.Null, types.NewTypeError("list.concat: first argument must be a list")
	}

	result := make([]types.Value, 0, len(list1.AsList())+1)
	result = append(result, list1.AsList()...)

	// If second argument is a list, concatenate; otherwise append as element
	if list2.Type() == types.TypeList {
		result = append(result, list2.AsList()...)
	} else {
		result = append(result, list2)
	}
	return types.NewList(result), nil
}

func listPrepend(args []types.Value) (types.Value, error) {
	if err := requireArgs("list.prepend", args, 2, 2); err != nil {
		return types.Null, err
	}
	list, value := args[0].Unwrap(), args[1]
	if list.Type() != types.TypeList {
		return types.Null, types.NewTypeError("list.prepend: first argument must be a list")
	}

	result := make([]types.Value, 0, len(list.AsList())+1)
	result = append(result, value)
	result = append(result, list.AsList()...)
	return types.NewList(result), nil
}
