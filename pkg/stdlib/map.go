package stdlib

import (
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerMapFuncs registers map.* functions.
func (r *Registry) registerMapFuncs() {
	r.Register("map.get", mapGet)
	r.Register("map.delete", mapDelete)
	r.Register("map.merge", mapMerge)
}

func mapArg(name string, v types.Value) (*types.OrderedMap, error) {
	v = v.Unwrap()
	if v.Type() != types.TypeMap {
		return nil, types.NewTypeError(name + ": first argument must be a map")
	}
	return v.AsMap(), nil
}

// mapGet is map.get(m, key) or map.get(m, key, default).
func mapGet(args []types.Value) (types.Value, error) {
	if err := requireArgs("map.get", args, 2, 3); err != nil {
		return types.Null, err
	}
	m, err := mapArg("map.get", args[0])
	if err != nil {
		return types.Null, err
	}
	if args[1].Type() != types.TypeString {
		return types.Null, types.NewTypeError("map.get: key must be a string")
	}

	val, ok := m.Get(args[1].AsString())
	if !ok {
		if len(args) == 3 {
			return args[2], nil
		}
		return types.Null, nil
	}
	return val, nil
}

// mapDelete returns a copy of the map without key.
func mapDelete(args []types.Value) (types.Value, error) {
	if err := requireArgs("map.delete", args, 2, 2); err != nil {
		return types.Null, err
	}
	m, err := mapArg("map.delete", args[0])
	if err != nil {
		return types.Null, err
	}
	key := args[1].AsString()

	result := types.NewOrderedMap()
	for _, k := range m.Keys() {
		if k != key {
			v, _ := m.Get(k)
			result.Set(k, v)
		}
	}
	return types.NewMap(result), nil
}

// mapMerge merges maps left to right; later keys win.
func mapMerge(args []types.Value) (types.Value, error) {
	result := types.NewOrderedMap()
	for _, a := range args {
		m, err := mapArg("map.merge", a)
		if err != nil {
			return types.Null, types.NewTypeError("map.merge: all arguments must be maps")
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			result.Set(k, v)
		}
	}
	return types.NewMap(result), nil
}
