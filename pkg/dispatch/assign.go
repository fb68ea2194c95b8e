package dispatch

import (
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// AssignRecipe names what assignment does to an existing binding.
type AssignRecipe string

const (
	AssignRebind  AssignRecipe = "rebind" // replace the binding
	AssignStore   AssignRecipe = "store"  // write into the bound object
	AssignSplice  AssignRecipe = "splice" // replace the bound block's statements
	AssignInvalid AssignRecipe = "x"      // type mismatch
)

// assignFunc stores value into the binding name, which currently holds current.
type assignFunc func(env Environment, name string, current, value types.Value) error

var assignRecipes = map[AssignRecipe]assignFunc{
	AssignRebind:  rebind,
	AssignStore:   store,
	AssignSplice:  splice,
	AssignInvalid: assignMismatch,
}

func rebind(env Environment, name string, _, value types.Value) error {
	env.Bind(name, value)
	return nil
}

func store(env Environment, name string, current, value types.Value) error {
	if current.Type() != types.TypeObject {
		return assignMismatch(env, name, current, value)
	}
	current.AsObject().Set(value)
	return nil
}

func splice(env Environment, name string, current, value types.Value) error {
	stmts, ok := statements(value)
	if !ok || current.Type() != types.TypeBlock {
		return assignMismatch(env, name, current, value)
	}
	current.AsBlock().Replace(stmts)
	return nil
}

func assignMismatch(_ Environment, _ string, current, value types.Value) error {
	return types.NewTypeMismatch("=", current, value)
}

// shadow copies an object or block cell so the copy can be bound without
// touching the original.
func shadow(v types.Value) types.Value {
	switch v.Type() {
	case types.TypeObject:
		o := v.AsObject()
		return types.NewObject(types.NewObjectRef(o.Name(), o.Get()))
	case types.TypeBlock:
		return types.NewBlock(types.NewBlockOf(v.AsBlock().Statements()...))
	}
	return v
}
