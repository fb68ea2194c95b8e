package dispatch

import (
	"fmt"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Environment resolves and binds variable names. Implementations decide
// scoping; the engine only reads and writes single names.
type Environment interface {
	Resolve(name string) (types.Value, bool)
	Bind(name string, v types.Value)
}

// Owner is implemented by environments whose outer bindings are read-only.
// Owns reports whether the binding of name may be updated in place.
type Owner interface {
	Owns(name string) bool
}

// Operand is either a literal value or a reference to a variable.
type Operand struct {
	name  string
	value types.Value
	ref   bool
}

// Lit returns a literal operand.
func Lit(v types.Value) Operand { return Operand{value: v} }

// Ref returns an operand that names a variable.
func Ref(name string) Operand { return Operand{name: name, ref: true} }

// IsRef reports whether o names a variable.
func (o Operand) IsRef() bool { return o.ref }

// Name returns the referenced variable name, or "" for literals.
func (o Operand) Name() string { return o.name }

func (o Operand) String() string {
	if o.ref {
		return o.name
	}
	return o.value.String()
}

// Engine evaluates operators against one environment. It is not safe for
// concurrent use unless the environment is.
type Engine struct {
	table *Table
	env   Environment
}

// NewEngine creates an engine dispatching through t against env.
func NewEngine(t *Table, env Environment) *Engine {
	return &Engine{table: t, env: env}
}

// Table returns the dispatch table in use.
func (e *Engine) Table() *Table { return e.table }

func (e *Engine) resolve(o Operand) types.Value {
	if !o.ref {
		return o.value
	}
	v, ok := e.env.Resolve(o.name)
	if !ok {
		return types.Null
	}
	return v
}

// Evaluate computes left op right. If either operand is absent the result is
// null and no handler runs.
func (e *Engine) Evaluate(op Op, left, right Operand) (types.Value, error) {
	return e.table.Apply(op, e.resolve(left), e.resolve(right))
}

// Assign binds target to value. An absent target is bound directly; an
// existing binding goes through the assignment table, which may update a
// bound object or block in place. A cell the environment does not own is
// copied and the copy is bound instead.
func (e *Engine) Assign(target string, value Operand) error {
	v := e.resolve(value)
	current, ok := e.env.Resolve(target)
	if !ok || current.IsNull() {
		e.env.Bind(target, v)
		return nil
	}
	rec := e.table.AssignRecipe(types.KindOf(v), types.KindOf(current))
	fn, ok := assignRecipes[rec]
	if !ok {
		return fmt.Errorf("assign %s: no recipe %q", target, rec)
	}
	cell, shadowed := current, false
	if rec == AssignStore || rec == AssignSplice {
		if o, ok := e.env.(Owner); ok && !o.Owns(target) {
			cell, shadowed = shadow(current), true
		}
	}
	if err := fn(e.env, target, cell, v); err != nil {
		return fmt.Errorf("assign %s: %w", target, err)
	}
	if shadowed {
		e.env.Bind(target, cell)
	}
	return nil
}
