package dispatch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Table is a compiled dispatch table. It is immutable once built and safe
// for concurrent use.
type Table struct {
	handlers []Handler
	names    []Recipe
	matrix   [NumOps][types.NumKinds][types.NumKinds]uint8
	assign   AssignGrid
}

// NewTable compiles the built-in grid.
func NewTable() (*Table, error) {
	return LoadTable(bytes.NewReader(defaultGrid))
}

// MustNewTable is like NewTable but panics if the built-in grid is invalid.
func MustNewTable() *Table {
	t, err := NewTable()
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable compiles a grid read from r.
func LoadTable(r io.Reader) (*Table, error) {
	g, err := parseGrid(r)
	if err != nil {
		return nil, err
	}
	return compile(g)
}

func compile(g *parsedGrid) (*Table, error) {
	t := &Table{assign: g.assign}
	index := make(map[Recipe]uint8)
	intern := func(r Recipe) uint8 {
		if i, ok := index[r]; ok {
			return i
		}
		i := uint8(len(t.handlers))
		index[r] = i
		t.handlers = append(t.handlers, recipes[r].fn)
		t.names = append(t.names, r)
		return i
	}
	// The mismatch handler is always slot 0.
	intern(RecipeInvalid)

	for op := range g.ops {
		for right := range g.ops[op] {
			for left, rec := range g.ops[op][right] {
				if rec == "" {
					return nil, fmt.Errorf("dispatch grid: %s: empty cell [%s][%s]",
						Op(op), types.Kind(right), types.Kind(left))
				}
				t.matrix[op][right][left] = intern(rec)
			}
		}
	}
	return t, nil
}

// Apply dispatches op on two resolved values. A null operand yields null
// without invoking a handler.
func (t *Table) Apply(op Op, left, right types.Value) (types.Value, error) {
	if int(op) >= NumOps {
		return types.Null, fmt.Errorf("unknown operator %d", op)
	}
	if left.IsNull() || right.IsNull() {
		return types.Null, nil
	}
	h := t.handlers[t.matrix[op][types.KindOf(right)][types.KindOf(left)]]
	return h(t, op, left, right)
}

// Recipe returns the recipe compiled into the cell for (op, left, right).
func (t *Table) Recipe(op Op, left, right types.Kind) Recipe {
	return t.names[t.matrix[op][right][left]]
}

// Grid returns op's recipes, indexed [right][left].
func (t *Table) Grid(op Op) Grid {
	var g Grid
	for right := range g {
		for left := range g[right] {
			g[right][left] = t.names[t.matrix[op][right][left]]
		}
	}
	return g
}

// HandlerCount returns the number of distinct handlers op's matrix uses.
func (t *Table) HandlerCount(op Op) int {
	seen := make(map[uint8]struct{})
	for _, row := range t.matrix[op] {
		for _, h := range row {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

// Handlers returns the number of distinct handlers across all operators.
func (t *Table) Handlers() int { return len(t.handlers) }

// AssignRecipe returns the assignment recipe for storing a value of kind
// value into a binding currently holding kind current.
func (t *Table) AssignRecipe(value, current types.Kind) AssignRecipe {
	return t.assign[value][current]
}

// AssignGrid returns the assignment recipes, indexed [value][current].
func (t *Table) AssignGrid() AssignGrid { return t.assign }
