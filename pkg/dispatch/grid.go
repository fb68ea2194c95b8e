package dispatch

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

//go:embed grid.yaml
var defaultGrid []byte

// gridFile is the on-disk form of a dispatch grid.
type gridFile struct {
	Kinds     []string                       `yaml:"kinds"`
	Operators map[string]map[string][]string `yaml:"operators"`
	Assign    map[string][]string            `yaml:"assign"`
}

// Grid is one operator's recipes, indexed [right][left].
type Grid [types.NumKinds][types.NumKinds]Recipe

// AssignGrid is the assignment recipes, indexed [value][current].
type AssignGrid [types.NumKinds][types.NumKinds]AssignRecipe

// parsedGrid is a validated grid file.
type parsedGrid struct {
	ops    [NumOps]Grid
	assign AssignGrid
}

func parseGrid(r io.Reader) (*parsedGrid, error) {
	var f gridFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dispatch grid is empty")
		}
		return nil, fmt.Errorf("decoding dispatch grid: %w", err)
	}

	columns, err := parseColumns(f.Kinds)
	if err != nil {
		return nil, err
	}

	g := &parsedGrid{}
	for name := range f.Operators {
		if _, err := ParseOp(name); err != nil {
			return nil, fmt.Errorf("dispatch grid: %w", err)
		}
	}
	for _, op := range Ops() {
		rows, ok := f.Operators[op.String()]
		if !ok {
			return nil, fmt.Errorf("dispatch grid: operator %s is missing", op)
		}
		err := fillRows(rows, columns, func(row, col types.Kind, cell string) error {
			rec := Recipe(cell)
			def, ok := recipes[rec]
			if !ok {
				return fmt.Errorf("unknown recipe %q", cell)
			}
			if !def.ops.has(op) {
				return fmt.Errorf("recipe %q does not apply to %s", cell, op)
			}
			g.ops[op][row][col] = rec
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch grid: %s: %w", op, err)
		}
	}

	if len(f.Assign) == 0 {
		return nil, fmt.Errorf("dispatch grid: assign section is missing")
	}
	err = fillRows(f.Assign, columns, func(row, col types.Kind, cell string) error {
		rec := AssignRecipe(cell)
		if _, ok := assignRecipes[rec]; !ok {
			return fmt.Errorf("unknown assign recipe %q", cell)
		}
		g.assign[row][col] = rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch grid: assign: %w", err)
	}
	return g, nil
}

// parseColumns maps column positions onto kinds. Every kind must appear
// exactly once.
func parseColumns(names []string) ([]types.Kind, error) {
	if len(names) != types.NumKinds {
		return nil, fmt.Errorf("dispatch grid: kinds lists %d entries, want %d", len(names), types.NumKinds)
	}
	seen := make(map[types.Kind]bool, types.NumKinds)
	columns := make([]types.Kind, len(names))
	for i, n := range names {
		k, err := types.ParseKind(n)
		if err != nil {
			return nil, fmt.Errorf("dispatch grid: %w", err)
		}
		if seen[k] {
			return nil, fmt.Errorf("dispatch grid: kind %s listed twice", k)
		}
		seen[k] = true
		columns[i] = k
	}
	return columns, nil
}

func fillRows(rows map[string][]string, columns []types.Kind, set func(row, col types.Kind, cell string) error) error {
	if len(rows) != types.NumKinds {
		names := make([]string, 0, len(rows))
		for n := range rows {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("has rows %v, want one per kind", names)
	}
	for name, cells := range rows {
		row, err := types.ParseKind(name)
		if err != nil {
			return err
		}
		if len(cells) != len(columns) {
			return fmt.Errorf("row %s has %d cells, want %d", name, len(cells), len(columns))
		}
		for i, cell := range cells {
			if err := set(row, columns[i], cell); err != nil {
				return fmt.Errorf("row %s column %s: %w", name, columns[i], err)
			}
		}
	}
	return nil
}
