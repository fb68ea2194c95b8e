package api

import (
	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/expr"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// The encoders below build plain maps and slices so the same shapes serve
// both the JSON API and google.protobuf.Struct messages.

// TokenJSON describes one token.
func TokenJSON(tok lexer.Token) map[string]interface{} {
	return map[string]interface{}{
		"type":   tok.Type.String(),
		"lexeme": tok.Lexeme,
		"line":   tok.Loc.Line,
		"offset": tok.Loc.Offset,
		"kind":   tok.Kind.String(),
	}
}

// TokensJSON describes every token of a stream, EOF included.
func TokensJSON(s *lexer.Stream) []interface{} {
	toks := s.Tokens()
	out := make([]interface{}, len(toks))
	for i, tok := range toks {
		out[i] = TokenJSON(tok)
	}
	return out
}

// ValueJSON describes a runtime value with its type and dispatch kind.
func ValueJSON(v types.Value) map[string]interface{} {
	return map[string]interface{}{
		"type":  v.Type().String(),
		"kind":  types.KindOf(v).String(),
		"value": v.ToGoValue(),
		"repr":  v.String(),
	}
}

// VariablesJSON describes a set of bindings.
func VariablesJSON(vars map[string]types.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for name, v := range vars {
		out[name] = ValueJSON(v)
	}
	return out
}

// ResultsJSON describes statement results. Failed statements carry an
// error message instead of a value.
func ResultsJSON(results []expr.Result) []interface{} {
	out := make([]interface{}, len(results))
	for i, r := range results {
		m := map[string]interface{}{
			"line":   r.Line,
			"source": r.Source,
		}
		if r.Err != nil {
			m["error"] = r.Err.Error()
		} else {
			m["value"] = ValueJSON(r.Value)
		}
		out[i] = m
	}
	return out
}

// ExecJSON is the response body of an exec call.
func ExecJSON(results []expr.Result, err error) map[string]interface{} {
	m := map[string]interface{}{"results": ResultsJSON(results)}
	if err != nil {
		m["error"] = err.Error()
	}
	return m
}

// OperatorsJSON lists the operators and the number of distinct handlers
// each one dispatches to.
func OperatorsJSON(t *dispatch.Table) []interface{} {
	ops := dispatch.Ops()
	out := make([]interface{}, len(ops))
	for i, op := range ops {
		out[i] = map[string]interface{}{
			"name":     op.String(),
			"symbol":   op.Symbol(),
			"handlers": t.HandlerCount(op),
		}
	}
	return out
}

// GridJSON renders an operator grid as rows of right-operand kinds, each a
// list of recipes by left-operand kind.
func GridJSON(t *dispatch.Table, op dispatch.Op) map[string]interface{} {
	g := t.Grid(op)
	kinds := make([]interface{}, types.NumKinds)
	rows := make(map[string]interface{}, types.NumKinds)
	for _, right := range types.Kinds() {
		kinds[right] = right.String()
		cells := make([]interface{}, types.NumKinds)
		for _, left := range types.Kinds() {
			cells[left] = string(g[right][left])
		}
		rows[right.String()] = cells
	}
	return map[string]interface{}{
		"operator": op.String(),
		"symbol":   op.Symbol(),
		"kinds":    kinds,
		"rows":     rows,
	}
}
