package expr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

var (
	testTokenizer = lexer.DefaultTokenizer()
	testTable     = dispatch.MustNewTable()
)

// testScope implements Scope for testing.
type testScope struct {
	vars  map[string]types.Value
	funcs map[string]func([]types.Value) (types.Value, error)
}

func newTestScope() *testScope {
	return &testScope{
		vars:  make(map[string]types.Value),
		funcs: make(map[string]func([]types.Value) (types.Value, error)),
	}
}

func (s *testScope) Resolve(name string) (types.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *testScope) Bind(name string, v types.Value) {
	s.vars[name] = v
}

func (s *testScope) CallFunction(name string, args []types.Value) (types.Value, error) {
	fn, ok := s.funcs[name]
	if !ok {
		return types.Null, fmt.Errorf("function '%s' not found", name)
	}
	return fn(args)
}

func eval(t *testing.T, scope *testScope, input string) (types.Value, error) {
	t.Helper()
	node, err := ParseExpression(testTokenizer, input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return NewEvaluator(testTable, scope).Evaluate(node)
}

type evalCase struct {
	input string
	want  types.Value
}

func runEvalCases(t *testing.T, scope *testScope, tests []evalCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := eval(t, scope, tt.input)
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}
			if got.Type() != tt.want.Type() || !got.Equal(tt.want) {
				t.Errorf("got %v (%s), want %v (%s)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func ints(vs ...int64) types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = types.NewInt(v)
	}
	return types.NewList(out)
}

func TestLiteralExpressions(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"42", types.NewInt(42)},
		{"0", types.NewInt(0)},
		{"3.14", types.NewFloat(3.14)},
		{"50%", types.NewFloat(0.5)},
		{`"hello"`, types.NewString("hello")},
		{`'hello world'`, types.NewString("hello world")},
		{`""`, types.NewString("")},
		{"true", types.NewBool(true)},
		{"false", types.NewBool(false)},
		{"nil", types.Null},
		{"1h30m", types.NewDuration(90 * time.Minute)},
	})
}

func TestArithmeticExpressions(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"1 + 2", types.NewInt(3)},
		{"10 - 2 - 3", types.NewInt(5)},
		{"2 * 3 + 4", types.NewInt(10)},
		{"2 + 3 * 4", types.NewInt(14)},
		{"(2 + 3) * 4", types.NewInt(20)},
		{"10 / 4", types.NewFloat(2.5)},
		{"7 % 3", types.NewInt(1)},
		{"2 ** 10", types.NewInt(1024)},
		{"2 ** 3 ** 2", types.NewInt(512)},
		{"-2 ** 2", types.NewInt(-4)},
		{"2 ** -1", types.NewFloat(0.5)},
		{"1 + 2.5", types.NewFloat(3.5)},
		{"-5 + 2", types.NewInt(-3)},
		{"1 << 3", types.NewInt(8)},
		{"16 >> 2", types.NewInt(4)},
		{"1 + 2 << 1", types.NewInt(6)},
		{"1h + 30m", types.NewDuration(90 * time.Minute)},
		{"-1h", types.NewDuration(-time.Hour)},
	})
}

func TestComparisonExpressions(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"1 < 2", types.NewBool(true)},
		{"2 <= 2", types.NewBool(true)},
		{"3 > 4", types.NewBool(false)},
		{"3 >= 3.0", types.NewBool(true)},
		{"1 == 1.0", types.NewBool(true)},
		{"1 != 2", types.NewBool(true)},
		{`"a" < "b"`, types.NewBool(true)},
		{`"a" == "a"`, types.NewBool(true)},
		{"12:30 < 13:00", types.NewBool(true)},
		{"1 + 1 == 2", types.NewBool(true)},
	})
}

func TestLogicalExpressions(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"true and false", types.NewBool(false)},
		{"true && true", types.NewBool(true)},
		{"false or true", types.NewBool(true)},
		{"false || false", types.NewBool(false)},
		{"not true", types.NewBool(false)},
		{"!false", types.NewBool(true)},
		{"not 1 == 2", types.NewBool(true)},
		{"nil or 1", types.NewBool(true)},
		{"0 and true", types.NewBool(true)},
	})
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	scope := newTestScope()
	calls := 0
	scope.funcs["boom"] = func([]types.Value) (types.Value, error) {
		calls++
		return types.Null, errors.New("boom")
	}

	for _, input := range []string{"false and boom()", "true or boom()"} {
		if _, err := eval(t, scope, input); err != nil {
			t.Errorf("%s: unexpected error: %v", input, err)
		}
	}
	if calls != 0 {
		t.Errorf("right operand evaluated %d times", calls)
	}
}

func TestStringConcatenation(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{`"hello" + " " + "world"`, types.NewString("hello world")},
		{`"foo" + 3`, types.NewString("foo3")},
		{`3 + "foo"`, types.NewString("3foo")},
		{`"ab" * 3`, types.NewString("ababab")},
	})
}

func TestStringMinusIntIsTypeMismatch(t *testing.T) {
	_, err := eval(t, newTestScope(), `"foo" - 3`)
	var mm *types.TypeMismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if mm.Op != "-" || mm.Left != types.TypeString || mm.Right != types.TypeInt {
		t.Errorf("got mismatch %+v", mm)
	}
}

func TestUndefinedVariableIsNull(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"missing", types.Null},
		{"missing + 1", types.Null},
		{"1 + missing", types.Null},
		{"missing.field", types.Null},
		{"missing[0]", types.Null},
		{"-missing", types.Null},
	})
}

func TestVariableAccess(t *testing.T) {
	scope := newTestScope()
	inner := types.NewOrderedMap()
	inner.Set("b", types.NewInt(2))
	m := types.NewOrderedMap()
	m.Set("a", types.NewMap(inner))
	scope.vars["m"] = types.NewMap(m)
	scope.vars["xs"] = ints(10, 20, 30)
	scope.vars["n"] = types.NewInt(7)

	runEvalCases(t, scope, []evalCase{
		{"n", types.NewInt(7)},
		{"n * 2", types.NewInt(14)},
		{"m.a.b", types.NewInt(2)},
		{`m["a"]["b"]`, types.NewInt(2)},
		{"xs[1]", types.NewInt(20)},
		{"xs[-1]", types.NewInt(30)},
		{`"héllo"[1]`, types.NewString("é")},
	})
}

func TestInExpression(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"2 in [1, 2, 3]", types.NewBool(true)},
		{"4 in [1, 2, 3]", types.NewBool(false)},
		{"4 not in [1, 2, 3]", types.NewBool(true)},
		{`"b" in {"a": 1, "b": 2}`, types.NewBool(true)},
		{`"ell" in "hello"`, types.NewBool(true)},
		{`"x = 1" in {x = 1; y = 2}`, types.NewBool(true)},
	})
}

func TestRangeExpression(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"1 .. 3", ints(1, 2, 3)},
		{"3 .. 1", ints()},
		{"1 .. 1 + 2", ints(1, 2, 3)},
		{"2 in 1 .. 3", types.NewBool(true)},
		{"1..3", ints(1, 2, 3)},
		{"[1..2]", types.NewList([]types.Value{ints(1, 2)})},
	})
}

func TestUnspacedRangeInIndex(t *testing.T) {
	node, err := ParseExpression(testTokenizer, "x[1..3]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	idx, ok := node.(*IndexNode)
	if !ok {
		t.Fatalf("got %T, want *IndexNode", node)
	}
	bin, ok := idx.Index.(*BinaryNode)
	if !ok || bin.Op != lexer.TokenRange {
		t.Fatalf("index = %#v, want a range", idx.Index)
	}
}

func TestListAndMapLiterals(t *testing.T) {
	runEvalCases(t, newTestScope(), []evalCase{
		{"[]", types.NewList([]types.Value{})},
		{"[1, 2, 3]", ints(1, 2, 3)},
		{"[1, 2] + [3]", ints(1, 2, 3)},
		{"[1, 2] + 3", ints(1, 2, 3)},
		{"[0] * 3", ints(0, 0, 0)},
	})

	got, err := eval(t, newTestScope(), `{"a": 1, "b": [2,
		3]}`)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type() != types.TypeMap {
		t.Fatalf("got %s, want map", got.Type())
	}
	if keys := got.AsMap().Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestBlockLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"{}", nil},
		{"{ x = 1 }", []string{"x = 1"}},
		{"{ x = 1; y = x + 1 }", []string{"x = 1", "y = x + 1"}},
		{"{\n  a = 1\n\n  b = [1, 2]\n}", []string{"a = 1", "b = [1, 2]"}},
		{"{ a = {b; c}; d }", []string{"a = {b; c}", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := eval(t, newTestScope(), tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got.Type() != types.TypeBlock {
				t.Fatalf("got %s, want block", got.Type())
			}
			stmts := got.AsBlock().Statements()
			if len(stmts) != len(tt.want) {
				t.Fatalf("got %q, want %q", stmts, tt.want)
			}
			for i := range stmts {
				if stmts[i] != tt.want[i] {
					t.Errorf("statement %d = %q, want %q", i, stmts[i], tt.want[i])
				}
			}
		})
	}
}

func TestFunctionCall(t *testing.T) {
	scope := newTestScope()
	scope.funcs["double"] = func(args []types.Value) (types.Value, error) {
		return types.NewInt(args[0].AsInt() * 2), nil
	}
	scope.funcs["math.max"] = func(args []types.Value) (types.Value, error) {
		if args[0].AsInt() > args[1].AsInt() {
			return args[0], nil
		}
		return args[1], nil
	}

	runEvalCases(t, scope, []evalCase{
		{"double(21)", types.NewInt(42)},
		{"double(1 + 2) + 1", types.NewInt(7)},
		{"math.max(3, 9)", types.NewInt(9)},
	})

	if _, err := eval(t, scope, "nope(1)"); err == nil {
		t.Error("expected error for unknown function")
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		input string
		tag   string
	}{
		{"1 / 0", types.TagZeroDivisionError},
		{"5 % 0", types.TagZeroDivisionError},
		{"[1, 2][5]", types.TagIndexError},
		{`[1]["a"]`, types.TagTypeError},
		{`{"a": 1}["b"]`, types.TagKeyError},
		{`{"a": 1}.b`, types.TagKeyError},
		{`-"s"`, types.TagTypeError},
		{"1 .. 1000000", types.TagValueError},
		{"1 << -1", types.TagValueError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := eval(t, newTestScope(), tt.input)
			var terr *types.Error
			if !errors.As(err, &terr) {
				t.Fatalf("expected *types.Error, got %v", err)
			}
			if !terr.HasTag(tt.tag) {
				t.Errorf("tags = %v, want %s", terr.Tags, tt.tag)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"1 +",
		"(1 + 2",
		"[1, 2",
		"'unterminated",
		"1 2",
		"{ x = 1",
		"a.1",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseExpression(testTokenizer, input)
			var terr *types.Error
			if !errors.As(err, &terr) || !terr.HasTag(types.TagSyntaxError) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
		})
	}
}

func TestInterpreterExec(t *testing.T) {
	scope := newTestScope()
	in := NewInterpreter(testTokenizer, testTable, scope)

	results, err := in.Exec("x = 1\ny = x + 2; z = y * 2\n\nz")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	want := []struct {
		line   int
		source string
		value  int64
	}{
		{1, "x = 1", 1},
		{2, "y = x + 2", 3},
		{2, "z = y * 2", 6},
		{4, "z", 6},
	}
	for i, w := range want {
		r := results[i]
		if r.Line != w.line || r.Source != w.source || !r.Value.Equal(types.NewInt(w.value)) {
			t.Errorf("result %d = {%d %q %v}, want {%d %q %d}", i, r.Line, r.Source, r.Value, w.line, w.source, w.value)
		}
	}
}

func TestCompoundAssignment(t *testing.T) {
	scope := newTestScope()
	in := NewInterpreter(testTokenizer, testTable, scope)

	if _, err := in.Exec("n = 5\nn += 3\nn *= 2\nn -= 1\nn %= 4\ns = 'ab'\ns *= 2\nd = 64\nd >>= 2\nu = 3\nu <<= 2"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if v := scope.vars["n"]; !v.Equal(types.NewInt(3)) {
		t.Errorf("n = %v, want 3", v)
	}
	if v := scope.vars["s"]; !v.Equal(types.NewString("abab")) {
		t.Errorf("s = %v, want abab", v)
	}
	if v := scope.vars["d"]; !v.Equal(types.NewInt(16)) {
		t.Errorf("d = %v, want 16", v)
	}
	if v := scope.vars["u"]; !v.Equal(types.NewInt(12)) {
		t.Errorf("u = %v, want 12", v)
	}
}

func TestAssignmentIntoObjectIsInPlace(t *testing.T) {
	scope := newTestScope()
	cell := types.NewObjectRef("o", types.NewInt(1))
	scope.vars["o"] = types.NewObject(cell)
	in := NewInterpreter(testTokenizer, testTable, scope)

	results, err := in.Exec("alias = o\no = 5\nalias + 1\n1 + alias")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if !cell.Get().Equal(types.NewInt(5)) {
		t.Errorf("object holds %v, want 5", cell.Get())
	}
	// int + object keeps the object wrapper, object + int unwraps it.
	if got := results[2].Value; got.Type() != types.TypeObject || !got.Unwrap().Equal(types.NewInt(6)) {
		t.Errorf("alias + 1 = %v (%s)", got, got.Type())
	}
	if got := results[3].Value; got.Type() != types.TypeInt || got.AsInt() != 6 {
		t.Errorf("1 + alias = %v (%s)", got, got.Type())
	}
}

func TestInterpreterRecoversAfterErrors(t *testing.T) {
	scope := newTestScope()
	in := NewInterpreter(testTokenizer, testTable, scope)

	results, err := in.Exec("a = 1\nb = (\nc = 'x' - 1\nd = 4")
	if err == nil {
		t.Fatal("expected an error")
	}
	var terr *types.Error
	if !errors.As(err, &terr) || !terr.HasTag(types.TagSyntaxError) {
		t.Errorf("first error = %v, want SyntaxError", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if results[1].Err == nil || results[1].Line != 2 || results[1].Source != "b = (" {
		t.Errorf("result 1 = %+v", results[1])
	}
	var mm *types.TypeMismatchError
	if !errors.As(results[2].Err, &mm) {
		t.Errorf("result 2 error = %v, want TypeMismatchError", results[2].Err)
	}
	if v := scope.vars["d"]; !v.Equal(types.NewInt(4)) {
		t.Errorf("d = %v, want 4", v)
	}
	if _, ok := scope.vars["b"]; ok {
		t.Error("b should not be bound")
	}
}

func TestInterpreterRunBlock(t *testing.T) {
	scope := newTestScope()
	in := NewInterpreter(testTokenizer, testTable, scope)

	if _, err := in.Exec("b = { x = 2; y = x * 21 }\nb += 'z = y + 1'"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	got, err := in.Run(scope.vars["b"].AsBlock())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !got.Equal(types.NewInt(43)) {
		t.Errorf("got %v, want 43", got)
	}
}
