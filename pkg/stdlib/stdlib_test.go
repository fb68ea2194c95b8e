package stdlib

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/expr"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/runtime"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

func call(t *testing.T, name string, args ...types.Value) types.Value {
	t.Helper()
	v, err := NewRegistry().CallFunction(name, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func callErr(t *testing.T, name string, args ...types.Value) error {
	t.Helper()
	_, err := NewRegistry().CallFunction(name, args)
	if err == nil {
		t.Fatalf("%s: expected an error", name)
	}
	return err
}

func assertValue(t *testing.T, got, want types.Value) {
	t.Helper()
	if got.Type() != want.Type() || !got.Equal(want) {
		t.Errorf("got %v (%s), want %v (%s)", got, got.Type(), want, want.Type())
	}
}

func str(s string) types.Value { return types.NewString(s) }
func num(i int64) types.Value  { return types.NewInt(i) }

func boxed(v types.Value) types.Value {
	return types.NewObject(types.NewObjectRef("o", v))
}

// TestStdlib_UnknownFunction verifies the registry error path.
func TestStdlib_UnknownFunction(t *testing.T) {
	err := callErr(t, "nope")
	if !strings.Contains(err.Error(), "unknown function 'nope'") {
		t.Errorf("error = %v", err)
	}
}

// TestStdlib_Arity verifies argument count checks.
func TestStdlib_Arity(t *testing.T) {
	if err := callErr(t, "len"); !strings.Contains(err.Error(), "len expects 1 argument(s), got 0") {
		t.Errorf("error = %v", err)
	}
	if err := callErr(t, "box"); !strings.Contains(err.Error(), "box expects 1-2 arguments, got 0") {
		t.Errorf("error = %v", err)
	}
}

// TestStdlib_Names verifies every family is registered.
func TestStdlib_Names(t *testing.T) {
	names := NewRegistry().Names()
	for _, want := range []string{"box", "json.decode", "list.concat", "map.get", "math.max", "text.split", "time.clock", "uuid.generate"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("%s is not registered", want)
		}
	}
}

func TestStdlib_Helpers(t *testing.T) {
	m := types.NewOrderedMap()
	m.Set("b", num(1))
	m.Set("a", num(2))

	tests := []struct {
		name string
		fn   string
		args []types.Value
		want types.Value
	}{
		{"default null", "default", []types.Value{types.Null, num(3)}, num(3)},
		{"default set", "default", []types.Value{num(1), num(3)}, num(1)},
		{"keys", "keys", []types.Value{types.NewMap(m)}, types.NewList([]types.Value{str("b"), str("a")})},
		{"len str", "len", []types.Value{str("héllo")}, num(5)},
		{"len list", "len", []types.Value{types.NewList([]types.Value{num(1), num(2)})}, num(2)},
		{"len block", "len", []types.Value{types.NewBlock(types.NewBlockOf("a", "b", "c"))}, num(3)},
		{"len boxed", "len", []types.Value{boxed(str("abc"))}, num(3)},
		{"type", "type", []types.Value{types.NewMap(m)}, str("map")},
		{"kind map", "kind", []types.Value{types.NewMap(m)}, str("object")},
		{"kind time", "kind", []types.Value{types.NewTime(time.Time{})}, str("duration")},
		{"str", "str", []types.Value{types.NewFloat(2.5)}, str("2.5")},
		{"int str", "int", []types.Value{str("42")}, num(42)},
		{"int float str", "int", []types.Value{str("4.7")}, num(4)},
		{"int bool", "int", []types.Value{types.NewBool(true)}, num(1)},
		{"int duration", "int", []types.Value{types.NewDuration(90 * time.Second)}, num(90)},
		{"float", "float", []types.Value{num(2)}, types.NewFloat(2)},
		{"float boxed", "float", []types.Value{boxed(str("1.5"))}, types.NewFloat(1.5)},
		{"bool zero", "bool", []types.Value{num(0)}, types.NewBool(false)},
		{"bool null", "bool", []types.Value{types.Null}, types.NewBool(false)},
		{"unbox", "unbox", []types.Value{boxed(num(7))}, num(7)},
		{"unbox plain", "unbox", []types.Value{num(7)}, num(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValue(t, call(t, tt.fn, tt.args...), tt.want)
		})
	}
}

func TestStdlib_Box(t *testing.T) {
	v := call(t, "box", str("counter"), num(1))
	if v.Type() != types.TypeObject {
		t.Fatalf("box returned %s", v.Type())
	}
	if v.AsObject().Name() != "counter" || v.AsObject().Get().AsInt() != 1 {
		t.Errorf("box = %q %v", v.AsObject().Name(), v.AsObject().Get())
	}

	// Boxing an object wraps its value, never the object itself.
	again := call(t, "box", v)
	if got := again.AsObject().Get(); got.Type() != types.TypeInt {
		t.Errorf("nested box holds %s", got.Type())
	}

	callErr(t, "box", num(1), num(2))
}

func TestStdlib_Block(t *testing.T) {
	v := call(t, "block", str("x = 1"), str("y = 2"))
	if got := v.AsBlock().Statements(); len(got) != 2 || got[1] != "y = 2" {
		t.Errorf("block = %q", got)
	}
	v = call(t, "block", types.NewList([]types.Value{str("z")}))
	if got := v.AsBlock().Statements(); len(got) != 1 || got[0] != "z" {
		t.Errorf("block from list = %q", got)
	}
	callErr(t, "block", num(1))
}

func TestStdlib_Conversions_Errors(t *testing.T) {
	for _, tc := range []struct {
		fn  string
		arg types.Value
		tag string
	}{
		{"int", str("x"), types.TagValueError},
		{"float", str("x"), types.TagValueError},
		{"int", types.NewList(nil), types.TagTypeError},
		{"keys", num(1), types.TagTypeError},
		{"len", num(1), types.TagTypeError},
	} {
		err := callErr(t, tc.fn, tc.arg)
		terr, ok := err.(*types.Error)
		if !ok || !terr.HasTag(tc.tag) {
			t.Errorf("%s(%v) error = %v, want %s", tc.fn, tc.arg, err, tc.tag)
		}
	}
}

func TestStdlib_Math(t *testing.T) {
	assertValue(t, call(t, "math.abs", num(-3)), num(3))
	assertValue(t, call(t, "math.abs", types.NewFloat(-1.5)), types.NewFloat(1.5))
	assertValue(t, call(t, "math.abs", types.NewDuration(-time.Hour)), types.NewDuration(time.Hour))
	assertValue(t, call(t, "math.floor", types.NewFloat(2.7)), num(2))
	assertValue(t, call(t, "math.ceil", types.NewFloat(2.1)), num(3))
	assertValue(t, call(t, "math.max", num(2), types.NewFloat(2.5)), types.NewFloat(2.5))
	assertValue(t, call(t, "math.min", num(2), types.NewFloat(2.5)), num(2))
	callErr(t, "math.max", num(1), str("a"))
}

func TestStdlib_List(t *testing.T) {
	l := types.NewList([]types.Value{num(1)})
	assertValue(t, call(t, "list.concat", l, types.NewList([]types.Value{num(2)})),
		types.NewList([]types.Value{num(1), num(2)}))
	assertValue(t, call(t, "list.concat", l, num(5)), types.NewList([]types.Value{num(1), num(5)}))
	assertValue(t, call(t, "list.prepend", l, num(0)), types.NewList([]types.Value{num(0), num(1)}))
	callErr(t, "list.concat", num(1), num(2))
}

func TestStdlib_Map(t *testing.T) {
	a := types.NewOrderedMap()
	a.Set("x", num(1))
	a.Set("y", num(2))
	b := types.NewOrderedMap()
	b.Set("y", num(3))

	assertValue(t, call(t, "map.get", types.NewMap(a), str("x")), num(1))
	assertValue(t, call(t, "map.get", types.NewMap(a), str("z")), types.Null)
	assertValue(t, call(t, "map.get", types.NewMap(a), str("z"), num(9)), num(9))

	del := call(t, "map.delete", types.NewMap(a), str("x"))
	if keys := del.AsMap().Keys(); len(keys) != 1 || keys[0] != "y" {
		t.Errorf("map.delete keys = %v", keys)
	}
	if a.Len() != 2 {
		t.Error("map.delete modified its argument")
	}

	merged := call(t, "map.merge", types.NewMap(a), types.NewMap(b))
	if v, _ := merged.AsMap().Get("y"); v.AsInt() != 3 {
		t.Errorf("merged y = %v, want 3", v)
	}
	callErr(t, "map.merge", types.NewMap(a), num(1))
}

func TestStdlib_Text(t *testing.T) {
	assertValue(t, call(t, "text.to_lower", str("HELLO World")), str("hello world"))
	assertValue(t, call(t, "text.to_upper", str("Hello World")), str("HELLO WORLD"))
	assertValue(t, call(t, "text.title", str("hello world")), str("Hello World"))
	assertValue(t, call(t, "text.split", str("a,b,c"), str(",")),
		types.NewList([]types.Value{str("a"), str("b"), str("c")}))
	assertValue(t, call(t, "text.replace_all", str("a-b-c"), str("-"), str("+")), str("a+b+c"))
	assertValue(t, call(t, "text.substring", str("héllo"), num(1), num(3)), str("él"))
	assertValue(t, call(t, "text.substring", str("abc"), num(-5), num(10)), str("abc"))
	assertValue(t, call(t, "text.match_regex", str("abc123"), str(`\d+$`)), types.NewBool(true))
	callErr(t, "text.match_regex", str("a"), str("("))
	callErr(t, "text.split", num(1), str(","))
}

func TestStdlib_JSON(t *testing.T) {
	v := call(t, "json.decode", str(`{"a": [1, 2.5, "x"], "b": null}`))
	if v.Type() != types.TypeMap {
		t.Fatalf("json.decode returned %s", v.Type())
	}
	assertValue(t, call(t, "json.encode", v), str(`{"a":[1,2.5,"x"],"b":null}`))
	callErr(t, "json.decode", str("{"))
}

func TestStdlib_UUID(t *testing.T) {
	v := call(t, "uuid.generate")
	id, err := uuid.Parse(v.AsString())
	if err != nil {
		t.Fatalf("uuid.generate returned %q: %v", v.AsString(), err)
	}
	if id.Version() != 4 {
		t.Errorf("version = %d, want 4", id.Version())
	}
}

func TestStdlib_Time(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return fixed }
	defer func() { now = old }()

	assertValue(t, call(t, "time.now"), types.NewTime(fixed))
	clock := call(t, "time.clock", num(12), num(30))
	assertValue(t, call(t, "time.format", clock, str("15:04")), str("12:30"))
	assertValue(t, call(t, "time.hours", types.NewDuration(90*time.Minute)), types.NewFloat(1.5))
	callErr(t, "time.clock", num(24), num(0))
}

// TestStdlib_FromExpressions runs builtins through the interpreter.
func TestStdlib_FromExpressions(t *testing.T) {
	scope := runtime.NewScopeAdapter(runtime.NewScope(), NewRegistry())
	in := expr.NewInterpreter(lexer.DefaultTokenizer(), dispatch.MustNewTable(), scope)

	src := strings.Join([]string{
		`o = box("o", 1)`,
		`o = 41`,
		`n = unbox(o) + 1`,
		`k = kind(o)`,
		`t = time.clock(12, 30) + 30m`,
		`s = text.to_upper("ab") + len([1, 2, 3])`,
	}, "\n")
	if _, err := in.Exec(src); err != nil {
		t.Fatalf("exec: %v", err)
	}

	want := map[string]types.Value{
		"n": num(42),
		"k": str("object"),
		"s": str("AB3"),
	}
	for name, w := range want {
		got, err := scope.Get(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		assertValue(t, got, w)
	}

	tv, _ := scope.Get("t")
	if tv.Type() != types.TypeTime || tv.AsTime().Hour() != 13 || tv.AsTime().Minute() != 0 {
		t.Errorf("t = %v", tv)
	}
}
