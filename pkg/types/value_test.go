package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", NewInt(1))

	tests := []struct {
		name string
		v    Value
		want Kind
	}{
		{"null", Null, KindAny},
		{"bool", NewBool(true), KindBool},
		{"int", NewInt(1), KindInt},
		{"float", NewFloat(1.5), KindFloat},
		{"string", NewString("x"), KindStr},
		{"duration", NewDuration(time.Hour), KindDuration},
		{"time", NewTime(time.Date(0, 1, 1, 12, 0, 0, 0, time.UTC)), KindDuration},
		{"list", NewList([]Value{NewInt(1)}), KindAny},
		{"map", NewMap(m), KindObject},
		{"object", NewObject(NewObjectRef("o", NewInt(1))), KindObject},
		{"block", NewBlock(NewBlockOf("x = 1")), KindBlock},
		{"out of range", Value{typ: numValueTypes + 3}, KindObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.v); got != tt.want {
				t.Errorf("KindOf(%s) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("widget"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if len(Kinds()) != NumKinds {
		t.Errorf("Kinds() has %d entries, want %d", len(Kinds()), NumKinds)
	}
}

func TestObjectIsSharedReference(t *testing.T) {
	ref := NewObjectRef("counter", NewInt(1))
	a := NewObject(ref)
	b := a

	b.AsObject().Set(NewInt(5))
	if got := a.Unwrap(); !got.Equal(NewInt(5)) {
		t.Errorf("holder a sees %s, want 5", got)
	}
	if a.String() != "5" {
		t.Errorf("String() = %q, want %q", a.String(), "5")
	}
	if !a.Equal(NewInt(5)) || !NewInt(5).Equal(a) {
		t.Error("object should compare equal to the value it holds")
	}
	if ref.Name() != "counter" {
		t.Errorf("Name() = %q", ref.Name())
	}
}

func TestBlockReplaceCopies(t *testing.T) {
	stmts := []string{"a = 1", "b = 2"}
	blk := NewBlockOf(stmts...)
	stmts[0] = "changed"
	if blk.Statements()[0] != "a = 1" {
		t.Error("block aliases its input slice")
	}

	v := NewBlock(blk)
	blk.Replace([]string{"c = 3"})
	if v.String() != "{ c = 3 }" {
		t.Errorf("String() = %q", v.String())
	}
	if NewBlock(NewBlockOf()).String() != "{}" {
		t.Error("empty block should print as {}")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int float", NewInt(2), NewFloat(2), true},
		{"int int", NewInt(2), NewInt(3), false},
		{"string int", NewString("2"), NewInt(2), false},
		{"null null", Null, Null, true},
		{"durations", NewDuration(time.Minute), NewDuration(60 * time.Second), true},
		{"lists", NewList([]Value{NewInt(1), NewString("a")}), NewList([]Value{NewFloat(1), NewString("a")}), true},
		{"blocks", NewBlock(NewBlockOf("x")), NewBlock(NewBlockOf("x")), true},
		{"blocks differ", NewBlock(NewBlockOf("x")), NewBlock(NewBlockOf("y")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null, "nil"},
		{NewFloat(3), "3.0"},
		{NewFloat(0.25), "0.25"},
		{NewDuration(90 * time.Minute), "1h30m0s"},
		{NewTime(time.Date(0, 1, 1, 9, 5, 0, 0, time.UTC)), "09:05:00"},
		{NewList([]Value{NewInt(1), NewString("a")}), "[1, a]"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	if Null.Truthy() || NewBool(false).Truthy() {
		t.Error("null and false must be falsy")
	}
	if !NewInt(0).Truthy() || !NewString("").Truthy() {
		t.Error("zero and empty string are truthy")
	}
	if NewObject(NewObjectRef("o", NewBool(false))).Truthy() {
		t.Error("object truthiness follows its value")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var raw interface{}
	if err := json.Unmarshal([]byte(`{"b":[1,2.5,"x"],"a":null}`), &raw); err != nil {
		t.Fatal(err)
	}
	v := ValueFromJSON(raw)
	if v.AsMap().Keys()[0] != "a" {
		t.Errorf("keys not sorted: %v", v.AsMap().Keys())
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":null,"b":[1,2.5,"x"]}` {
		t.Errorf("Marshal = %s", out)
	}

	obj, _ := json.Marshal(NewObject(NewObjectRef("o", NewDuration(time.Second))))
	if string(obj) != `"1s"` {
		t.Errorf("object Marshal = %s", obj)
	}
}

func TestTypeMismatchError(t *testing.T) {
	var err error = NewTypeMismatch("SUB", NewString("a"), NewInt(1))
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatal("errors.As failed")
	}
	if tm.Left != TypeString || tm.Right != TypeInt {
		t.Errorf("got %s/%s", tm.Left, tm.Right)
	}
	if err.Error() != "unsupported operand types for SUB: 'str' and 'int'" {
		t.Errorf("Error() = %q", err.Error())
	}
	if tm.Tags()[0] != TagTypeError {
		t.Errorf("Tags() = %v", tm.Tags())
	}
}

func TestErrorToValue(t *testing.T) {
	e := NewZeroDivisionError()
	if !e.HasTag(TagZeroDivisionError) || e.HasTag(TagKeyError) {
		t.Errorf("tags = %v", e.Tags)
	}
	m := e.ToValue().AsMap()
	msg, _ := m.Get("message")
	if msg.AsString() != "division by zero" {
		t.Errorf("message = %s", msg)
	}
	se := NewSyntaxError(3, 4, "unexpected token")
	if se.Message != "3:4: unexpected token" {
		t.Errorf("syntax message = %q", se.Message)
	}
}
