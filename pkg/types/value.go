// Package types defines the runtime values of the tscript language and the
// value kinds used to index operator dispatch tables.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ValueType is the concrete runtime representation of a value.
type ValueType int

const (
	TypeNull     ValueType = iota // absent value
	TypeBool                      // bool
	TypeInt                       // int64
	TypeFloat                     // float64
	TypeString                    // string
	TypeDuration                  // time.Duration
	TypeTime                      // time.Time (time of day or full date/time)
	TypeList                      // []Value
	TypeMap                       // ordered map of string -> Value
	TypeObject                    // *Object reference cell
	TypeBlock                     // *Block of statements

	numValueTypes
)

// String returns the type name as reported by the type() builtin.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	case TypeDuration:
		return "duration"
	case TypeTime:
		return "time"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeObject:
		return "object"
	case TypeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Value is a tscript runtime value. It is a tagged union; the zero Value is Null.
type Value struct {
	typ       ValueType
	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string
	durVal    time.Duration
	timeVal   time.Time
	listVal   []Value
	mapVal    *OrderedMap
	objVal    *Object
	blockVal  *Block
}

// OrderedMap maintains insertion order for map keys.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

// NewOrderedMap creates a new empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0),
		values: make(map[string]Value),
	}
}

// Get retrieves a value by key. Returns the value and whether it exists.
func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set adds or updates a key-value pair, preserving insertion order.
func (m *OrderedMap) Set(key string, val Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	result := make([]string, len(m.keys))
	copy(result, m.keys)
	return result
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// Object is a named, mutable reference cell. Binding a variable to an object
// and then assigning into that variable updates the cell in place, so every
// holder of the reference observes the change.
type Object struct {
	name string
	val  Value
}

// NewObjectRef creates a reference cell holding v. Objects never hold other
// objects; an object argument contributes its held value.
func NewObjectRef(name string, v Value) *Object {
	return &Object{name: name, val: v.Unwrap()}
}

// Name returns the label the object was created with.
func (o *Object) Name() string { return o.name }

// Get returns the held value.
func (o *Object) Get() Value { return o.val }

// Set replaces the held value. Like NewObjectRef it unwraps v.
func (o *Object) Set(v Value) { o.val = v.Unwrap() }

// Block is an ordered list of statement sources. Blocks are reference values;
// assignment into a block-bound variable splices the statements in place.
type Block struct {
	stmts []string
}

// NewBlockOf creates a block from statement sources.
func NewBlockOf(stmts ...string) *Block {
	b := &Block{}
	b.Replace(stmts)
	return b
}

// Statements returns a copy of the block's statements.
func (b *Block) Statements() []string {
	out := make([]string, len(b.stmts))
	copy(out, b.stmts)
	return out
}

// Len returns the number of statements.
func (b *Block) Len() int { return len(b.stmts) }

// Replace swaps the block's statements for stmts.
func (b *Block) Replace(stmts []string) {
	b.stmts = make([]string, len(stmts))
	copy(b.stmts, stmts)
}

// Null is the absent value.
var Null = Value{typ: TypeNull}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewInt creates an integer value (64-bit).
func NewInt(v int64) Value {
	return Value{typ: TypeInt, intVal: v}
}

// NewFloat creates a floating point value.
func NewFloat(v float64) Value {
	return Value{typ: TypeFloat, floatVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

// NewDuration creates a duration value.
func NewDuration(d time.Duration) Value {
	return Value{typ: TypeDuration, durVal: d}
}

// NewTime creates a date/time value.
func NewTime(t time.Time) Value {
	return Value{typ: TypeTime, timeVal: t}
}

// NewList creates a list value from a slice of values.
func NewList(v []Value) Value {
	return Value{typ: TypeList, listVal: v}
}

// NewMap creates a map value from an OrderedMap.
func NewMap(v *OrderedMap) Value {
	return Value{typ: TypeMap, mapVal: v}
}

// NewObject wraps an object reference.
func NewObject(o *Object) Value {
	return Value{typ: TypeObject, objVal: o}
}

// NewBlock wraps a block reference.
func NewBlock(b *Block) Value {
	return Value{typ: TypeBlock, blockVal: b}
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull returns true if the value is absent.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// AsBool returns the boolean value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsInt returns the integer value. Panics if not an int.
func (v Value) AsInt() int64 {
	if v.typ != TypeInt {
		panic(fmt.Sprintf("AsInt called on %s value", v.typ))
	}
	return v.intVal
}

// AsFloat returns the float value. Panics if not a float.
func (v Value) AsFloat() float64 {
	if v.typ != TypeFloat {
		panic(fmt.Sprintf("AsFloat called on %s value", v.typ))
	}
	return v.floatVal
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// AsDuration returns the duration value. Panics if not a duration.
func (v Value) AsDuration() time.Duration {
	if v.typ != TypeDuration {
		panic(fmt.Sprintf("AsDuration called on %s value", v.typ))
	}
	return v.durVal
}

// AsTime returns the time value. Panics if not a time.
func (v Value) AsTime() time.Time {
	if v.typ != TypeTime {
		panic(fmt.Sprintf("AsTime called on %s value", v.typ))
	}
	return v.timeVal
}

// AsList returns the list value. Panics if not a list.
func (v Value) AsList() []Value {
	if v.typ != TypeList {
		panic(fmt.Sprintf("AsList called on %s value", v.typ))
	}
	return v.listVal
}

// AsMap returns the map value. Panics if not a map.
func (v Value) AsMap() *OrderedMap {
	if v.typ != TypeMap {
		panic(fmt.Sprintf("AsMap called on %s value", v.typ))
	}
	return v.mapVal
}

// AsObject returns the object reference. Panics if not an object.
func (v Value) AsObject() *Object {
	if v.typ != TypeObject {
		panic(fmt.Sprintf("AsObject called on %s value", v.typ))
	}
	return v.objVal
}

// AsBlock returns the block reference. Panics if not a block.
func (v Value) AsBlock() *Block {
	if v.typ != TypeBlock {
		panic(fmt.Sprintf("AsBlock called on %s value", v.typ))
	}
	return v.blockVal
}

// AsNumber returns the numeric value as float64. Works for int and float types.
func (v Value) AsNumber() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.intVal), true
	case TypeFloat:
		return v.floatVal, true
	default:
		return 0, false
	}
}

// Unwrap returns the value held by an object reference, or v itself for
// every other variant.
func (v Value) Unwrap() Value {
	if v.typ == TypeObject {
		return v.objVal.val
	}
	return v
}

// Truthy reports the truthiness of a value.
// Only false and null are falsy; 0, empty string and empty containers are truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeBool:
		return v.boolVal
	case TypeObject:
		return v.objVal.val.Truthy()
	default:
		return true
	}
}

// Equal tests deep equality between two values. Object references compare
// by the value they hold.
func (v Value) Equal(other Value) bool {
	if v.typ == TypeObject || other.typ == TypeObject {
		return v.Unwrap().Equal(other.Unwrap())
	}
	if v.typ != other.typ {
		// int and float can be compared
		if (v.typ == TypeInt || v.typ == TypeFloat) && (other.typ == TypeInt || other.typ == TypeFloat) {
			a, _ := v.AsNumber()
			b, _ := other.AsNumber()
			return a == b
		}
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeBool:
		return v.boolVal == other.boolVal
	case TypeInt:
		return v.intVal == other.intVal
	case TypeFloat:
		return v.floatVal == other.floatVal
	case TypeString:
		return v.stringVal == other.stringVal
	case TypeDuration:
		return v.durVal == other.durVal
	case TypeTime:
		return v.timeVal.Equal(other.timeVal)
	case TypeList:
		if len(v.listVal) != len(other.listVal) {
			return false
		}
		for i := range v.listVal {
			if !v.listVal[i].Equal(other.listVal[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if v.mapVal.Len() != other.mapVal.Len() {
			return false
		}
		for _, k := range v.mapVal.Keys() {
			ov, ok := other.mapVal.Get(k)
			if !ok {
				return false
			}
			mv, _ := v.mapVal.Get(k)
			if !mv.Equal(ov) {
				return false
			}
		}
		return true
	case TypeBlock:
		if v.blockVal == other.blockVal {
			return true
		}
		a, b := v.blockVal.stmts, other.blockVal.stmts
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a human-readable representation of the value. It is also
// the stringification used by concatenation.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "nil"
	case TypeBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case TypeInt:
		return fmt.Sprintf("%d", v.intVal)
	case TypeFloat:
		if v.floatVal == math.Trunc(v.floatVal) && !math.IsInf(v.floatVal, 0) && math.Abs(v.floatVal) < 1e21 {
			return fmt.Sprintf("%.1f", v.floatVal)
		}
		return fmt.Sprintf("%g", v.floatVal)
	case TypeString:
		return v.stringVal
	case TypeDuration:
		return v.durVal.String()
	case TypeTime:
		if v.timeVal.Year() == 0 && v.timeVal.YearDay() == 1 {
			return v.timeVal.Format("15:04:05")
		}
		return v.timeVal.Format(time.RFC3339)
	case TypeList:
		parts := make([]string, len(v.listVal))
		for i, item := range v.listVal {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		parts := make([]string, 0, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeObject:
		return v.objVal.val.String()
	case TypeBlock:
		if len(v.blockVal.stmts) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(v.blockVal.stmts, "; ") + " }"
	}
	return "<unknown>"
}

// MarshalJSON converts a Value to JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToGoValue())
}

// ValueFromJSON converts a Go interface{} (from json.Unmarshal) into a Value.
func ValueFromJSON(v interface{}) Value {
	if v == nil {
		return Null
	}
	switch val := v.(type) {
	case bool:
		return NewBool(val)
	case float64:
		// JSON numbers are float64; convert to int if no fractional part
		if val == math.Trunc(val) && !math.IsInf(val, 0) && val >= math.MinInt64 && val <= math.MaxInt64 {
			return NewInt(int64(val))
		}
		return NewFloat(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return NewInt(i)
		}
		if f, err := val.Float64(); err == nil {
			return NewFloat(f)
		}
		return NewString(val.String())
	case string:
		return NewString(val)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = ValueFromJSON(item)
		}
		return NewList(items)
	case map[string]interface{}:
		m := NewOrderedMap()
		// JSON maps don't have guaranteed order, sort keys for determinism
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, ValueFromJSON(val[k]))
		}
		return NewMap(m)
	default:
		return NewString(fmt.Sprintf("%v", val))
	}
}

// ToGoValue converts a Value to a plain Go interface{} suitable for JSON
// marshaling. Durations and times become strings, objects their held value,
// blocks their statement list.
func (v Value) ToGoValue() interface{} {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeBool:
		return v.boolVal
	case TypeInt:
		return v.intVal
	case TypeFloat:
		return v.floatVal
	case TypeString:
		return v.stringVal
	case TypeDuration, TypeTime:
		return v.String()
	case TypeList:
		result := make([]interface{}, len(v.listVal))
		for i, item := range v.listVal {
			result[i] = item.ToGoValue()
		}
		return result
	case TypeMap:
		result := make(map[string]interface{}, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			result[k] = val.ToGoValue()
		}
		return result
	case TypeObject:
		return v.objVal.val.ToGoValue()
	case TypeBlock:
		stmts := make([]interface{}, len(v.blockVal.stmts))
		for i, s := range v.blockVal.stmts {
			stmts[i] = s
		}
		return stmts
	}
	return nil
}
