package stdlib

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerExpressionHelpers registers built-in expression helper functions:
// default, keys, len, type, kind, str, int, float, bool, box, unbox, block.
func (r *Registry) registerExpressionHelpers() {
	r.Register("default", stdDefault)
	r.Register("keys", stdKeys)
	r.Register("len", stdLen)
	r.Register("type", stdType)
	r.Register("kind", stdKind)
	r.Register("str", stdString)
	r.Register("int", stdInt)
	r.Register("float", stdFloat)
	r.Register("bool", stdBool)
	r.Register("box", stdBox)
	r.Register("unbox", stdUnbox)
	r.Register("block", stdBlock)
}

func stdDefault(args []types.Value) (types.Value, error) {
	if err := requireArgs("default", args, 2, 2); err != nil {
		return types.Null, err
	}
	if args[0].IsNull() {
		return args[1], nil
	}
	return args[0], nil
}

func stdKeys(args []types.Value) (types.Value, error) {
	if err := requireArgs("keys", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	if v.Type() != types.TypeMap {
		return types.Null, types.NewTypeError("keys() requires a map argument")
	}
	keys := v.AsMap().Keys()
	result := make([]types.Value, len(keys))
	for i, k := range keys {
		result[i] = types.NewString(k)
	}
	return types.NewList(result), nil
}

func stdLen(args []types.Value) (types.Value, error) {
	if err := requireArgs("len", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeString:
		return types.NewInt(int64(utf8.RuneCountInString(v.AsString()))), nil
	case types.TypeList:
		return types.NewInt(int64(len(v.AsList()))), nil
	case types.TypeMap:
		return types.NewInt(int64(v.AsMap().Len())), nil
	case types.TypeBlock:
		return types.NewInt(int64(v.AsBlock().Len())), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("len() not supported for %s", v.Type()))
	}
}

func stdType(args []types.Value) (types.Value, error) {
	if err := requireArgs("type", args, 1, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].Type().String()), nil
}

// stdKind reports the dispatch kind, which groups several types.
func stdKind(args []types.Value) (types.Value, error) {
	if err := requireArgs("kind", args, 1, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(types.KindOf(args[0]).String()), nil
}

func stdInt(args []types.Value) (types.Value, error) {
	if err := requireArgs("int", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeInt:
		return v, nil
	case types.TypeFloat:
		return types.NewInt(int64(v.AsFloat())), nil
	case types.TypeString:
		i, err := strconv.ParseInt(v.AsString(), 10, 64)
		if err != nil {
			// Try parsing as float first
			f, ferr := strconv.ParseFloat(v.AsString(), 64)
			if ferr != nil {
				return types.Null, types.NewValueError(
					fmt.Sprintf("cannot convert %q to int", v.AsString()))
			}
			return types.NewInt(int64(f)), nil
		}
		return types.NewInt(i), nil
	case types.TypeBool:
		if v.AsBool() {
			return types.NewInt(1), nil
		}
		return types.NewInt(0), nil
	case types.TypeDuration:
		return types.NewInt(int64(v.AsDuration().Seconds())), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("cannot convert %s to int", v.Type()))
	}
}

func stdFloat(args []types.Value) (types.Value, error) {
	if err := requireArgs("float", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeFloat:
		return v, nil
	case types.TypeInt:
		return types.NewFloat(float64(v.AsInt())), nil
	case types.TypeString:
		f, err := strconv.ParseFloat(v.AsString(), 64)
		if err != nil {
			return types.Null, types.NewValueError(
				fmt.Sprintf("cannot convert %q to float", v.AsString()))
		}
		return types.NewFloat(f), nil
	case types.TypeBool:
		if v.AsBool() {
			return types.NewFloat(1.0), nil
		}
		return types.NewFloat(0.0), nil
	case types.TypeDuration:
		return types.NewFloat(v.AsDuration().Seconds()), nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("cannot convert %s to float", v.Type()))
	}
}

func stdString(args []types.Value) (types.Value, error) {
	if err := requireArgs("str", args, 1, 1); err != nil {
		return types.Null, err
	}
	return types.NewString(args[0].String()), nil
}

func stdBool(args []types.Value) (types.Value, error) {
	if err := requireArgs("bool", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeBool:
		return v, nil
	case types.TypeInt:
		return types.NewBool(v.AsInt() != 0), nil
	case types.TypeFloat:
		return types.NewBool(v.AsFloat() != 0 && !math.IsNaN(v.AsFloat())), nil
	case types.TypeString:
		return types.NewBool(v.AsString() != ""), nil
	case types.TypeNull:
		return types.NewBool(false), nil
	default:
		return types.NewBool(true), nil
	}
}

// stdBox wraps a value in a new object: box(value) or box(name, value).
func stdBox(args []types.Value) (types.Value, error) {
	if err := requireArgs("box", args, 1, 2); err != nil {
		return types.Null, err
	}
	name, v := "", args[0]
	if len(args) == 2 {
		if args[0].Type() != types.TypeString {
			return types.Null, types.NewTypeError("box() name must be a string")
		}
		name, v = args[0].AsString(), args[1]
	}
	return types.NewObject(types.NewObjectRef(name, v)), nil
}

func stdUnbox(args []types.Value) (types.Value, error) {
	if err := requireArgs("unbox", args, 1, 1); err != nil {
		return types.Null, err
	}
	return args[0].Unwrap(), nil
}

// stdBlock builds a block from statement strings or a list of them.
func stdBlock(args []types.Value) (types.Value, error) {
	if len(args) == 1 && args[0].Type() == types.TypeList {
		args = args[0].AsList()
	}
	stmts := make([]string, len(args))
	for i, a := range args {
		a = a.Unwrap()
		if a.Type() != types.TypeString {
			return types.Null, types.NewTypeError(
				fmt.Sprintf("block() statement %d must be a string, got %s", i, a.Type()))
		}
		stmts[i] = a.AsString()
	}
	return types.NewBlock(types.NewBlockOf(stmts...)), nil
}
