package stdlib

import (
	"math"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerMath registers math.* functions.
func (r *Registry) registerMath() {
	r.Register("math.abs", mathAbs)
	r.Register("math.floor", mathFloor)
	r.Register("math.ceil", mathCeil)
	r.Register("math.max", mathMax)
	r.Register("math.min", mathMin)
}

func mathAbs(args []types.Value) (types.Value, error) {
	if err := requireArgs("math.abs", args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeInt:
		i := v.AsInt()
		if i < 0 {
			return types.NewInt(-i), nil
		}
		return v, nil
	case types.TypeFloat:
		return types.NewFloat(math.Abs(v.AsFloat())), nil
	case types.TypeDuration:
		if d := v.AsDuration(); d < 0 {
			return types.NewDuration(-d), nil
		}
		return v, nil
	default:
		return types.Null, types.NewTypeError("math.abs requires a number argument")
	}
}

func mathFloor(args []types.Value) (types.Value, error) {
	return rounding("math.floor", math.Floor, args)
}

func mathCeil(args []types.Value) (types.Value, error) {
	return rounding("math.ceil", math.Ceil, args)
}

func rounding(name string, fn func(float64) float64, args []types.Value) (types.Value, error) {
	if err := requireArgs(name, args, 1, 1); err != nil {
		return types.Null, err
	}
	v := args[0].Unwrap()
	switch v.Type() {
	case types.TypeInt:
		return v, nil
	case types.TypeFloat:
		return types.NewInt(int64(fn(v.AsFloat()))), nil
	default:
		return types.Null, types.NewTypeError(name + " requires a number argument")
	}
}

func mathMax(args []types.Value) (types.Value, error) {
	if err := requireArgs("math.max", args, 2, 2); err != nil {
		return types.Null, err
	}
	a, aOk := args[0].Unwrap().AsNumber()
	b, bOk := args[1].Unwrap().AsNumber()
	if !aOk || !bOk {
		return types.Null, types.NewTypeError("math.max requires number arguments")
	}
	if a >= b {
		return args[0], nil
	}
	return args[1], nil
}

func mathMin(args []types.Value) (types.Value, error) {
	if err := requireArgs("math.min", args, 2, 2); err != nil {
		return types.Null, err
	}
	a, aOk := args[0].Unwrap().AsNumber()
	b, bOk := args[1].Unwrap().AsNumber()
	if !aOk || !bOk {
		return types.Null, types.NewTypeError("math.min requires number arguments")
	}
	if a <= b {
		return args[0], nil
	}
	return args[1], nil
}
