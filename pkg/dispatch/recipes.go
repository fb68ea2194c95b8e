package dispatch

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// MaxRangeLength bounds the list built by the range operator and by list
// repetition.
const MaxRangeLength = 100000

// maxRepeatBytes bounds the string built by repetition.
const maxRepeatBytes = 1 << 24

// Recipe names the operation a matrix cell performs.
type Recipe string

const (
	RecipeInt        Recipe = "int"         // native int64 operation
	RecipeFloat      Recipe = "float"       // numeric operation widened to float64
	RecipeStr        Recipe = "str"         // string with string
	RecipeCat        Recipe = "cat"         // stringify both sides and concatenate
	RecipeRepeat     Recipe = "repeat"      // string times int
	RecipeDur        Recipe = "dur"         // duration and time arithmetic
	RecipeScale      Recipe = "scale"       // duration scaled by a number
	RecipeList       Recipe = "list"        // list concatenation, append and repetition
	RecipeBlock      Recipe = "block"       // block concatenation
	RecipeEq         Recipe = "eq"          // structural equality
	RecipeBoxLeft    Recipe = "box_left"    // operate on the left object's value, re-box the result
	RecipeUnboxLeft  Recipe = "unbox_left"  // unwrap the left object and re-dispatch
	RecipeUnboxRight Recipe = "unbox_right" // unwrap the right object and re-dispatch
	RecipeInvalid    Recipe = "x"           // type mismatch
)

// Handler computes left op right. Handlers receive the table so that
// unboxing recipes can re-dispatch on the unwrapped operands.
type Handler func(t *Table, op Op, left, right types.Value) (types.Value, error)

type recipeDef struct {
	ops opSet
	fn  Handler
}

var recipes = map[Recipe]recipeDef{
	RecipeInt:        {arithOps | compareOps | intOnlyOps, intOp},
	RecipeFloat:      {arithOps | compareOps, floatOp},
	RecipeStr:        {setOf(OpAdd) | compareOps, strOp},
	RecipeCat:        {setOf(OpAdd), catOp},
	RecipeRepeat:     {setOf(OpMul), repeatOp},
	RecipeDur:        {setOf(OpAdd, OpSub, OpDiv, OpMod) | compareOps, durOp},
	RecipeScale:      {setOf(OpMul, OpDiv), scaleOp},
	RecipeList:       {setOf(OpAdd, OpMul), listOp},
	RecipeBlock:      {setOf(OpAdd), blockOp},
	RecipeEq:         {equalOps, eqOp},
	RecipeBoxLeft:    {allOps, boxLeft},
	RecipeUnboxLeft:  {allOps, unboxLeft},
	RecipeUnboxRight: {allOps, unboxRight},
	RecipeInvalid:    {allOps, mismatch},
}

// RecipeNames returns every known recipe.
func RecipeNames() []Recipe {
	return []Recipe{
		RecipeInt, RecipeFloat, RecipeStr, RecipeCat, RecipeRepeat, RecipeDur,
		RecipeScale, RecipeList, RecipeBlock, RecipeEq, RecipeBoxLeft,
		RecipeUnboxLeft, RecipeUnboxRight, RecipeInvalid,
	}
}

func mismatch(_ *Table, op Op, left, right types.Value) (types.Value, error) {
	return types.Null, types.NewTypeMismatch(op.Symbol(), left, right)
}

func compareResult(op Op, c int) types.Value {
	switch op {
	case OpLt:
		return types.NewBool(c < 0)
	case OpLte:
		return types.NewBool(c <= 0)
	case OpGt:
		return types.NewBool(c > 0)
	default:
		return types.NewBool(c >= 0)
	}
}

func cmp3[T int64 | float64 | string | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func intOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if left.Type() != types.TypeInt || right.Type() != types.TypeInt {
		return mismatch(t, op, left, right)
	}
	a, b := left.AsInt(), right.AsInt()
	switch op {
	case OpAdd:
		return types.NewInt(a + b), nil
	case OpSub:
		return types.NewInt(a - b), nil
	case OpMul:
		return types.NewInt(a * b), nil
	case OpDiv:
		if b == 0 {
			return types.Null, types.NewZeroDivisionError()
		}
		return types.NewFloat(float64(a) / float64(b)), nil
	case OpMod:
		if b == 0 {
			return types.Null, types.NewZeroDivisionError()
		}
		return types.NewInt(a % b), nil
	case OpPow:
		if b < 0 {
			return types.NewFloat(math.Pow(float64(a), float64(b))), nil
		}
		return types.NewInt(ipow(a, b)), nil
	case OpShl, OpShr:
		if b < 0 {
			return types.Null, types.NewValueError("negative shift count")
		}
		if op == OpShl {
			return types.NewInt(a << uint64(b)), nil
		}
		return types.NewInt(a >> uint64(b)), nil
	case OpRange:
		return intRange(a, b)
	default:
		return compareResult(op, cmp3(a, b)), nil
	}
}

func ipow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func intRange(from, to int64) (types.Value, error) {
	if to < from {
		return types.NewList([]types.Value{}), nil
	}
	if uint64(to)-uint64(from) >= MaxRangeLength {
		return types.Null, types.NewValueError(
			fmt.Sprintf("range %d .. %d exceeds %d elements", from, to, MaxRangeLength))
	}
	items := make([]types.Value, 0, to-from+1)
	for i := from; i <= to; i++ {
		items = append(items, types.NewInt(i))
	}
	return types.NewList(items), nil
}

func floatOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	a, aOk := left.AsNumber()
	b, bOk := right.AsNumber()
	if !aOk || !bOk {
		return mismatch(t, op, left, right)
	}
	switch op {
	case OpAdd:
		return types.NewFloat(a + b), nil
	case OpSub:
		return types.NewFloat(a - b), nil
	case OpMul:
		return types.NewFloat(a * b), nil
	case OpDiv:
		if b == 0 {
			return types.Null, types.NewZeroDivisionError()
		}
		return types.NewFloat(a / b), nil
	case OpMod:
		if b == 0 {
			return types.Null, types.NewZeroDivisionError()
		}
		return types.NewFloat(math.Mod(a, b)), nil
	case OpPow:
		return types.NewFloat(math.Pow(a, b)), nil
	default:
		return compareResult(op, cmp3(a, b)), nil
	}
}

func strOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if left.Type() != types.TypeString || right.Type() != types.TypeString {
		return mismatch(t, op, left, right)
	}
	if op == OpAdd {
		return types.NewString(left.AsString() + right.AsString()), nil
	}
	return compareResult(op, cmp3(left.AsString(), right.AsString())), nil
}

func catOp(_ *Table, _ Op, left, right types.Value) (types.Value, error) {
	return types.NewString(left.String() + right.String()), nil
}

func repeatOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	s, n := left, right
	if s.Type() != types.TypeString {
		s, n = right, left
	}
	if s.Type() != types.TypeString || n.Type() != types.TypeInt {
		return mismatch(t, op, left, right)
	}
	count := n.AsInt()
	if count <= 0 {
		return types.NewString(""), nil
	}
	if n := len(s.AsString()); n > 0 && count > int64(maxRepeatBytes/n) {
		return types.Null, types.NewValueError("repeated string too long")
	}
	return types.NewString(strings.Repeat(s.AsString(), int(count))), nil
}

func durOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	lt, rt := left.Type(), right.Type()
	switch {
	case lt == types.TypeDuration && rt == types.TypeDuration:
		a, b := left.AsDuration(), right.AsDuration()
		switch op {
		case OpAdd:
			return types.NewDuration(a + b), nil
		case OpSub:
			return types.NewDuration(a - b), nil
		case OpDiv:
			if b == 0 {
				return types.Null, types.NewZeroDivisionError()
			}
			return types.NewFloat(float64(a) / float64(b)), nil
		case OpMod:
			if b == 0 {
				return types.Null, types.NewZeroDivisionError()
			}
			return types.NewDuration(a % b), nil
		default:
			return compareResult(op, cmp3(a, b)), nil
		}
	case lt == types.TypeTime && rt == types.TypeDuration:
		switch op {
		case OpAdd:
			return types.NewTime(left.AsTime().Add(right.AsDuration())), nil
		case OpSub:
			return types.NewTime(left.AsTime().Add(-right.AsDuration())), nil
		}
	case lt == types.TypeDuration && rt == types.TypeTime:
		if op == OpAdd {
			return types.NewTime(right.AsTime().Add(left.AsDuration())), nil
		}
	case lt == types.TypeTime && rt == types.TypeTime:
		a, b := left.AsTime(), right.AsTime()
		switch {
		case op == OpSub:
			return types.NewDuration(a.Sub(b)), nil
		case compareOps.has(op):
			return compareResult(op, a.Compare(b)), nil
		}
	}
	return mismatch(t, op, left, right)
}

func scaleOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeDuration {
		n, ok := right.AsNumber()
		if !ok {
			return mismatch(t, op, left, right)
		}
		d := float64(left.AsDuration())
		if op == OpDiv {
			if n == 0 {
				return types.Null, types.NewZeroDivisionError()
			}
			return types.NewDuration(time.Duration(d / n)), nil
		}
		return types.NewDuration(time.Duration(d * n)), nil
	}
	if n, ok := left.AsNumber(); ok && op == OpMul && right.Type() == types.TypeDuration {
		return types.NewDuration(time.Duration(n * float64(right.AsDuration()))), nil
	}
	return mismatch(t, op, left, right)
}

func listOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	lList, rList := left.Type() == types.TypeList, right.Type() == types.TypeList
	if op == OpMul {
		l, n := left, right
		if !lList {
			l, n = right, left
		}
		if l.Type() != types.TypeList || n.Type() != types.TypeInt {
			return mismatch(t, op, left, right)
		}
		count := n.AsInt()
		items := l.AsList()
		if count <= 0 {
			return types.NewList([]types.Value{}), nil
		}
		if len(items) > 0 && count > int64(MaxRangeLength/len(items)) {
			return types.Null, types.NewValueError("repeated list too long")
		}
		out := make([]types.Value, 0, int(count)*len(items))
		for i := int64(0); i < count; i++ {
			out = append(out, items...)
		}
		return types.NewList(out), nil
	}

	var out []types.Value
	switch {
	case lList && rList:
		out = append(append(out, left.AsList()...), right.AsList()...)
	case lList:
		out = append(append(out, left.AsList()...), right)
	case rList:
		out = append(append(out, left), right.AsList()...)
	default:
		return mismatch(t, op, left, right)
	}
	return types.NewList(out), nil
}

func statements(v types.Value) ([]string, bool) {
	switch v.Type() {
	case types.TypeBlock:
		return v.AsBlock().Statements(), true
	case types.TypeString:
		return []string{v.AsString()}, true
	}
	return nil, false
}

func blockOp(t *Table, op Op, left, right types.Value) (types.Value, error) {
	a, aOk := statements(left)
	b, bOk := statements(right)
	if !aOk || !bOk || (left.Type() != types.TypeBlock && right.Type() != types.TypeBlock) {
		return mismatch(t, op, left, right)
	}
	return types.NewBlock(types.NewBlockOf(append(a, b...)...)), nil
}

func eqOp(_ *Table, op Op, left, right types.Value) (types.Value, error) {
	eq := left.Equal(right)
	if op == OpNeq {
		eq = !eq
	}
	return types.NewBool(eq), nil
}

func boxLeft(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if left.Type() != types.TypeObject {
		return mismatch(t, op, left, right)
	}
	res, err := t.Apply(op, left.Unwrap(), right)
	if err != nil {
		return types.Null, err
	}
	return types.NewObject(types.NewObjectRef(left.AsObject().Name(), res)), nil
}

func unboxLeft(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if left.Type() != types.TypeObject {
		return mismatch(t, op, left, right)
	}
	return t.Apply(op, left.Unwrap(), right)
}

func unboxRight(t *Table, op Op, left, right types.Value) (types.Value, error) {
	if right.Type() != types.TypeObject {
		return mismatch(t, op, left, right)
	}
	return t.Apply(op, left, right.Unwrap())
}
