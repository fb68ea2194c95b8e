// Package dispatch resolves binary operators over tscript values. Each
// operator owns an 8x8 matrix indexed by the value kinds of its right and
// left operands; every cell names a recipe, and recipes are compiled once
// into a small set of shared handlers.
package dispatch

import (
	"fmt"
	"strings"
)

// Op is a binary operator.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpShl
	OpShr
	OpRange

	// NumOps is the number of binary operators.
	NumOps = 15
)

var opNames = [NumOps]string{
	OpAdd:   "ADD",
	OpSub:   "SUB",
	OpMul:   "MUL",
	OpDiv:   "DIV",
	OpMod:   "MOD",
	OpPow:   "POW",
	OpEq:    "EQ",
	OpNeq:   "NEQ",
	OpLt:    "LT",
	OpLte:   "LTE",
	OpGt:    "GT",
	OpGte:   "GTE",
	OpShl:   "SHL",
	OpShr:   "SHR",
	OpRange: "RANGE",
}

var opSymbols = [NumOps]string{
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpPow:   "**",
	OpEq:    "==",
	OpNeq:   "!=",
	OpLt:    "<",
	OpLte:   "<=",
	OpGt:    ">",
	OpGte:   ">=",
	OpShl:   "<<",
	OpShr:   ">>",
	OpRange: "..",
}

// String returns the operator name used in grid files, such as "ADD".
func (o Op) String() string {
	if int(o) < NumOps {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// Symbol returns the source spelling of the operator, such as "+".
func (o Op) Symbol() string {
	if int(o) < NumOps {
		return opSymbols[o]
	}
	return o.String()
}

// ParseOp accepts an operator name (case-insensitive) or its symbol.
func ParseOp(s string) (Op, error) {
	for i := 0; i < NumOps; i++ {
		if strings.EqualFold(s, opNames[i]) || s == opSymbols[i] {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// Ops returns all operators in index order.
func Ops() []Op {
	out := make([]Op, NumOps)
	for i := range out {
		out[i] = Op(i)
	}
	return out
}

// opSet is a bitmask of operators.
type opSet uint32

func setOf(ops ...Op) opSet {
	var s opSet
	for _, o := range ops {
		s |= 1 << o
	}
	return s
}

func (s opSet) has(o Op) bool { return s&(1<<o) != 0 }

var (
	arithOps   = setOf(OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow)
	compareOps = setOf(OpLt, OpLte, OpGt, OpGte)
	equalOps   = setOf(OpEq, OpNeq)
	intOnlyOps = setOf(OpShl, OpShr, OpRange)
	allOps     = opSet(1<<NumOps - 1)
)
