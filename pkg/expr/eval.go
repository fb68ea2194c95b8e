package expr

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Scope is the interface for variable lookup and function calls during
// evaluation.
type Scope interface {
	dispatch.Environment
	CallFunction(name string, args []types.Value) (types.Value, error)
}

var binaryOps = map[lexer.TokenType]dispatch.Op{
	lexer.TokenPlus:  dispatch.OpAdd,
	lexer.TokenMinus: dispatch.OpSub,
	lexer.TokenStar:  dispatch.OpMul,
	lexer.TokenSlash: dispatch.OpDiv,
	lexer.TokenMod:   dispatch.OpMod,
	lexer.TokenPow:   dispatch.OpPow,
	lexer.TokenEq:    dispatch.OpEq,
	lexer.TokenNeq:   dispatch.OpNeq,
	lexer.TokenLss:   dispatch.OpLt,
	lexer.TokenLeq:   dispatch.OpLte,
	lexer.TokenGtr:   dispatch.OpGt,
	lexer.TokenGeq:   dispatch.OpGte,
	lexer.TokenLss2:  dispatch.OpShl,
	lexer.TokenGtr2:  dispatch.OpShr,
	lexer.TokenRange: dispatch.OpRange,
}

var compoundOps = map[lexer.TokenType]dispatch.Op{
	lexer.TokenAddAssign:  dispatch.OpAdd,
	lexer.TokenSubAssign:  dispatch.OpSub,
	lexer.TokenMulAssign:  dispatch.OpMul,
	lexer.TokenDivAssign:  dispatch.OpDiv,
	lexer.TokenModAssign:  dispatch.OpMod,
	lexer.TokenLss2Assign: dispatch.OpShl,
	lexer.TokenGtr2Assign: dispatch.OpShr,
}

// Evaluator evaluates parsed nodes against a scope. Operators go through the
// dispatch engine; logical operators short-circuit here.
type Evaluator struct {
	engine *dispatch.Engine
	scope  Scope
}

// NewEvaluator creates an evaluator dispatching through table.
func NewEvaluator(table *dispatch.Table, scope Scope) *Evaluator {
	return &Evaluator{engine: dispatch.NewEngine(table, scope), scope: scope}
}

// Execute runs one statement and returns its value. An assignment yields the
// value bound to its target afterwards.
func (ev *Evaluator) Execute(stmt Stmt) (types.Value, error) {
	switch s := stmt.(type) {
	case *ExprStmt:
		return ev.Evaluate(s.Expr)
	case *AssignStmt:
		return ev.assign(s)
	default:
		return types.Null, fmt.Errorf("unknown statement type: %T", stmt)
	}
}

func (ev *Evaluator) assign(s *AssignStmt) (types.Value, error) {
	rhs, err := ev.operand(s.Value)
	if err != nil {
		return types.Null, err
	}

	if s.Op != lexer.TokenAssign {
		op, ok := compoundOps[s.Op]
		if !ok {
			return types.Null, fmt.Errorf("unknown assignment operator: %s", s.Op)
		}
		v, err := ev.engine.Evaluate(op, dispatch.Ref(s.Target), rhs)
		if err != nil {
			return types.Null, err
		}
		rhs = dispatch.Lit(v)
	}

	if err := ev.engine.Assign(s.Target, rhs); err != nil {
		return types.Null, err
	}
	v, _ := ev.scope.Resolve(s.Target)
	return v, nil
}

// operand turns a node into a dispatch operand. Bare identifiers stay
// references so the engine sees the binding itself.
func (ev *Evaluator) operand(node Node) (dispatch.Operand, error) {
	if id, ok := node.(*IdentNode); ok {
		return dispatch.Ref(id.Name), nil
	}
	v, err := ev.Evaluate(node)
	if err != nil {
		return dispatch.Operand{}, err
	}
	return dispatch.Lit(v), nil
}

// Evaluate evaluates an expression node.
func (ev *Evaluator) Evaluate(node Node) (types.Value, error) {
	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil
	case *IdentNode:
		v, ok := ev.scope.Resolve(n.Name)
		if !ok {
			return types.Null, nil
		}
		return v, nil
	case *BinaryNode:
		return ev.evalBinary(n)
	case *UnaryNode:
		return ev.evalUnary(n)
	case *PropertyNode:
		return ev.evalProperty(n)
	case *IndexNode:
		return ev.evalIndex(n)
	case *CallNode:
		return ev.evalCall(n)
	case *ListNode:
		return ev.evalList(n)
	case *MapNode:
		return ev.evalMap(n)
	case *BlockNode:
		return types.NewBlock(types.NewBlockOf(n.Statements...)), nil
	case *InNode:
		return ev.evalIn(n)
	default:
		return types.Null, fmt.Errorf("unknown node type: %T", node)
	}
}

func (ev *Evaluator) evalBinary(n *BinaryNode) (types.Value, error) {
	switch n.Op {
	case lexer.TokenAnd:
		left, err := ev.Evaluate(n.Left)
		if err != nil {
			return types.Null, err
		}
		if !left.Truthy() {
			return types.NewBool(false), nil
		}
		right, err := ev.Evaluate(n.Right)
		if err != nil {
			return types.Null, err
		}
		return types.NewBool(right.Truthy()), nil
	case lexer.TokenOr:
		left, err := ev.Evaluate(n.Left)
		if err != nil {
			return types.Null, err
		}
		if left.Truthy() {
			return types.NewBool(true), nil
		}
		right, err := ev.Evaluate(n.Right)
		if err != nil {
			return types.Null, err
		}
		return types.NewBool(right.Truthy()), nil
	}

	op, ok := binaryOps[n.Op]
	if !ok {
		return types.Null, fmt.Errorf("unknown binary operator: %s", n.Op)
	}
	left, err := ev.operand(n.Left)
	if err != nil {
		return types.Null, err
	}
	right, err := ev.operand(n.Right)
	if err != nil {
		return types.Null, err
	}
	return ev.engine.Evaluate(op, left, right)
}

func (ev *Evaluator) evalUnary(n *UnaryNode) (types.Value, error) {
	val, err := ev.Evaluate(n.Operand)
	if err != nil {
		return types.Null, err
	}

	switch n.Op {
	case lexer.TokenMinus:
		val = val.Unwrap()
		switch val.Type() {
		case types.TypeNull:
			return types.Null, nil
		case types.TypeInt:
			return types.NewInt(-val.AsInt()), nil
		case types.TypeFloat:
			return types.NewFloat(-val.AsFloat()), nil
		case types.TypeDuration:
			return types.NewDuration(-val.AsDuration()), nil
		default:
			return types.Null, types.NewTypeError(
				fmt.Sprintf("unsupported operand type for unary -: '%s'", val.Type()))
		}
	case lexer.TokenNot:
		return types.NewBool(!val.Truthy()), nil
	default:
		return types.Null, fmt.Errorf("unknown unary operator: %s", n.Op)
	}
}

func (ev *Evaluator) evalProperty(n *PropertyNode) (types.Value, error) {
	obj, err := ev.Evaluate(n.Object)
	if err != nil {
		return types.Null, err
	}
	obj = obj.Unwrap()

	switch obj.Type() {
	case types.TypeNull:
		return types.Null, nil
	case types.TypeMap:
		val, ok := obj.AsMap().Get(n.Property)
		if !ok {
			return types.Null, types.NewKeyError(
				fmt.Sprintf("key '%s' not found in map", n.Property))
		}
		return val, nil
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("cannot access property '%s' on %s", n.Property, obj.Type()))
	}
}

func (ev *Evaluator) evalIndex(n *IndexNode) (types.Value, error) {
	obj, err := ev.Evaluate(n.Object)
	if err != nil {
		return types.Null, err
	}
	idx, err := ev.Evaluate(n.Index)
	if err != nil {
		return types.Null, err
	}
	obj, idx = obj.Unwrap(), idx.Unwrap()

	switch obj.Type() {
	case types.TypeNull:
		return types.Null, nil
	case types.TypeList:
		list := obj.AsList()
		i, err := position(idx, len(list), "list")
		if err != nil {
			return types.Null, err
		}
		return list[i], nil

	case types.TypeBlock:
		stmts := obj.AsBlock().Statements()
		i, err := position(idx, len(stmts), "block")
		if err != nil {
			return types.Null, err
		}
		return types.NewString(stmts[i]), nil

	case types.TypeMap:
		if idx.Type() != types.TypeString {
			return types.Null, types.NewTypeError("map key must be a string")
		}
		val, ok := obj.AsMap().Get(idx.AsString())
		if !ok {
			return types.Null, types.NewKeyError(
				fmt.Sprintf("key '%s' not found in map", idx.AsString()))
		}
		return val, nil

	case types.TypeString:
		runes := []rune(obj.AsString())
		i, err := position(idx, len(runes), "string")
		if err != nil {
			return types.Null, err
		}
		return types.NewString(string(runes[i])), nil

	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("cannot index %s", obj.Type()))
	}
}

// position resolves an integer index into [0, length). Negative indices
// count from the end.
func position(idx types.Value, length int, what string) (int, error) {
	if idx.Type() != types.TypeInt {
		return 0, types.NewTypeError(what + " index must be an integer")
	}
	i := idx.AsInt()
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, types.NewIndexError(
			fmt.Sprintf("%s index %d out of range (length %d)", what, idx.AsInt(), length))
	}
	return int(i), nil
}

func (ev *Evaluator) evalCall(n *CallNode) (types.Value, error) {
	name := functionName(n.Function)
	if name == "" {
		return types.Null, types.NewTypeError("expression is not callable")
	}

	args := make([]types.Value, len(n.Args))
	for i, arg := range n.Args {
		val, err := ev.Evaluate(arg)
		if err != nil {
			return types.Null, err
		}
		args[i] = val
	}

	return ev.scope.CallFunction(name, args)
}

// functionName extracts a dotted function name from a node.
func functionName(node Node) string {
	switch n := node.(type) {
	case *IdentNode:
		return n.Name
	case *PropertyNode:
		if prefix := functionName(n.Object); prefix != "" {
			return prefix + "." + n.Property
		}
	}
	return ""
}

func (ev *Evaluator) evalList(n *ListNode) (types.Value, error) {
	elements := make([]types.Value, len(n.Elements))
	for i, elem := range n.Elements {
		val, err := ev.Evaluate(elem)
		if err != nil {
			return types.Null, err
		}
		elements[i] = val
	}
	return types.NewList(elements), nil
}

func (ev *Evaluator) evalMap(n *MapNode) (types.Value, error) {
	m := types.NewOrderedMap()
	for i := range n.Keys {
		key, err := ev.Evaluate(n.Keys[i])
		if err != nil {
			return types.Null, err
		}
		if key.Type() != types.TypeString {
			return types.Null, types.NewTypeError("map key must be a string")
		}
		val, err := ev.Evaluate(n.Values[i])
		if err != nil {
			return types.Null, err
		}
		m.Set(key.AsString(), val)
	}
	return types.NewMap(m), nil
}

func (ev *Evaluator) evalIn(n *InNode) (types.Value, error) {
	val, err := ev.Evaluate(n.Value)
	if err != nil {
		return types.Null, err
	}
	container, err := ev.Evaluate(n.Container)
	if err != nil {
		return types.Null, err
	}
	val, container = val.Unwrap(), container.Unwrap()

	var found bool
	switch container.Type() {
	case types.TypeNull:
		return types.Null, nil
	case types.TypeList:
		for _, item := range container.AsList() {
			if val.Equal(item) {
				found = true
				break
			}
		}
	case types.TypeMap:
		if val.Type() != types.TypeString {
			return types.Null, types.NewTypeError("'in' on map requires string key")
		}
		_, found = container.AsMap().Get(val.AsString())
	case types.TypeString:
		if val.Type() != types.TypeString {
			return types.Null, types.NewTypeError("'in' on string requires string operand")
		}
		found = strings.Contains(container.AsString(), val.AsString())
	case types.TypeBlock:
		if val.Type() != types.TypeString {
			return types.Null, types.NewTypeError("'in' on block requires string operand")
		}
		for _, s := range container.AsBlock().Statements() {
			if s == val.AsString() {
				found = true
				break
			}
		}
	default:
		return types.Null, types.NewTypeError(
			fmt.Sprintf("'in' not supported for %s", container.Type()))
	}

	if n.Negated {
		found = !found
	}
	return types.NewBool(found), nil
}
