package expr

import (
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Node is the interface for all expression AST nodes.
type Node interface {
	nodeType() string
}

// LiteralNode represents a literal value.
type LiteralNode struct {
	Value types.Value
}

func (n *LiteralNode) nodeType() string { return "Literal" }

// IdentNode represents a variable reference.
type IdentNode struct {
	Name string
}

func (n *IdentNode) nodeType() string { return "Ident" }

// BinaryNode represents a binary operation (e.g., a + b, x == y, a and b).
type BinaryNode struct {
	Op    lexer.TokenType
	Left  Node
	Right Node
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// UnaryNode represents a unary operation (e.g., -x, not x).
type UnaryNode struct {
	Op      lexer.TokenType
	Operand Node
}

func (n *UnaryNode) nodeType() string { return "Unary" }

// PropertyNode represents property access (e.g., obj.field).
type PropertyNode struct {
	Object   Node
	Property string
}

func (n *PropertyNode) nodeType() string { return "Property" }

// IndexNode represents index access (e.g., list[0], map["key"]).
type IndexNode struct {
	Object Node
	Index  Node
}

func (n *IndexNode) nodeType() string { return "Index" }

// CallNode represents a function call (e.g., len(x), math.max(a, b)).
type CallNode struct {
	Function Node // IdentNode or PropertyNode for dotted names
	Args     []Node
}

func (n *CallNode) nodeType() string { return "Call" }

// ListNode represents a list literal (e.g., [1, 2, 3]).
type ListNode struct {
	Elements []Node
}

func (n *ListNode) nodeType() string { return "List" }

// MapNode represents a map literal (e.g., {"key": "value"}).
type MapNode struct {
	Keys   []Node
	Values []Node
}

func (n *MapNode) nodeType() string { return "Map" }

// BlockNode represents a block literal. Its statements are kept as source
// text and are not evaluated.
type BlockNode struct {
	Statements []string
}

func (n *BlockNode) nodeType() string { return "Block" }

// InNode represents a membership test (e.g., x in list, "key" in map).
type InNode struct {
	Value     Node
	Container Node
	Negated   bool // true for "not in"
}

func (n *InNode) nodeType() string { return "In" }

// Stmt is a parsed statement.
type Stmt interface {
	Location() lexer.Location
	Source() string
}

// AssignStmt is `name = expr` or a compound form such as `name += expr`.
type AssignStmt struct {
	Target string
	Op     lexer.TokenType // TokenAssign or a compound assignment token
	Value  Node
	Loc    lexer.Location
	Text   string
}

func (s *AssignStmt) Location() lexer.Location { return s.Loc }
func (s *AssignStmt) Source() string           { return s.Text }

// ExprStmt is a bare expression whose value is the statement result.
type ExprStmt struct {
	Expr Node
	Loc  lexer.Location
	Text string
}

func (s *ExprStmt) Location() lexer.Location { return s.Loc }
func (s *ExprStmt) Source() string           { return s.Text }
