package expr

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Parser is a recursive descent parser reading from a token stream.
type Parser struct {
	stream *lexer.Stream
	depth  int // bracket nesting; newlines are insignificant when > 0
}

// NewParser creates a parser over s.
func NewParser(s *lexer.Stream) *Parser {
	return &Parser{stream: s}
}

// ParseExpression parses src as a single expression.
func ParseExpression(tk *lexer.Tokenizer, src string) (Node, error) {
	p := NewParser(tk.Tokenize(src))
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != lexer.TokenEOF {
		return nil, p.errorf(tok, "unexpected token %s", tok)
	}
	return node, nil
}

func isAssignOp(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenAssign, lexer.TokenAddAssign, lexer.TokenSubAssign, lexer.TokenMulAssign,
		lexer.TokenDivAssign, lexer.TokenModAssign, lexer.TokenLss2Assign, lexer.TokenGtr2Assign:
		return true
	}
	return false
}

func isTerminator(tt lexer.TokenType) bool {
	return tt == lexer.TokenNewline || tt == lexer.TokenSemicolon || tt == lexer.TokenEOF
}

// ParseStatement parses one statement at the cursor and consumes its
// terminator (newline or ';'). On error the cursor is left where parsing
// stopped.
func (p *Parser) ParseStatement() (Stmt, error) {
	p.depth = 0
	start := p.current()

	var stmt Stmt
	if start.Type == lexer.TokenIdent && isAssignOp(p.peek().Type) {
		p.advance()
		op := p.advance().Type
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt = &AssignStmt{Target: start.Lexeme, Op: op, Value: value, Loc: start.Loc}
	} else {
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt = &ExprStmt{Expr: node, Loc: start.Loc}
	}

	text := strings.TrimSpace(p.stream.Source()[start.Pos:p.stream.Peek(-1).End])
	switch s := stmt.(type) {
	case *AssignStmt:
		s.Text = text
	case *ExprStmt:
		s.Text = text
	}

	end := p.current()
	if !isTerminator(end.Type) {
		return nil, p.errorf(end, "unexpected token %s after statement", end)
	}
	if end.Type != lexer.TokenEOF {
		p.advance()
	}
	return stmt, nil
}

// current returns the token at the cursor.
func (p *Parser) current() lexer.Token {
	if p.depth > 0 {
		for p.stream.Peek(0).Type == lexer.TokenNewline {
			p.stream.Read()
		}
	}
	return p.stream.Peek(0)
}

// peek returns the token after the cursor.
func (p *Parser) peek() lexer.Token {
	return p.stream.Peek(1)
}

// advance consumes the current token and returns it.
func (p *Parser) advance() lexer.Token {
	p.current()
	return p.stream.Read()
}

// expect consumes a token of the expected type or returns an error.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", tt, tok)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...interface{}) error {
	return types.NewSyntaxError(tok.Loc.Line, tok.Loc.Offset, fmt.Sprintf(format, args...))
}

// parseExpression is the entry point: handles the lowest precedence operators.
// Precedence (low to high):
//
//	or ||
//	and &&
//	not !
//	== != < <= > >= in, not in
//	..
//	<< >>
//	+ -
//	* / %
//	unary -
//	**
//	property access, index, function call
func (p *Parser) parseExpression() (Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == lexer.TokenKwOr || p.current().Type == lexer.TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: lexer.TokenOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == lexer.TokenKwAnd || p.current().Type == lexer.TokenAnd {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: lexer.TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (Node, error) {
	if tt := p.current().Type; tt == lexer.TokenNot || tt == lexer.TokenBang {
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: lexer.TokenNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case lexer.TokenEq, lexer.TokenNeq, lexer.TokenLss, lexer.TokenLeq, lexer.TokenGtr, lexer.TokenGeq:
		op := p.advance().Type
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: op, Left: left, Right: right}, nil
	case lexer.TokenIn:
		p.advance()
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		return &InNode{Value: left, Container: right}, nil
	case lexer.TokenNot:
		if p.peek().Type == lexer.TokenIn {
			p.advance() // consume 'not'
			p.advance() // consume 'in'
			right, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			return &InNode{Value: left, Container: right, Negated: true}, nil
		}
	}

	return left, nil
}

func (p *Parser) parseRange() (Node, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	if p.current().Type == lexer.TokenRange {
		p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: lexer.TokenRange, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseShift() (Node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for p.current().Type == lexer.TokenLss2 || p.current().Type == lexer.TokenGtr2 {
		op := p.advance().Type
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAddition() (Node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for p.current().Type == lexer.TokenPlus || p.current().Type == lexer.TokenMinus {
		op := p.advance().Type
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplication() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == lexer.TokenStar || p.current().Type == lexer.TokenSlash ||
		p.current().Type == lexer.TokenMod {
		op := p.advance().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	switch p.current().Type {
	case lexer.TokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: lexer.TokenMinus, Operand: operand}, nil
	case lexer.TokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles right-associative **, which binds tighter than a
// unary minus on its left: -2 ** 2 is -(2 ** 2).
func (p *Parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.current().Type == lexer.TokenPow {
		p.advance()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: lexer.TokenPow, Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *Parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case lexer.TokenDot:
			p.advance()
			name, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			node = &PropertyNode{Object: node, Property: name.Lexeme}
		case lexer.TokenLBracket:
			p.advance()
			p.depth++
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenRBracket); err != nil {
				return nil, err
			}
			p.depth--
			node = &IndexNode{Object: node, Index: index}
		case lexer.TokenLParen:
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			node = &CallNode{Function: node, Args: args}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case lexer.TokenInt, lexer.TokenFloat, lexer.TokenPercent, lexer.TokenString,
		lexer.TokenTime, lexer.TokenDuration, lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNil:
		p.advance()
		v, err := lexer.Literal(tok)
		if err != nil {
			return nil, p.errorf(tok, "%v", err)
		}
		return &LiteralNode{Value: v}, nil
	case lexer.TokenIdent:
		p.advance()
		return &IdentNode{Name: tok.Lexeme}, nil
	case lexer.TokenLParen:
		p.advance()
		p.depth++
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		p.depth--
		return node, nil
	case lexer.TokenLBracket:
		return p.parseListLiteral()
	case lexer.TokenLBrace:
		if p.peek().Type == lexer.TokenString && p.stream.Peek(2).Type == lexer.TokenColon {
			return p.parseMapLiteral()
		}
		return p.parseBlockLiteral()
	case lexer.TokenError:
		return nil, p.errorf(tok, "invalid token %q", tok.Lexeme)
	case lexer.TokenEOF:
		return nil, p.errorf(tok, "unexpected end of input")
	default:
		return nil, p.errorf(tok, "unexpected token %s", tok)
	}
}

// parseListLiteral parses [expr, expr, ...].
func (p *Parser) parseListLiteral() (Node, error) {
	p.advance() // consume [
	p.depth++

	var elements []Node
	for p.current().Type != lexer.TokenRBracket {
		if len(elements) > 0 {
			if _, err := p.expect(lexer.TokenComma); err != nil {
				return nil, err
			}
		}
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}

	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	p.depth--
	return &ListNode{Elements: elements}, nil
}

// parseMapLiteral parses {"key": value, ...}.
func (p *Parser) parseMapLiteral() (Node, error) {
	p.advance() // consume {
	p.depth++

	var keys []Node
	var values []Node
	for p.current().Type != lexer.TokenRBrace {
		if len(keys) > 0 {
			if _, err := p.expect(lexer.TokenComma); err != nil {
				return nil, err
			}
		}
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, value)
	}

	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	p.depth--
	return &MapNode{Keys: keys, Values: values}, nil
}

// parseBlockLiteral parses { stmt; stmt ... }. Statements are split on
// top-level newlines and semicolons and kept as source text.
func (p *Parser) parseBlockLiteral() (Node, error) {
	open := p.advance() // consume {
	src := p.stream.Source()

	var stmts []string
	nesting := 0
	first, last := -1, -1
	flush := func() {
		if first >= 0 {
			if s := strings.TrimSpace(src[first:last]); s != "" {
				stmts = append(stmts, s)
			}
		}
		first, last = -1, -1
	}

	for {
		tok := p.stream.Read()
		switch tok.Type {
		case lexer.TokenEOF:
			return nil, p.errorf(open, "unterminated block")
		case lexer.TokenLBrace, lexer.TokenLParen, lexer.TokenLBracket:
			nesting++
		case lexer.TokenRParen, lexer.TokenRBracket:
			nesting--
		case lexer.TokenRBrace:
			if nesting == 0 {
				flush()
				return &BlockNode{Statements: stmts}, nil
			}
			nesting--
		case lexer.TokenNewline, lexer.TokenSemicolon:
			if nesting == 0 {
				flush()
				continue
			}
		}
		if first < 0 {
			first = tok.Pos
		}
		last = tok.End
	}
}

// parseArgList parses (expr, expr, ...).
func (p *Parser) parseArgList() ([]Node, error) {
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	p.depth++

	var args []Node
	for p.current().Type != lexer.TokenRParen {
		if len(args) > 0 {
			if _, err := p.expect(lexer.TokenComma); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	p.depth--
	return args, nil
}
