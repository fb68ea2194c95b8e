// Package lexer implements the table-driven tokenizer of the tscript
// language and the token stream consumed by its parser.
package lexer

import (
	"fmt"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// TokenType represents the type of a lexical token.
type TokenType int16

const (
	// Special
	TokenEOF     TokenType = iota // end of input
	TokenError                    // malformed token
	TokenNewline                  // statement separator

	// Literals
	TokenIdent    // identifier
	TokenInt      // 12
	TokenFloat    // 3.5
	TokenString   // 'abc' "abc"
	TokenTime     // 12:30
	TokenDuration // 1h30m
	TokenPercent  // 50%

	// Arithmetic
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *
	TokenPow   // **
	TokenSlash // /
	TokenMod   // %

	// Assignment
	TokenAssign     // =
	TokenAddAssign  // +=
	TokenSubAssign  // -=
	TokenMulAssign  // *=
	TokenDivAssign  // /=
	TokenModAssign  // %=
	TokenLss2Assign // <<=
	TokenGtr2Assign // >>=

	// Comparison
	TokenEq   // ==
	TokenNeq  // !=
	TokenLss  // <
	TokenLeq  // <=
	TokenLss2 // <<
	TokenGtr  // >
	TokenGeq  // >=
	TokenGtr2 // >>

	// Logical and bitwise
	TokenBang // !
	TokenAmp  // &
	TokenAnd  // &&
	TokenPipe // |
	TokenOr   // ||
	TokenCaret
	TokenTilde

	// Punctuation
	TokenQuestion
	TokenAt
	TokenDollar
	TokenBackslash
	TokenBacktick
	TokenArrow    // ->
	TokenDot      // .
	TokenRange    // ..
	TokenEllipsis // ...
	TokenComma
	TokenColon
	TokenSemicolon
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace

	// Keywords
	TokenTrue
	TokenFalse
	TokenNil
	TokenKwAnd
	TokenKwOr
	TokenNot
	TokenIn
	TokenIf
	TokenElse
	TokenFor
	TokenWhile
	TokenReturn
	TokenFunc
	TokenBreak
	TokenContinue

	// Terminals that never leave the lexer.
	tokenSpace
	tokenComment
	tokenLineComment
	tokenEmptyString
	tokenIntBeforeRange

	numTokenTypes
)

var tokenNames = [...]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenNewline:    "NEWLINE",
	TokenIdent:      "IDENT",
	TokenInt:        "INT",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",
	TokenTime:       "TIME",
	TokenDuration:   "DURATION",
	TokenPercent:    "PERCENT",
	TokenPlus:       "PLUS",
	TokenMinus:      "MINUS",
	TokenStar:       "STAR",
	TokenPow:        "POW",
	TokenSlash:      "SLASH",
	TokenMod:        "MOD",
	TokenAssign:     "ASSIGN",
	TokenAddAssign:  "ADD_ASSIGN",
	TokenSubAssign:  "SUB_ASSIGN",
	TokenMulAssign:  "MUL_ASSIGN",
	TokenDivAssign:  "DIV_ASSIGN",
	TokenModAssign:  "MOD_ASSIGN",
	TokenLss2Assign: "LSS2_ASSIGN",
	TokenGtr2Assign: "GTR2_ASSIGN",
	TokenEq:         "EQ",
	TokenNeq:        "NEQ",
	TokenLss:        "LSS",
	TokenLeq:        "LEQ",
	TokenLss2:       "LSS2",
	TokenGtr:        "GTR",
	TokenGeq:        "GTE",
	TokenGtr2:       "GTR2",
	TokenBang:       "BANG",
	TokenAmp:        "AMP",
	TokenAnd:        "AND",
	TokenPipe:       "PIPE",
	TokenOr:         "OR",
	TokenCaret:      "CARET",
	TokenTilde:      "TILDE",
	TokenQuestion:   "QUESTION",
	TokenAt:         "AT",
	TokenDollar:     "DOLLAR",
	TokenBackslash:  "BACKSLASH",
	TokenBacktick:   "BACKTICK",
	TokenArrow:      "ARROW",
	TokenDot:        "DOT",
	TokenRange:      "RANGE",
	TokenEllipsis:   "ELLIPSIS",
	TokenComma:      "COMMA",
	TokenColon:      "COLON",
	TokenSemicolon:  "SEMICOLON",
	TokenLParen:     "LPAREN",
	TokenRParen:     "RPAREN",
	TokenLBracket:   "LBRACKET",
	TokenRBracket:   "RBRACKET",
	TokenLBrace:     "LBRACE",
	TokenRBrace:     "RBRACE",
	TokenTrue:       "TRUE",
	TokenFalse:      "FALSE",
	TokenNil:        "NIL",
	TokenKwAnd:      "KW_AND",
	TokenKwOr:       "KW_OR",
	TokenNot:        "NOT",
	TokenIn:         "IN",
	TokenIf:         "IF",
	TokenElse:       "ELSE",
	TokenFor:        "FOR",
	TokenWhile:      "WHILE",
	TokenReturn:     "RETURN",
	TokenFunc:       "FUNC",
	TokenBreak:      "BREAK",
	TokenContinue:   "CONTINUE",
	tokenSpace:       "space",
	tokenComment:     "comment",
	tokenLineComment: "line-comment",
	tokenEmptyString: "empty-string",

	tokenIntBeforeRange: "int-before-range",
}

var _ = [1]struct{}{}[len(tokenNames)-int(numTokenTypes)]

// String returns the token type name.
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Location is the line and column of a token's first character. Lines are
// 1-based; Offset counts runes from the start of the line, starting at 0.
type Location struct {
	Line   int
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Offset)
}

// Token represents a single lexical token.
type Token struct {
	Type   TokenType
	Lexeme string
	Loc    Location   // where the token starts
	Pos    int        // byte offset of the first source character
	End    int        // byte offset just past the last source character
	Kind   types.Kind // value kind of the literal, KindAny for everything else
}

// Clone returns a copy of t located at loc.
func (t Token) Clone(loc Location) Token {
	c := t
	c.Loc = loc
	return c
}

func (t Token) String() string {
	if t.Lexeme == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Lexeme)
}

// literalKinds is the terminal-to-value-kind remap applied to every
// non-identifier token.
var literalKinds = map[TokenType]types.Kind{
	TokenInt:      types.KindInt,
	TokenFloat:    types.KindFloat,
	TokenPercent:  types.KindFloat,
	TokenString:   types.KindStr,
	TokenDuration: types.KindDuration,
	TokenTime:     types.KindDuration,
}
