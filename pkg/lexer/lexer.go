package lexer

import (
	"strings"
	"unicode/utf8"
)

// MaxLexemeLength is the longest lexeme, in runes, a token may carry before
// it is reported as an error.
const MaxLexemeLength = 128

// Lexer tokenizes one source string. It is not safe for concurrent use;
// tokenize independent sources with independent lexers.
type Lexer struct {
	input    string
	table    *Table
	keywords *Keywords

	ch   rune     // lookahead, already remapped
	size int      // byte width of the lookahead in input
	pos  int      // byte offset of the lookahead
	loc  Location // location of the lookahead

	tokens []Token
	done   bool
}

// NewLexer creates a lexer for input driven by table and keywords.
func NewLexer(input string, table *Table, keywords *Keywords) *Lexer {
	l := &Lexer{
		input:    input,
		table:    table,
		keywords: keywords,
		loc:      Location{Line: 1},
	}
	l.read()
	return l
}

// Tokenize scans the entire input and returns all tokens. The result always
// ends with exactly one EOF token. Calling Tokenize again returns the same
// slice.
func (l *Lexer) Tokenize() []Token {
	if l.done {
		return l.tokens
	}
	for {
		tok := l.next()
		switch tok.Type {
		case tokenSpace, tokenComment, tokenLineComment:
			continue
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	l.done = true
	return l.tokens
}

// read loads the rune at l.pos into the lookahead.
func (l *Lexer) read() {
	if l.pos >= len(l.input) {
		l.ch, l.size = eofRune, 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.ch, l.size = remap(r), w
}

// advance moves past the lookahead. It is a no-op at EOF.
func (l *Lexer) advance() {
	if l.ch == eofRune {
		return
	}
	if l.ch == '\n' {
		l.loc.Line++
		l.loc.Offset = 0
	} else {
		l.loc.Offset++
	}
	l.pos += l.size
	l.read()
}

// scan runs the automaton from StateMain to the next terminal and returns
// the raw token and its lexeme length in runes.
func (l *Lexer) scan() (Token, int) {
	start, startPos := l.loc, l.pos
	var sb strings.Builder
	n := 0
	state := StateMain
	var lastPos int
	var lastRune rune
	var lastLoc Location
	for {
		code := l.table.cells[state][classify(l.ch)]
		switch {
		case code > 0:
			lastPos, lastRune, lastLoc = l.pos, l.ch, l.loc
			sb.WriteRune(l.ch)
			n++
			l.advance()
			state = State(code)
		case !isTerminal(code):
			l.advance()
			state = State(-code)
		default:
			tt := TokenType(-code - stateBoundary)
			switch finishRules[tt] {
			case finishAppend:
				if l.ch != eofRune {
					sb.WriteRune(l.ch)
					n++
					l.advance()
				}
			case finishDiscard:
				l.advance()
			}
			lexeme := sb.String()
			if finishRules[tt] == finishRewind && n > 0 {
				lexeme = lexeme[:len(lexeme)-utf8.RuneLen(lastRune)]
				n--
				l.pos, l.loc = lastPos, lastLoc
				l.read()
			}
			return Token{
				Type:   tt,
				Lexeme: lexeme,
				Loc:    start,
				Pos:    startPos,
				End:    l.pos,
			}, n
		}
	}
}

// next scans one token and applies keyword resolution, literal validation
// and the value-kind remap.
func (l *Lexer) next() Token {
	tok, n := l.scan()
	switch tok.Type {
	case tokenSpace, tokenComment, tokenLineComment, TokenEOF:
		return tok
	case tokenEmptyString:
		tok.Type = TokenString
	case tokenIntBeforeRange:
		tok.Type = TokenInt
	}
	if n > MaxLexemeLength {
		tok.Type = TokenError
		return tok
	}
	switch tok.Type {
	case TokenIdent:
		return l.keywords.Resolve(tok)
	case TokenString:
		tok.Lexeme = unescape(tok.Lexeme)
	case TokenInt, TokenFloat, TokenPercent, TokenTime, TokenDuration:
		if _, err := Literal(tok); err != nil {
			tok.Type = TokenError
			return tok
		}
	}
	tok.Kind = literalKinds[tok.Type]
	return tok
}
