package lexer

import "fmt"

// Table is the transition table of the tokenizer automaton, indexed by
// [state][class]. A Table is immutable once NewTable returns it and may be
// shared by any number of lexers.
//
// Transition codes:
//
//	code > 0                    append the rune, advance, go to State(code)
//	-stateBoundary < code < 0   advance without appending, go to State(-code)
//	code <= -stateBoundary      finish a token of type -code-stateBoundary
type Table struct {
	cells [numStates][numClasses]int16
}

func shift(s State) int16     { return int16(s) }
func skip(s State) int16      { return -int16(s) }
func emit(t TokenType) int16  { return -(stateBoundary + int16(t)) }
func isTerminal(c int16) bool { return c <= -stateBoundary }

// NewTable builds and validates the tscript transition table.
func NewTable() (*Table, error) {
	t := &Table{}
	for s := range t.cells {
		t.fill(State(s), emit(TokenError))
	}
	t.build()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on an invalid table.
func MustNewTable() *Table {
	t, err := NewTable()
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the raw transition code for (s, c).
func (t *Table) Lookup(s State, c Class) int16 {
	return t.cells[s][c]
}

// Validate checks that every code is decodable, that targets are real
// states, and that no state re-enters the automaton on EOF.
func (t *Table) Validate() error {
	for s := StateMain; s < numStates; s++ {
		for c := Class(0); c < numClasses; c++ {
			code := t.cells[s][c]
			switch {
			case code == 0:
				return fmt.Errorf("state %d class %d: empty transition", s, c)
			case isTerminal(code):
				if tt := -code - stateBoundary; tt >= int16(numTokenTypes) {
					return fmt.Errorf("state %d class %d: unknown token type %d", s, c, tt)
				}
			default:
				next := code
				if next < 0 {
					next = -next
				}
				if State(next) < StateMain || State(next) >= numStates {
					return fmt.Errorf("state %d class %d: target %d out of range", s, c, next)
				}
			}
		}
		if !isTerminal(t.cells[s][ClassEOF]) {
			return fmt.Errorf("state %d does not finish on EOF", s)
		}
	}
	return nil
}

func (t *Table) fill(s State, code int16) {
	for c := range t.cells[s] {
		t.cells[s][c] = code
	}
}

func (t *Table) set(s State, code int16, classes ...Class) {
	for _, c := range classes {
		t.cells[s][c] = code
	}
}

func (t *Table) build() {
	// main dispatch
	t.fill(StateMain, emit(TokenError))
	t.set(StateMain, emit(TokenEOF), ClassEOF)
	t.set(StateMain, shift(StateSpace), ClassSpace)
	t.set(StateMain, emit(TokenNewline), ClassNewline)
	t.set(StateMain, shift(StateIdent), ClassLetter, ClassUnderscore)
	t.set(StateMain, shift(StateInt), ClassDigit)
	t.set(StateMain, shift(StateDot), ClassDot)
	t.set(StateMain, shift(StatePlus), ClassPlus)
	t.set(StateMain, shift(StateMinus), ClassMinus)
	t.set(StateMain, shift(StateStar), ClassStar)
	t.set(StateMain, shift(StateSlash), ClassSlash)
	t.set(StateMain, shift(StatePercentSign), ClassPercent)
	t.set(StateMain, shift(StateEqual), ClassEqual)
	t.set(StateMain, shift(StateBang), ClassBang)
	t.set(StateMain, shift(StateLess), ClassLess)
	t.set(StateMain, shift(StateGreater), ClassGreater)
	t.set(StateMain, shift(StateAmp), ClassAmp)
	t.set(StateMain, shift(StatePipe), ClassPipe)
	t.set(StateMain, skip(StateSQuote), ClassSQuote)
	t.set(StateMain, skip(StateDQuoteOpen), ClassDQuote)
	t.set(StateMain, skip(StateHashComment), ClassHash)
	single := map[Class]TokenType{
		ClassComma:     TokenComma,
		ClassColon:     TokenColon,
		ClassSemicolon: TokenSemicolon,
		ClassLParen:    TokenLParen,
		ClassRParen:    TokenRParen,
		ClassLBracket:  TokenLBracket,
		ClassRBracket:  TokenRBracket,
		ClassLBrace:    TokenLBrace,
		ClassRBrace:    TokenRBrace,
		ClassCaret:     TokenCaret,
		ClassTilde:     TokenTilde,
		ClassQuestion:  TokenQuestion,
		ClassAt:        TokenAt,
		ClassDollar:    TokenDollar,
		ClassBackslash: TokenBackslash,
		ClassBacktick:  TokenBacktick,
	}
	for c, tt := range single {
		t.set(StateMain, emit(tt), c)
	}

	t.fill(StateIdent, emit(TokenIdent))
	t.set(StateIdent, shift(StateIdent), ClassLetter, ClassDigit, ClassUnderscore)

	t.fill(StateSpace, emit(tokenSpace))
	t.set(StateSpace, shift(StateSpace), ClassSpace)

	// numbers, times and durations
	t.fill(StateInt, emit(TokenInt))
	t.set(StateInt, shift(StateInt), ClassDigit)
	t.set(StateInt, shift(StateIntDot), ClassDot)
	t.set(StateInt, shift(StateTime), ClassColon)
	t.set(StateInt, shift(StateDuration), ClassLetter)

	// "1." is a float unless a second dot makes it the start of a range
	t.fill(StateIntDot, emit(TokenFloat))
	t.set(StateIntDot, shift(StateFloat), ClassDigit)
	t.set(StateIntDot, shift(StateDuration), ClassLetter)
	t.set(StateIntDot, emit(tokenIntBeforeRange), ClassDot)

	t.fill(StateFloat, emit(TokenFloat))
	t.set(StateFloat, shift(StateFloat), ClassDigit)
	t.set(StateFloat, shift(StateDuration), ClassLetter)

	t.fill(StateTime, emit(TokenTime))
	t.set(StateTime, shift(StateTime), ClassDigit, ClassColon)

	t.fill(StateDuration, emit(TokenDuration))
	t.set(StateDuration, shift(StateDuration), ClassLetter, ClassDigit, ClassDot)

	for _, s := range []State{StateInt, StateIntDot, StateFloat, StateTime, StateDuration} {
		t.set(s, emit(TokenPercent), ClassPercent)
	}

	// comments
	t.fill(StateSlash, emit(TokenSlash))
	t.set(StateSlash, skip(StateLineComment), ClassSlash)
	t.set(StateSlash, skip(StateBlockComment), ClassStar)
	t.set(StateSlash, emit(TokenDivAssign), ClassEqual)

	for _, s := range []State{StateLineComment, StateHashComment} {
		t.fill(s, skip(s))
		t.set(s, emit(tokenLineComment), ClassNewline, ClassEOF)
	}

	t.fill(StateBlockComment, skip(StateBlockComment))
	t.set(StateBlockComment, skip(StateBlockStar), ClassStar)
	t.set(StateBlockComment, emit(TokenError), ClassEOF)

	t.fill(StateBlockStar, skip(StateBlockComment))
	t.set(StateBlockStar, skip(StateBlockStar), ClassStar)
	t.set(StateBlockStar, emit(tokenComment), ClassSlash)
	t.set(StateBlockStar, emit(TokenError), ClassEOF)

	// quoted strings; escapes are kept raw and decoded when the token finishes
	t.fill(StateSQuote, shift(StateSQuote))
	t.set(StateSQuote, shift(StateSQuoteEscape), ClassBackslash)
	t.set(StateSQuote, emit(TokenString), ClassSQuote)
	t.set(StateSQuote, emit(TokenError), ClassEOF)

	t.fill(StateSQuoteEscape, shift(StateSQuote))
	t.set(StateSQuoteEscape, emit(TokenError), ClassEOF)

	t.fill(StateDQuoteOpen, shift(StateDQuote))
	t.set(StateDQuoteOpen, skip(StateDQuoteEmpty), ClassDQuote)
	t.set(StateDQuoteOpen, shift(StateDQuoteEscape), ClassBackslash)
	t.set(StateDQuoteOpen, emit(TokenError), ClassEOF)

	t.fill(StateDQuote, shift(StateDQuote))
	t.set(StateDQuote, shift(StateDQuoteEscape), ClassBackslash)
	t.set(StateDQuote, emit(TokenString), ClassDQuote)
	t.set(StateDQuote, emit(TokenError), ClassEOF)

	t.fill(StateDQuoteEscape, shift(StateDQuote))
	t.set(StateDQuoteEscape, emit(TokenError), ClassEOF)

	t.fill(StateDQuoteEmpty, emit(tokenEmptyString))
	t.set(StateDQuoteEmpty, skip(StateTriple), ClassDQuote)

	// """ ... """ blocks are comments
	t.fill(StateTriple, skip(StateTriple))
	t.set(StateTriple, skip(StateTriple1), ClassDQuote)
	t.set(StateTriple, emit(TokenError), ClassEOF)

	t.fill(StateTriple1, skip(StateTriple))
	t.set(StateTriple1, skip(StateTriple2), ClassDQuote)
	t.set(StateTriple1, emit(TokenError), ClassEOF)

	t.fill(StateTriple2, skip(StateTriple))
	t.set(StateTriple2, emit(tokenComment), ClassDQuote)
	t.set(StateTriple2, emit(TokenError), ClassEOF)

	// operators
	t.fill(StatePlus, emit(TokenPlus))
	t.set(StatePlus, emit(TokenAddAssign), ClassEqual)

	t.fill(StateMinus, emit(TokenMinus))
	t.set(StateMinus, emit(TokenSubAssign), ClassEqual)
	t.set(StateMinus, emit(TokenArrow), ClassGreater)

	t.fill(StateStar, emit(TokenStar))
	t.set(StateStar, emit(TokenPow), ClassStar)
	t.set(StateStar, emit(TokenMulAssign), ClassEqual)

	t.fill(StatePercentSign, emit(TokenMod))
	t.set(StatePercentSign, emit(TokenModAssign), ClassEqual)

	t.fill(StateEqual, emit(TokenAssign))
	t.set(StateEqual, emit(TokenEq), ClassEqual)

	t.fill(StateBang, emit(TokenBang))
	t.set(StateBang, emit(TokenNeq), ClassEqual)

	t.fill(StateLess, emit(TokenLss))
	t.set(StateLess, emit(TokenLeq), ClassEqual)
	t.set(StateLess, shift(StateLess2), ClassLess)

	t.fill(StateLess2, emit(TokenLss2))
	t.set(StateLess2, emit(TokenLss2Assign), ClassEqual)

	t.fill(StateGreater, emit(TokenGtr))
	t.set(StateGreater, emit(TokenGeq), ClassEqual)
	t.set(StateGreater, shift(StateGreater2), ClassGreater)

	t.fill(StateGreater2, emit(TokenGtr2))
	t.set(StateGreater2, emit(TokenGtr2Assign), ClassEqual)

	t.fill(StateAmp, emit(TokenAmp))
	t.set(StateAmp, emit(TokenAnd), ClassAmp)

	t.fill(StatePipe, emit(TokenPipe))
	t.set(StatePipe, emit(TokenOr), ClassPipe)

	t.fill(StateDot, emit(TokenDot))
	t.set(StateDot, shift(StateFloat), ClassDigit)
	t.set(StateDot, shift(StateDot2), ClassDot)

	t.fill(StateDot2, emit(TokenRange))
	t.set(StateDot2, emit(TokenEllipsis), ClassDot)
}
