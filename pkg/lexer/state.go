package lexer

// State is an automaton state. Valid states lie in [StateMain, stateBoundary);
// transition codes at or beyond the boundary denote terminal token types.
type State int16

const (
	stateInvalid State = iota // never a transition target

	StateMain
	StateIdent
	StateInt
	StateIntDot
	StateFloat
	StateTime
	StateDuration
	StateSpace

	// comments
	StateSlash
	StateLineComment
	StateBlockComment
	StateBlockStar
	StateHashComment

	// quoted literals
	StateSQuote
	StateSQuoteEscape
	StateDQuoteOpen
	StateDQuote
	StateDQuoteEscape
	StateDQuoteEmpty
	StateTriple
	StateTriple1
	StateTriple2

	// operator disambiguators
	StatePlus
	StateMinus
	StateStar
	StatePercentSign
	StateEqual
	StateBang
	StateLess
	StateLess2
	StateGreater
	StateGreater2
	StateAmp
	StatePipe
	StateDot
	StateDot2

	numStates
)

// stateBoundary separates state numbers from terminal token types in
// transition codes. A terminal of type t is encoded as -(stateBoundary+t).
const stateBoundary = 64

// Fails to compile once the states outgrow the boundary.
const _ = uint(stateBoundary - numStates)

// finishRule says what happens to the rune that triggered a terminal.
type finishRule uint8

const (
	finishPushBack finishRule = iota // leave it for the next token
	finishAppend                     // consume it into the lexeme
	finishDiscard                    // consume it, do not keep it
	finishRewind                     // push it back along with the last appended rune
)

// finishRules is keyed by terminal type. Types not listed push back.
var finishRules = map[TokenType]finishRule{
	TokenError:      finishAppend,
	TokenNewline:    finishAppend,
	TokenString:     finishDiscard,
	TokenPercent:    finishAppend,
	TokenAddAssign:  finishAppend,
	TokenSubAssign:  finishAppend,
	TokenMulAssign:  finishAppend,
	TokenDivAssign:  finishAppend,
	TokenModAssign:  finishAppend,
	TokenLss2Assign: finishAppend,
	TokenGtr2Assign: finishAppend,
	TokenEq:         finishAppend,
	TokenNeq:        finishAppend,
	TokenLeq:        finishAppend,
	TokenGeq:        finishAppend,
	TokenAnd:        finishAppend,
	TokenOr:         finishAppend,
	TokenPow:        finishAppend,
	TokenArrow:      finishAppend,
	TokenEllipsis:   finishAppend,
	TokenComma:      finishAppend,
	TokenColon:      finishAppend,
	TokenSemicolon:  finishAppend,
	TokenLParen:     finishAppend,
	TokenRParen:     finishAppend,
	TokenLBracket:   finishAppend,
	TokenRBracket:   finishAppend,
	TokenLBrace:     finishAppend,
	TokenRBrace:     finishAppend,
	TokenCaret:      finishAppend,
	TokenTilde:      finishAppend,
	TokenQuestion:   finishAppend,
	TokenAt:         finishAppend,
	TokenDollar:     finishAppend,
	TokenBackslash:  finishAppend,
	TokenBacktick:   finishAppend,
	tokenComment:    finishDiscard,

	tokenIntBeforeRange: finishRewind,
}
