package lexer

import "github.com/lemonberrylabs/tscript/pkg/types"

// Keywords maps reserved identifiers to their canonical tokens. It is built
// once by NewKeywords and never modified.
type Keywords struct {
	words map[string]Token
}

// NewKeywords returns the reserved words of tscript.
func NewKeywords() *Keywords {
	k := &Keywords{words: make(map[string]Token)}
	add := func(word string, tt TokenType, kind types.Kind) {
		k.words[word] = Token{Type: tt, Lexeme: word, Kind: kind}
	}
	add("true", TokenTrue, types.KindBool)
	add("false", TokenFalse, types.KindBool)
	add("nil", TokenNil, types.KindAny)
	add("and", TokenKwAnd, types.KindAny)
	add("or", TokenKwOr, types.KindAny)
	add("not", TokenNot, types.KindAny)
	add("in", TokenIn, types.KindAny)
	add("if", TokenIf, types.KindAny)
	add("else", TokenElse, types.KindAny)
	add("for", TokenFor, types.KindAny)
	add("while", TokenWhile, types.KindAny)
	add("return", TokenReturn, types.KindAny)
	add("func", TokenFunc, types.KindAny)
	add("break", TokenBreak, types.KindAny)
	add("continue", TokenContinue, types.KindAny)
	return k
}

// Lookup returns the canonical token for word.
func (k *Keywords) Lookup(word string) (Token, bool) {
	tok, ok := k.words[word]
	return tok, ok
}

// Resolve reclassifies an identifier token. A keyword yields a copy of the
// canonical token carrying tok's location and span; anything else is
// returned unchanged.
func (k *Keywords) Resolve(tok Token) Token {
	if tok.Type != TokenIdent {
		return tok
	}
	kw, ok := k.words[tok.Lexeme]
	if !ok {
		return tok
	}
	out := kw.Clone(tok.Loc)
	out.Pos, out.End = tok.Pos, tok.End
	return out
}

// Len returns the number of reserved words.
func (k *Keywords) Len() int { return len(k.words) }
