package lexer

import (
	"unicode"

	"golang.org/x/text/width"
)

// Class is a character class, the column index of the transition table.
type Class uint8

const (
	ClassEOF Class = iota
	ClassSpace
	ClassNewline
	ClassLetter
	ClassDigit
	ClassUnderscore
	ClassDot
	ClassComma
	ClassColon
	ClassSemicolon
	ClassPlus
	ClassMinus
	ClassStar
	ClassSlash
	ClassPercent
	ClassCaret
	ClassAmp
	ClassPipe
	ClassBang
	ClassEqual
	ClassLess
	ClassGreater
	ClassLParen
	ClassRParen
	ClassLBracket
	ClassRBracket
	ClassLBrace
	ClassRBrace
	ClassSQuote
	ClassDQuote
	ClassHash
	ClassBackslash
	ClassAt
	ClassDollar
	ClassTilde
	ClassQuestion
	ClassBacktick
	ClassSpecial

	numClasses
)

// eofRune is the lookahead value once the input is exhausted.
const eofRune rune = -1

// asciiClass classifies the base range; anything not listed is ClassSpecial.
var asciiClass [128]Class

func init() {
	for i := range asciiClass {
		asciiClass[i] = ClassSpecial
	}
	for c := 'a'; c <= 'z'; c++ {
		asciiClass[c] = ClassLetter
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiClass[c] = ClassLetter
	}
	for c := '0'; c <= '9'; c++ {
		asciiClass[c] = ClassDigit
	}
	// \r is whitespace so CRLF line endings normalize to \n.
	for _, c := range " \t\r\v\f" {
		asciiClass[c] = ClassSpace
	}
	punct := map[rune]Class{
		'\n': ClassNewline,
		'_':  ClassUnderscore,
		'.':  ClassDot,
		',':  ClassComma,
		':':  ClassColon,
		';':  ClassSemicolon,
		'+':  ClassPlus,
		'-':  ClassMinus,
		'*':  ClassStar,
		'/':  ClassSlash,
		'%':  ClassPercent,
		'^':  ClassCaret,
		'&':  ClassAmp,
		'|':  ClassPipe,
		'!':  ClassBang,
		'=':  ClassEqual,
		'<':  ClassLess,
		'>':  ClassGreater,
		'(':  ClassLParen,
		')':  ClassRParen,
		'[':  ClassLBracket,
		']':  ClassRBracket,
		'{':  ClassLBrace,
		'}':  ClassRBrace,
		'\'': ClassSQuote,
		'"':  ClassDQuote,
		'#':  ClassHash,
		'\\': ClassBackslash,
		'@':  ClassAt,
		'$':  ClassDollar,
		'~':  ClassTilde,
		'?':  ClassQuestion,
		'`':  ClassBacktick,
	}
	for c, cls := range punct {
		asciiClass[c] = cls
	}
}

// extendedRemap folds non-ASCII look-alikes onto the ASCII character the
// table knows about.
var extendedRemap = map[rune]rune{
	'\u2018': '\'', // left single quotation mark
	'\u2019': '\'', // right single quotation mark
	'\u201c': '"',  // left double quotation mark
	'\u201d': '"',  // right double quotation mark
	'\u2212': '-',  // minus sign
	'\u2013': '-',  // en dash
	'\u00d7': '*',  // multiplication sign
	'\u00f7': '/',  // division sign
	'\u00a0': ' ',  // no-break space
	'\u2028': '\n', // line separator
}

// remap returns the rune the lexer should see in place of r.
func remap(r rune) rune {
	if r < 0x80 {
		return r
	}
	if p := width.LookupRune(r); p.Kind() == width.EastAsianFullwidth {
		if n := p.Narrow(); n != 0 {
			r = n
		}
	}
	if m, ok := extendedRemap[r]; ok {
		return m
	}
	return r
}

// classify returns the class of an already remapped rune.
func classify(r rune) Class {
	switch {
	case r == eofRune:
		return ClassEOF
	case r >= 0 && r < 0x80:
		return asciiClass[r]
	case unicode.IsLetter(r):
		return ClassLetter
	case unicode.IsSpace(r):
		return ClassSpace
	default:
		return ClassSpecial
	}
}
