package lexer

// Whence selects how Stream.Seek interprets its offset.
type Whence int

const (
	SeekStart         Whence = iota // offset from the first token
	SeekCurrent                     // offset from the cursor
	SeekEnd                         // offset from the EOF token
	SeekNextStatement               // skip newlines; offset ignored
	SeekPastNewline                 // move just past the next newline; offset ignored
)

// Stream is a read cursor over a fully materialized token sequence. The
// cursor is owned by a single consumer.
type Stream struct {
	source string
	tokens []Token
	pos    int
}

// NewStream wraps tokens scanned from source. tokens should end with EOF.
func NewStream(source string, tokens []Token) *Stream {
	return &Stream{source: source, tokens: tokens}
}

// Source returns the text the tokens were scanned from.
func (s *Stream) Source() string { return s.source }

// Len returns the number of tokens, EOF included.
func (s *Stream) Len() int { return len(s.tokens) }

// Tokens returns the underlying token slice.
func (s *Stream) Tokens() []Token { return s.tokens }

// Peek returns the token offset positions away from the cursor without
// moving it. Outside the buffer it returns a synthetic EOF.
func (s *Stream) Peek(offset int) Token {
	i := s.pos + offset
	if i < 0 || i >= len(s.tokens) {
		return s.eof()
	}
	return s.tokens[i]
}

// Read returns the current token and advances the cursor.
func (s *Stream) Read() Token {
	tok := s.Peek(0)
	s.setPos(s.pos + 1)
	return tok
}

// Reset rewinds the cursor to the first token.
func (s *Stream) Reset() { s.pos = 0 }

// Tell returns the cursor position.
func (s *Stream) Tell() int { return s.pos }

// HasMore reports whether the cursor is before the EOF token.
func (s *Stream) HasMore() bool {
	return s.Peek(0).Type != TokenEOF
}

// Seek moves the cursor and returns its new position, clamped to
// [0, Len()].
func (s *Stream) Seek(offset int, whence Whence) int {
	switch whence {
	case SeekStart:
		s.setPos(offset)
	case SeekCurrent:
		s.setPos(s.pos + offset)
	case SeekEnd:
		s.setPos(len(s.tokens) - 1 + offset)
	case SeekNextStatement:
		for s.pos < len(s.tokens) && s.tokens[s.pos].Type == TokenNewline {
			s.pos++
		}
	case SeekPastNewline:
		for s.pos < len(s.tokens) {
			tt := s.tokens[s.pos].Type
			if tt == TokenEOF {
				break
			}
			s.pos++
			if tt == TokenNewline {
				break
			}
		}
	}
	return s.pos
}

func (s *Stream) setPos(p int) {
	switch {
	case p < 0:
		s.pos = 0
	case p > len(s.tokens):
		s.pos = len(s.tokens)
	default:
		s.pos = p
	}
}

func (s *Stream) eof() Token {
	if n := len(s.tokens); n > 0 {
		last := s.tokens[n-1]
		return Token{Type: TokenEOF, Loc: last.Loc, Pos: last.End, End: last.End}
	}
	return Token{Type: TokenEOF, Loc: Location{Line: 1}}
}

// Tokenizer produces token streams from source text. It holds only
// immutable tables, so one Tokenizer may serve concurrent callers.
type Tokenizer struct {
	table    *Table
	keywords *Keywords
}

// NewTokenizer creates a tokenizer over the given table and keywords.
func NewTokenizer(table *Table, keywords *Keywords) *Tokenizer {
	return &Tokenizer{table: table, keywords: keywords}
}

// DefaultTokenizer builds a tokenizer with the standard table and keywords.
func DefaultTokenizer() *Tokenizer {
	return NewTokenizer(MustNewTable(), NewKeywords())
}

// Tokenize scans src into a new stream.
func (t *Tokenizer) Tokenize(src string) *Stream {
	return NewStream(src, NewLexer(src, t.table, t.keywords).Tokenize())
}

// Keywords returns the keyword table in use.
func (t *Tokenizer) Keywords() *Keywords { return t.keywords }
