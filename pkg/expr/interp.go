package expr

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/types"
)

// Result is the outcome of one top-level statement.
type Result struct {
	Line   int
	Source string
	Value  types.Value
	Err    error
}

// Interpreter runs programs statement by statement against one scope.
type Interpreter struct {
	tokenizer *lexer.Tokenizer
	eval      *Evaluator
}

// NewInterpreter creates an interpreter. The tokenizer and table may be
// shared; scope belongs to this interpreter.
func NewInterpreter(tk *lexer.Tokenizer, table *dispatch.Table, scope Scope) *Interpreter {
	return &Interpreter{tokenizer: tk, eval: NewEvaluator(table, scope)}
}

// Evaluator returns the evaluator bound to the interpreter's scope.
func (in *Interpreter) Evaluator() *Evaluator { return in.eval }

// Exec runs every statement in src. A statement that fails to parse or
// evaluate is recorded and execution continues with the next line. The
// returned error is the first failure, if any.
func (in *Interpreter) Exec(src string) ([]Result, error) {
	stream := in.tokenizer.Tokenize(src)
	p := NewParser(stream)

	var results []Result
	var firstErr error
	fail := func(r Result) {
		results = append(results, r)
		if firstErr == nil {
			firstErr = fmt.Errorf("line %d: %w", r.Line, r.Err)
		}
	}

	for {
		skipSeparators(stream)
		if !stream.HasMore() {
			break
		}
		mark, start := stream.Tell(), stream.Peek(0)

		stmt, err := p.ParseStatement()
		if err != nil {
			fail(Result{Line: start.Loc.Line, Source: lineAt(src, start.Pos), Err: err})
			// Resume on the line after the one the statement started on.
			stream.Seek(mark, lexer.SeekStart)
			stream.Seek(0, lexer.SeekPastNewline)
			continue
		}

		val, err := in.eval.Execute(stmt)
		r := Result{Line: stmt.Location().Line, Source: stmt.Source(), Value: val, Err: err}
		if err != nil {
			fail(r)
			continue
		}
		results = append(results, r)
	}
	return results, firstErr
}

// Run executes the statements of a block in order and returns the value of
// the last one. It stops at the first error.
func (in *Interpreter) Run(b *types.Block) (types.Value, error) {
	last := types.Null
	for _, s := range b.Statements() {
		results, err := in.Exec(s)
		if err != nil {
			return types.Null, err
		}
		if n := len(results); n > 0 {
			last = results[n-1].Value
		}
	}
	return last, nil
}

func skipSeparators(s *lexer.Stream) {
	for {
		s.Seek(0, lexer.SeekNextStatement)
		if s.Peek(0).Type != lexer.TokenSemicolon {
			return
		}
		s.Read()
	}
}

// lineAt returns the source line containing byte offset pos.
func lineAt(src string, pos int) string {
	if pos > len(src) {
		pos = len(src)
	}
	start := strings.LastIndexByte(src[:pos], '\n') + 1
	end := strings.IndexByte(src[pos:], '\n')
	if end < 0 {
		return strings.TrimSpace(src[start:])
	}
	return strings.TrimSpace(src[start : pos+end])
}
