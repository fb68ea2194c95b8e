package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/stdlib"
	"github.com/lemonberrylabs/tscript/pkg/store"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEvalCommand(t *testing.T) {
	out, errOut, err := execute(t, "eval", "x = 2 * 21\nx - 'a'\n'n' + x")
	if err == nil {
		t.Fatal("expected error from failing statement")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, want line 2", err)
	}
	if out != "42\nn42\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "unsupported operand types for -") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.ts")
	if err := os.WriteFile(path, []byte("a = [1, 2]\na += 3\nlen(a)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if got := lines[len(lines)-1]; got != "3" {
		t.Errorf("last line = %q, want 3", got)
	}
}

func TestGridCommand(t *testing.T) {
	out, _, err := execute(t, "grid", "+")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if !strings.HasPrefix(out, "ADD +") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "box_left") {
		t.Error("expected box_left cells")
	}

	if _, _, err := execute(t, "grid", "nope"); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestWriteTokens(t *testing.T) {
	var buf bytes.Buffer
	writeTokens(&buf, lexer.DefaultTokenizer().Tokenize("d = 90s"))
	out := buf.String()
	for _, want := range []string{"IDENT", "ASSIGN", "DURATION", `"90s"`, "EOF"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
}

func TestDefineGlobals(t *testing.T) {
	tk := lexer.DefaultTokenizer()
	table := dispatch.MustNewTable()

	globals, err := defineGlobals(tk, table, stdlib.NewRegistry(), []string{"base=10", "limit = base * 3"})
	if err != nil {
		t.Fatalf("defineGlobals: %v", err)
	}
	v, err := globals.Get("limit")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.String() != "30" {
		t.Errorf("limit = %s, want 30", v)
	}

	for _, bad := range []string{"noequals", "1x=2", "=3", "y=(1"} {
		if _, err := defineGlobals(tk, table, stdlib.NewRegistry(), []string{bad}); err == nil {
			t.Errorf("defineGlobals(%q): expected error", bad)
		}
	}
}

func TestDefinedObjectsStayShared(t *testing.T) {
	tk := lexer.DefaultTokenizer()
	table := dispatch.MustNewTable()
	funcs := stdlib.NewRegistry()

	globals, err := defineGlobals(tk, table, funcs, []string{"g=box(1)"})
	if err != nil {
		t.Fatalf("defineGlobals: %v", err)
	}
	s := store.New(tk, table, funcs, globals)
	a, _ := s.Create()
	b, _ := s.Create()

	if _, err := a.Exec("g = 99"); err != nil {
		t.Fatalf("exec a: %v", err)
	}
	results, err := b.Exec("unbox(g)")
	if err != nil {
		t.Fatalf("exec b: %v", err)
	}
	if got := results[0].Value.String(); got != "1" {
		t.Errorf("session b unbox(g) = %s, want 1", got)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TSCRIPT_TEST_ENV", "set")
	if got := envOrDefault("TSCRIPT_TEST_ENV", "fallback"); got != "set" {
		t.Errorf("got %q, want set", got)
	}
	if got := envOrDefault("TSCRIPT_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}
