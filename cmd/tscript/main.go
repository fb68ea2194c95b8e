// Package main is the entry point for the tscript command line tool and
// server.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/tscript/pkg/api"
	grpcapi "github.com/lemonberrylabs/tscript/pkg/api/grpc"
	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/expr"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/runtime"
	"github.com/lemonberrylabs/tscript/pkg/stdlib"
	"github.com/lemonberrylabs/tscript/pkg/store"
	"github.com/lemonberrylabs/tscript/pkg/types"
	"github.com/lemonberrylabs/tscript/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "tscript",
	Short:         "tscript tokenizer, operator dispatch and interpreter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [SOURCE]",
	Short: "Print the tokens of SOURCE (or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceArg(cmd, args)
		if err != nil {
			return err
		}
		writeTokens(cmd.OutOrStdout(), lexer.DefaultTokenizer().Tokenize(src))
		return nil
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval [SOURCE]",
	Short: "Evaluate SOURCE (or stdin) and print each statement's value",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceArg(cmd, args)
		if err != nil {
			return err
		}
		return runSource(cmd, src)
	},
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		return runSource(cmd, string(data))
	},
}

var gridCmd = &cobra.Command{
	Use:   "grid OP",
	Short: "Print the dispatch grid of an operator (name or symbol)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := dispatch.ParseOp(args[0])
		if err != nil {
			return err
		}
		table, err := loadTable(cmd)
		if err != nil {
			return err
		}
		writeGrid(cmd.OutOrStdout(), table, op)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, web UI and gRPC service",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("tscript version {{.Version}}\n")

	rootCmd.PersistentFlags().String("grid", "", "YAML dispatch grid to load instead of the built-in one (env TSCRIPT_GRID)")
	rootCmd.PersistentFlags().StringArrayP("define", "D", nil, "Global variable NAME=EXPR visible to every session (repeatable)")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8790, env PORT)")
	serveCmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8791, env GRPC_PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().Int("max-sessions", 0, "Maximum number of live sessions (0 = unlimited)")
	serveCmd.Flags().Duration("session-ttl", 0, "Expire sessions idle for longer than this (0 = never)")
	serveCmd.Flags().Bool("access-log", false, "Log every HTTP request")

	rootCmd.AddCommand(tokenizeCmd, evalCmd, runCmd, gridCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8790")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8791")
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	s, err := buildStore(cmd)
	if err != nil {
		return err
	}
	s.MaxSessions, _ = cmd.Flags().GetInt("max-sessions")
	accessLog, _ := cmd.Flags().GetBool("access-log")

	server := api.New(s, api.Config{AccessLog: accessLog})
	web.New(s).Register(server.App())

	// Start gRPC server
	grpcServer := grpcapi.New(s)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	if ttl, _ := cmd.Flags().GetDuration("session-ttl"); ttl > 0 {
		go expireSessions(s, ttl)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down tscript...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("tscript listening on %s (%d operators, %d handlers)", addr, dispatch.NumOps, s.Table().Handlers())
	return server.Listen(addr)
}

func expireSessions(s *store.Store, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for now := range tick.C {
		if n := s.Expire(now.Add(-ttl)); n > 0 {
			log.Printf("Expired %d idle sessions", n)
		}
	}
}

// runSource executes src in a fresh session, printing one line per
// statement. Failed statements are reported on stderr and make the command
// fail after the remaining statements have run.
func runSource(cmd *cobra.Command, src string) error {
	s, err := buildStore(cmd)
	if err != nil {
		return err
	}
	sess, err := s.Create()
	if err != nil {
		return err
	}
	results, execErr := sess.Exec(src)
	writeResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results)
	return execErr
}

func loadTable(cmd *cobra.Command) (*dispatch.Table, error) {
	path := envOrDefault("TSCRIPT_GRID", "")
	if v, _ := cmd.Flags().GetString("grid"); v != "" {
		path = v
	}
	if path == "" {
		return dispatch.NewTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()
	t, err := dispatch.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("load grid %s: %w", path, err)
	}
	return t, nil
}

func buildStore(cmd *cobra.Command) (*store.Store, error) {
	table, err := loadTable(cmd)
	if err != nil {
		return nil, err
	}
	tk := lexer.DefaultTokenizer()
	funcs := stdlib.NewRegistry()
	defines, _ := cmd.Flags().GetStringArray("define")
	globals, err := defineGlobals(tk, table, funcs, defines)
	if err != nil {
		return nil, err
	}
	return store.New(tk, table, funcs, globals), nil
}

// defineGlobals evaluates NAME=EXPR definitions in order; later definitions
// may refer to earlier ones.
func defineGlobals(tk *lexer.Tokenizer, table *dispatch.Table, funcs runtime.FunctionRegistry, defines []string) (*runtime.VariableScope, error) {
	globals := runtime.NewScope()
	ev := expr.NewEvaluator(table, runtime.NewScopeAdapter(globals, funcs))
	for _, d := range defines {
		name, src, ok := strings.Cut(d, "=")
		name = strings.TrimSpace(name)
		if !ok || !isIdent(tk, name) {
			return nil, fmt.Errorf("invalid definition %q: want NAME=EXPR", d)
		}
		node, err := expr.ParseExpression(tk, src)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}
		v, err := ev.Evaluate(node)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}
		globals.SetLocal(name, v)
	}
	return globals, nil
}

func isIdent(tk *lexer.Tokenizer, name string) bool {
	s := tk.Tokenize(name)
	return s.Len() == 2 && s.Peek(0).Type == lexer.TokenIdent
}

func sourceArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeTokens(w io.Writer, s *lexer.Stream) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tok := range s.Tokens() {
		fmt.Fprintf(tw, "%s\t%s\t%q\t%s\n", tok.Loc, tok.Type, tok.Lexeme, tok.Kind)
	}
	tw.Flush()
}

func writeResults(out, errOut io.Writer, results []expr.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(errOut, "line %d: %s: %v\n", r.Line, r.Source, r.Err)
			continue
		}
		fmt.Fprintln(out, r.Value.String())
	}
}

func writeGrid(w io.Writer, t *dispatch.Table, op dispatch.Op) {
	g := t.Grid(op)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s\t", op, op.Symbol())
	for _, left := range types.Kinds() {
		fmt.Fprintf(tw, "%s\t", left)
	}
	fmt.Fprintln(tw)
	for _, right := range types.Kinds() {
		fmt.Fprintf(tw, "%s\t", right)
		for _, left := range types.Kinds() {
			fmt.Fprintf(tw, "%s\t", g[right][left])
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
