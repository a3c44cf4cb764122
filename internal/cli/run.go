// Package cli implements the toklat command family (spec SPEC_FULL.md
// component C10): train, decode, stats, repl, each operating against one
// configured Lattice.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lattice-tok/internal/config"
	"github.com/calvinalkan/lattice-tok/pkg/ingest"
	"github.com/calvinalkan/lattice-tok/pkg/lattice"
	"github.com/calvinalkan/lattice-tok/pkg/perplexity"
	"github.com/calvinalkan/lattice-tok/pkg/tokenizer"
)

// env holds the constructed runtime every command operates against.
type env struct {
	cfg        config.Config
	lat        *lattice.Lattice
	ingest     *ingest.Ingest
	tokenizer  *tokenizer.Tokenizer
	perplexity *perplexity.Perplexity
}

// Run is the main entry point. Returns the process exit code. sigCh may be
// nil if signal handling is not needed (e.g. in tests).
func Run(in io.Reader, out, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("toklat", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagConfig := globalFlags.StringP("config", "c", "", "Config `file` (JSONC)")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, allCommandNames())
		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, allCommandNames())

		return 1
	}

	if *flagConfig == "" {
		fprintln(errOut, "error: --config is required")
		printGlobalOptions(errOut)

		return 1
	}

	e, closeEnv, err := newEnv(*flagConfig)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	defer closeEnv()

	commands := e.allCommands()

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, allCommandNames())

		return 1
	}

	cmdIO := NewIO(in, out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		if exitCode != 0 {
			return exitCode
		}

		return cmdIO.Finish()
	case <-sigCh:
		fprintln(errOut, "shutting down...")
		cancel()
	}

	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")
		return 130
	case <-sigCh:
		fprintln(errOut, "second signal, forced exit (130)")
		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")
		return 130
	}
}

// newEnv loads the config at path and opens every runtime component
// against it. The returned func closes the Lattice and releases its
// single-writer lock.
func newEnv(path string) (*env, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	lat, err := lattice.Open(context.Background(), lattice.Options{
		Path:      cfg.Lattice.Path,
		CacheSize: cfg.Lattice.CacheSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open lattice: %w", err)
	}

	e := &env{
		cfg:        cfg,
		lat:        lat,
		tokenizer:  tokenizer.New(lat, tokenizer.Options{Beta: cfg.Tokenizer.Beta, Gamma: cfg.Tokenizer.Gamma}),
		perplexity: perplexity.New(lat, perplexity.Options{}),
	}
	e.ingest = ingest.New(lat, ingest.Options{
		BatchSize:   cfg.Ingest.BatchSize,
		LogProgress: progressLogger(cfg.Ingest.LogProgress),
	})

	return e, func() { _ = lat.Close() }, nil
}

// progressLogger returns an Ingest progress callback that writes to stderr
// when enabled, or nil otherwise - nil disables the callback entirely
// rather than making it a costly no-op.
func progressLogger(enabled bool) func(uint64) {
	if !enabled {
		return nil
	}

	return func(committed uint64) {
		fprintln(os.Stderr, "ingest: committed", committed, "tokens")
	}
}

// allCommands returns all commands in display order. Dependencies are
// captured via closures in each command constructor.
func (e *env) allCommands() []*Command {
	return []*Command{
		TrainCmd(e),
		DecodeCmd(e),
		StatsCmd(e),
		ReplCmd(e),
		PrintConfigCmd(e),
	}
}

func allCommandNames() []string {
	return []string{
		"train [flags] <file>...   Feed text through the sequencer and ingest into the lattice",
		"decode [flags] <text>     Segment text into token ids via Viterbi decode",
		"stats                     Print lattice summary statistics",
		"repl                      Interactive train/decode/stats prompt",
		"print-config              Show the resolved configuration",
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help             Show help
  -c, --config <file>    Config file (JSONC), required`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: toklat [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'toklat --help' for a list of commands.")
}

func printUsage(w io.Writer, lines []string) {
	fprintln(w, "toklat - online unsupervised tokenizer playground")
	fprintln(w)
	fprintln(w, "Usage: toklat [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, line := range lines {
		fprintln(w, "  "+line)
	}
}
