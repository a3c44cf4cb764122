package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ReplCmd returns the repl command: an interactive train/decode/stats
// prompt over the same lattice the other commands use.
func ReplCmd(e *env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Interactive train/decode/stats prompt",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return runRepl(ctx, o, e)
		},
	}
}

func replHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".toklat_history")
}

func runRepl(ctx context.Context, o *IO, e *env) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(replCompleter)

	if f, err := os.Open(replHistoryFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	o.Println("toklat repl - type 'help' for commands, 'exit' to quit")

	for {
		input, err := line.Prompt("toklat> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				o.Println("bye!")
				break
			}

			return fmt.Errorf("repl: read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if done := execReplLine(ctx, o, e, input); done {
			break
		}
	}

	saveReplHistory(line)

	return nil
}

// execReplLine runs one REPL line and reports whether the loop should stop.
func execReplLine(ctx context.Context, o *IO, e *env, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		o.Println("bye!")
		return true

	case "help", "?":
		printReplHelp(o)

	case "train":
		runReplTrain(ctx, o, e, args)

	case "decode":
		runReplDecode(ctx, o, e, args)

	case "stats":
		if err := execStats(ctx, o, e, ""); err != nil {
			o.ErrPrintln("error:", err)
		}

	default:
		o.Println("unknown command:", cmd, "(type 'help' for commands)")
	}

	return false
}

func runReplTrain(ctx context.Context, o *IO, e *env, args []string) {
	st, err := newStacker(e, stackNone)
	if err != nil {
		o.ErrPrintln("error:", err)
		return
	}

	text := strings.Join(args, " ")
	for _, cp := range text {
		if tok, ok := st.push(cp); ok {
			if err := bufferToken(ctx, e, tok); err != nil {
				o.ErrPrintln("error:", err)
				return
			}
		}
	}

	for _, tok := range st.flush() {
		if err := bufferToken(ctx, e, tok); err != nil {
			o.ErrPrintln("error:", err)
			return
		}
	}

	if err := e.ingest.Flush(ctx); err != nil {
		o.ErrPrintln("error:", err)
		return
	}

	o.Println("committed", e.ingest.Committed(), "tokens")
}

func runReplDecode(ctx context.Context, o *IO, e *env, args []string) {
	text := strings.Join(args, " ")

	if err := execDecode(ctx, o, e, text, false, true); err != nil {
		o.ErrPrintln("error:", err)
	}
}

func printReplHelp(o *IO) {
	o.Println("Commands:")
	o.Println("  train <text>   Feed text through the sequencer and ingest it")
	o.Println("  decode <text>  Decode text into token ids and perplexity")
	o.Println("  stats          Print lattice summary statistics")
	o.Println("  help, ?        Show this help")
	o.Println("  exit, quit, q  Exit")
}

func replCompleter(line string) []string {
	commands := []string{"train", "decode", "stats", "help", "exit", "quit"}

	var matches []string

	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			matches = append(matches, c)
		}
	}

	return matches
}

func saveReplHistory(line *liner.State) {
	path := replHistoryFile()
	if path == "" {
		return
	}

	f, err := os.Create(path) //nolint:gosec // fixed filename under the user's home directory
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = line.WriteHistory(f)
}
