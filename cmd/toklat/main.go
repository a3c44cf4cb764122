// Command toklat is a playground CLI for the online tokenizer pipeline:
// train a lattice from text, decode new text against it, inspect summary
// statistics, or drive all three interactively via repl.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/calvinalkan/lattice-tok/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
