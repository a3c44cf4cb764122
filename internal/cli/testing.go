package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// CLI drives Run in-process against a temp directory, the way
// internal/cli/testing.go's CLI.Run harness drives "tk" in the teacher
// repo: build argv, capture stdout/stderr into buffers, return the exit
// code - no subprocess, no binary build.
type CLI struct {
	t          *testing.T
	Dir        string
	ConfigPath string
}

// NewCLI creates a CLI with a temp directory and a config file pointing
// the lattice at a fresh database inside it.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.jsonc")
	latticePath := filepath.Join(dir, "lattice.db")

	contents := `{"lattice": {"path": ` + strconv.Quote(latticePath) + `}}`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &CLI{t: t, Dir: dir, ConfigPath: configPath}
}

// Run executes toklat with the given args (not including the program name
// or --config) and returns stdout, stderr, and the exit code.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.run(nil, args)
}

// RunWithInput is like Run but feeds stdin, for commands (like train) that
// read from it when given no file arguments.
func (r *CLI) RunWithInput(stdin string, args ...string) (string, string, int) {
	return r.run(strings.NewReader(stdin), args)
}

func (r *CLI) run(stdin io.Reader, args []string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"toklat", "--config", r.ConfigPath}, args...)
	code := Run(stdin, &outBuf, &errBuf, fullArgs, nil)

	return outBuf.String(), errBuf.String(), code
}
