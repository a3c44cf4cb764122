package cli

import (
	"fmt"
	"io"
)

// IO handles command input/output, plus actionable warnings that stay
// visible even when stdout is piped or truncated.
type IO struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	warnings []string
	started  bool
}

// NewIO creates a new IO instance.
func NewIO(in io.Reader, out, errOut io.Writer) *IO {
	return &IO{in: in, out: out, errOut: errOut}
}

// Warn records a warning for later display - e.g. a decode that fell back
// to its farthest-reachable position, or an ingest batch that hit a
// storage error partway through.
//
// Warnings are printed to stderr at both the START and END of output, so
// they survive truncation by `head`/`tail` or a scrollback buffer. Printing
// a warning does not suppress stdout output - partial results with a flagged
// issue are still useful.
func (o *IO) Warn(format string, a ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, a...))
}

// Println writes to stdout, flushing any pending warnings to stderr first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout, flushing any pending warnings
// to stderr first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes a line to stderr, unconditionally.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// In returns the command's input stream, or nil if none was supplied.
func (o *IO) In() io.Reader {
	return o.in
}

// Finish flushes any remaining warnings to stderr and returns the exit
// code: 1 if any warning was ever recorded, 0 otherwise.
func (o *IO) Finish() int {
	o.flushWarningsStart()

	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}
