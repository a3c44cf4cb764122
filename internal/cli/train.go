package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lattice-tok/pkg/codepoint"
	"github.com/calvinalkan/lattice-tok/pkg/lattice"
	"github.com/calvinalkan/lattice-tok/pkg/sequencer"
)

const (
	stackNone     = "none"
	stackBoundary = "boundary"
	stackMerge    = "merge"
)

var errUnknownStack = errors.New("--stack must be one of: none, boundary, merge")

// TrainCmd returns the train command: feed one or more files (or stdin, if
// no file is given) through the configured sequencer and ingest every
// emitted token into the lattice.
func TrainCmd(e *env) *Command {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.String("stack", stackNone, "Meta-sequencer to stack over the base IntSequencer: none|boundary|merge")

	return &Command{
		Flags: fs,
		Usage: "train [flags] <file>...",
		Short: "Feed text through the sequencer and ingest into the lattice",
		Long: "Reads each file in order (or stdin if none given), pushes its codepoints " +
			"through the sequencer, and buffers every emitted token for batch commit.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			stack, _ := fs.GetString("stack")

			return execTrain(ctx, o, e, stack, args)
		},
	}
}

func execTrain(ctx context.Context, o *IO, e *env, stack string, files []string) error {
	st, err := newStacker(e, stack)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		if in := o.In(); in != nil {
			if err := trainReader(ctx, e, st, in); err != nil {
				return err
			}
		}
	} else {
		for _, path := range files {
			f, err := os.Open(path) //nolint:gosec // caller-provided training corpus path
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}

			err = trainReader(ctx, e, st, f)
			_ = f.Close()

			if err != nil {
				return fmt.Errorf("train %q: %w", path, err)
			}
		}
	}

	for _, tok := range st.flush() {
		if err := bufferToken(ctx, e, tok); err != nil {
			return err
		}
	}

	if err := e.ingest.Flush(ctx); err != nil {
		return fmt.Errorf("flush ingest: %w", err)
	}

	o.Println("committed", e.ingest.Committed(), "tokens")

	return nil
}

func trainReader(ctx context.Context, e *env, st stacker, r io.Reader) error {
	scanner := bufio.NewReader(r)

	for {
		cp, _, err := scanner.ReadRune()
		if err != nil {
			break
		}

		if tok, ok := st.push(cp); ok {
			if err := bufferToken(ctx, e, tok); err != nil {
				return err
			}
		}
	}

	return nil
}

func bufferToken(ctx context.Context, e *env, tok []byte) error {
	if len(tok) == 0 {
		return nil
	}

	if err := e.ingest.Buffer(ctx, lattice.EscapeBytes(tok)); err != nil {
		return fmt.Errorf("buffer token: %w", err)
	}

	return nil
}

// stacker uniformly adapts whichever sequencer stack train was asked to
// use (flat IntSequencer, or one of its two meta-sequencer wrappers) to a
// single push/flush contract yielding byte tokens, regardless of which
// element type (codepoint.Unit, int32, or byte) that stage natively emits.
type stacker interface {
	push(cp rune) ([]byte, bool)
	flush() [][]byte
}

func newStacker(e *env, stack string) (stacker, error) {
	switch stack {
	case stackNone, "":
		seq, err := e.cfg.Sequencer.BuildSequencer()
		if err != nil {
			return nil, err
		}

		return flatStacker{seq: seq}, nil
	case stackBoundary:
		inner, outer, err := e.cfg.Sequencer.BuildInnerOuter()
		if err != nil {
			return nil, err
		}

		return boundaryStacker{seq: sequencer.NewBoundarySequencer(inner, outer)}, nil
	case stackMerge:
		inner, outer, err := e.cfg.Sequencer.BuildInnerOuter()
		if err != nil {
			return nil, err
		}

		return mergeStacker{seq: sequencer.NewMergeSequencer(inner, outer)}, nil
	default:
		return nil, errUnknownStack
	}
}

type flatStacker struct {
	seq *sequencer.IntSequencer
}

func (s flatStacker) push(cp rune) ([]byte, bool) {
	emitted, ok := s.seq.Push(codepoint.Of(int32(cp)))
	if !ok {
		return nil, false
	}

	return codepoint.Encode(emitted), true
}

func (s flatStacker) flush() [][]byte {
	final := codepoint.Encode(s.seq.Flush())
	if len(final) == 0 {
		return nil
	}

	return [][]byte{final}
}

type boundaryStacker struct {
	seq *sequencer.BoundarySequencer
}

func (s boundaryStacker) push(cp rune) ([]byte, bool) {
	emitted, ok := s.seq.Push(int32(cp))
	if !ok {
		return nil, false
	}

	return codepoint.Encode(codepoint.FromCodepoints(emitted)), true
}

func (s boundaryStacker) flush() [][]byte {
	var out [][]byte

	for _, tok := range s.seq.Flush() {
		out = append(out, codepoint.Encode(codepoint.FromCodepoints(tok)))
	}

	return out
}

type mergeStacker struct {
	seq *sequencer.MergeSequencer
}

func (s mergeStacker) push(cp rune) ([]byte, bool) {
	return s.seq.Push(int32(cp))
}

func (s mergeStacker) flush() [][]byte {
	return s.seq.Flush()
}
