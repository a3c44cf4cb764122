package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

var errTextRequired = errors.New("decode: a text argument is required")

// DecodeCmd returns the decode command: Viterbi-segment a piece of text
// into lattice token ids.
func DecodeCmd(e *env) *Command {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.Bool("ids", false, "Print only the numeric token ids")
	fs.Bool("perplexity", false, "Also compute and print the sequence's perplexity")

	return &Command{
		Flags: fs,
		Usage: "decode [flags] <text>",
		Short: "Segment text into token ids via Viterbi decode",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			idsOnly, _ := fs.GetBool("ids")
			withPerplexity, _ := fs.GetBool("perplexity")

			return execDecode(ctx, o, e, strings.Join(args, " "), idsOnly, withPerplexity)
		},
	}
}

func execDecode(ctx context.Context, o *IO, e *env, text string, idsOnly, withPerplexity bool) error {
	if text == "" {
		return errTextRequired
	}

	ids, err := e.tokenizer.Decode(ctx, text)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if idsOnly {
		o.Println(joinIDs(ids))
	} else {
		strs, err := e.tokenizer.ToStrings(ctx, ids)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}

		o.Println(joinIDs(ids) + "\t" + strings.Join(quoteAll(strs), " "))
	}

	if withPerplexity {
		result, err := e.perplexity.Compute(ctx, ids)
		if err != nil {
			return fmt.Errorf("perplexity: %w", err)
		}

		o.Printf("perplexity=%.6f avg_log_prob=%.6f transitions=%d\n",
			result.Perplexity, result.AvgLogProb, result.Transitions)
	}

	return nil
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}

	return strings.Join(parts, " ")
}

func quoteAll(strs []string) []string {
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = strconv.Quote(s)
	}

	return out
}
