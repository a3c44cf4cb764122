package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cfgpkg "github.com/calvinalkan/lattice-tok/internal/config"
	"github.com/calvinalkan/lattice-tok/pkg/codepoint"
	"github.com/calvinalkan/lattice-tok/pkg/ingest"
	"github.com/calvinalkan/lattice-tok/pkg/lattice"
	"github.com/calvinalkan/lattice-tok/pkg/tokenizer"
)

// runResult holds the timing for one corpus size.
type runResult struct {
	docCount   int
	codepoints int64
	tokens     int64
	trainTime  time.Duration
	decodeTime time.Duration
	decodeRuns int
}

// run generates a corpus for each of cfg.Counts, times feeding it through a
// fresh lattice, and writes a single markdown report covering every size -
// the in-process analogue of tk-bench's hyperfine-subprocess runs (see
// DESIGN.md for why a subprocess harness isn't used here).
func run(ctx context.Context, cfg *config) error {
	var results []runResult

	for _, count := range cfg.Counts {
		res, err := benchOne(ctx, cfg, count)
		if err != nil {
			return fmt.Errorf("bench %d docs: %w", count, err)
		}

		results = append(results, res)
	}

	return writeReport(cfg, results)
}

func benchOne(ctx context.Context, cfg *config, docCount int) (runResult, error) {
	corpusDir := filepath.Join(cfg.Root, fmt.Sprintf("corpus-%d", docCount))
	if err := seedCorpus(corpusDir, docCount, cfg.DocWords, cfg.VocabSize, cfg.Seed); err != nil {
		return runResult{}, fmt.Errorf("seed corpus: %w", err)
	}

	dbPath := filepath.Join(cfg.Root, fmt.Sprintf("lattice-%d.db", docCount))
	_ = os.Remove(dbPath)

	lat, err := lattice.Open(ctx, lattice.Options{Path: dbPath})
	if err != nil {
		return runResult{}, fmt.Errorf("open lattice: %w", err)
	}
	defer lat.Close() //nolint:errcheck // best-effort cleanup at bench end

	seq, err := cfgpkg.Default().Sequencer.BuildSequencer()
	if err != nil {
		return runResult{}, fmt.Errorf("build sequencer: %w", err)
	}

	ing := ingest.New(lat, ingest.Options{BatchSize: 1000})

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return runResult{}, fmt.Errorf("read corpus dir: %w", err)
	}

	var codepoints, tokens int64

	start := time.Now()

	for _, entry := range entries {
		n, t, err := trainFile(ctx, seq, ing, filepath.Join(corpusDir, entry.Name()))
		if err != nil {
			return runResult{}, err
		}

		codepoints += n
		tokens += t
	}

	if final := seq.Flush(); len(final) > 0 {
		tok := codepoint.Encode(final)
		if len(tok) > 0 {
			if err := ing.Buffer(ctx, lattice.EscapeBytes(tok)); err != nil {
				return runResult{}, fmt.Errorf("buffer final token: %w", err)
			}

			tokens++
		}
	}

	if err := ing.Flush(ctx); err != nil {
		return runResult{}, fmt.Errorf("flush ingest: %w", err)
	}

	trainElapsed := time.Since(start)

	sample, err := sampleText(corpusDir)
	if err != nil {
		return runResult{}, fmt.Errorf("read sample text: %w", err)
	}

	decodeElapsed, decodeRuns := benchDecode(ctx, lat, sample)

	return runResult{
		docCount:   docCount,
		codepoints: codepoints,
		tokens:     tokens,
		trainTime:  trainElapsed,
		decodeTime: decodeElapsed,
		decodeRuns: decodeRuns,
	}, nil
}

func trainFile(ctx context.Context, seq interface {
	Push(codepoint.Unit) ([]codepoint.Unit, bool)
}, ing *ingest.Ingest, path string) (codepoints, tokens int64, err error) {
	f, err := os.Open(path) //nolint:gosec // internally generated corpus path
	if err != nil {
		return 0, 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	r := bufio.NewReader(f)

	for {
		cp, _, readErr := r.ReadRune()
		if readErr != nil {
			break
		}

		codepoints++

		emitted, ok := seq.Push(codepoint.Of(int32(cp)))
		if !ok {
			continue
		}

		tok := codepoint.Encode(emitted)
		if len(tok) == 0 {
			continue
		}

		if err := ing.Buffer(ctx, lattice.EscapeBytes(tok)); err != nil {
			return codepoints, tokens, fmt.Errorf("buffer token: %w", err)
		}

		tokens++
	}

	return codepoints, tokens, nil
}

// sampleText reads the first corpus document to use as decode input, giving
// the tokenizer real vocabulary it just trained on rather than arbitrary
// text.
func sampleText(corpusDir string) (string, error) {
	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		return "", err
	}

	if len(entries) == 0 {
		return "", nil
	}

	data, err := os.ReadFile(filepath.Join(corpusDir, entries[0].Name())) //nolint:gosec // internally generated corpus path
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// benchDecode times repeated Viterbi decodes of sample against the lattice
// just trained, giving a rough read-path throughput number alongside the
// write-path one.
func benchDecode(ctx context.Context, lat *lattice.Lattice, sample string) (time.Duration, int) {
	const runs = 50

	if sample == "" {
		return 0, 0
	}

	tok := tokenizer.New(lat, tokenizer.Options{})

	start := time.Now()

	for range runs {
		_, _ = tok.Decode(ctx, sample)
	}

	return time.Since(start), runs
}
