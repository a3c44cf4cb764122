// Command toklat-bench generates synthetic text corpora and measures the
// tokenizer pipeline's training and decode throughput against them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// config holds all benchmark configuration.
type config struct {
	Root      string
	OutDir    string
	Counts    []int
	VocabSize int
	DocWords  int
	Seed      int64
}

func main() {
	cfg := parseFlags()

	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "error: create output dir: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.Root, "root", filepath.Join(os.TempDir(), "toklat-bench"), "Corpus data root directory")
	flag.StringVar(&cfg.OutDir, "out", filepath.Join(".", ".benchmarks"), "Output directory for reports")
	flag.IntVar(&cfg.VocabSize, "vocab", 2000, "Size of the synthetic word vocabulary")
	flag.IntVar(&cfg.DocWords, "doc-words", 200, "Words per generated document")

	var seed int64

	flag.Int64Var(&seed, "seed", 1, "Seed for deterministic corpus generation")

	countsStr := flag.String("counts", "100,5000,50000", "Comma-separated list of document counts to benchmark")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: toklat-bench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Generates synthetic corpora and times training/decode throughput.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg.Seed = seed

	for countStr := range strings.SplitSeq(*countsStr, ",") {
		countStr = strings.TrimSpace(countStr)
		if countStr == "" {
			continue
		}

		count, err := strconv.Atoi(countStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid count %q: %v\n", countStr, err)
			os.Exit(1)
		}

		cfg.Counts = append(cfg.Counts, count)
	}

	if len(cfg.Counts) == 0 {
		fmt.Fprint(os.Stderr, "no counts specified\n")
		os.Exit(1)
	}

	return cfg
}

func systemInfo() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Run %s\n\n", time.Now().UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- %s/%s, %d CPUs\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()))
	sb.WriteString(fmt.Sprintf("- go runtime: %s\n\n", runtime.Version()))

	return sb.String()
}
