package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

var syllables = []string{
	"ka", "ri", "mo", "lu", "sen", "ta", "vi", "bo", "ne", "du",
	"zor", "ple", "qui", "fan", "gos", "hel", "ith", "jun", "kov", "wex",
}

// vocabulary builds a deterministic list of size synthetic "words" by
// concatenating 1-3 syllables, so the corpus has real repeated substrings
// for the LZ and MDL gates to find, the same way tk-seed deterministically
// varies status/priority/type per ticket index rather than drawing from an
// external corpus.
func vocabulary(rng *rand.Rand, size int) []string {
	words := make([]string, size)

	for i := range words {
		n := 1 + rng.IntN(3)

		var sb strings.Builder
		for range n {
			sb.WriteString(syllables[rng.IntN(len(syllables))])
		}

		words[i] = sb.String()
	}

	return words
}

// seedCorpus writes docCount documents of roughly docWords words each into
// dir, drawn from a Zipf-distributed sample of a vocabSize-word vocabulary,
// using numWorkers goroutines fanned out over a buffered channel (tk-seed's
// worker-pool pattern, adapted from writing ticket files to writing corpus
// documents).
func seedCorpus(dir string, docCount, docWords, vocabSize int, seed int64) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear corpus dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	vocab := vocabulary(rand.New(rand.NewPCG(uint64(seed), 0)), vocabSize) //nolint:gosec // deterministic synthetic corpus, not security-sensitive

	numWorkers := runtime.NumCPU()
	docs := make(chan int, numWorkers*2)

	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)

		go func(workerSeed int64) {
			defer wg.Done()

			rng := rand.New(rand.NewPCG(uint64(seed), uint64(workerSeed))) //nolint:gosec // deterministic bench data

			for i := range docs {
				writeDoc(dir, i, docWords, vocab, rng)
			}
		}(int64(w))
	}

	for i := 0; i < docCount; i++ {
		docs <- i
	}

	close(docs)
	wg.Wait()

	return nil
}

func writeDoc(dir string, i, docWords int, vocab []string, rng *rand.Rand) {
	var sb strings.Builder

	for w := 0; w < docWords; w++ {
		// Zipf-ish: an exponential draw biases heavily toward low indices,
		// i.e. a small set of frequent words, the shape real text has.
		idx := int(rng.ExpFloat64() * float64(len(vocab)) / 8)
		if idx >= len(vocab) {
			idx = idx % len(vocab)
		}

		sb.WriteString(vocab[idx])
		sb.WriteByte(' ')
	}

	path := filepath.Join(dir, "doc"+strconv.Itoa(i)+".txt")
	_ = os.WriteFile(path, []byte(sb.String()), 0o600)
}
