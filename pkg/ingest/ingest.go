// Package ingest buffers emitted tokens and commits them to a [lattice.Lattice]
// in batches (spec §4.6).
package ingest

import (
	"context"
	"fmt"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
)

// defaultBatchSize is the buffer size at which buffer(hex) auto-commits
// (spec §4.6).
const defaultBatchSize = 1000

// Store is the subset of *lattice.Lattice that Ingest depends on.
type Store interface {
	BatchIngest(ctx context.Context, tokens []lattice.TokenOccurrence, edges []lattice.EdgeOccurrence) error
	UpdateTokenDegrees(ctx context.Context) error
}

// Options configures an [Ingest].
type Options struct {
	// BatchSize is the commit threshold. Zero uses the default of 1000.
	BatchSize int
	// LogProgress, if set, is invoked with the cumulative committed count
	// after every successful commit. Callers that want it printed wire
	// their own fmt.Fprintf to stderr here (config.Ingest.LogProgress just
	// toggles whether the CLI passes a non-nil callback).
	LogProgress func(committedTotal uint64)
}

// Ingest buffers a stream of tokens and commits them to a [Store] in batches.
//
// Ordering guarantee: adjacency pairs within a committed batch are formed
// strictly from that batch's tokens in arrival order. Known, documented edge
// case: the adjacency between the last token of one batch and the first
// token of the next is never recorded - Commit only looks at pairs within
// the slice it drains. This is not a bug to be fixed; it is the documented
// contract (spec §4.6, §8 test 6).
type Ingest struct {
	store      Store
	batchSize  int
	onProgress func(committedTotal uint64)

	buffer []lattice.HexString

	bufferedTotal  uint64
	committedTotal uint64
}

// New constructs an Ingest writing to store.
func New(store Store, opts Options) *Ingest {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Ingest{
		store:      store,
		batchSize:  batchSize,
		onProgress: opts.LogProgress,
	}
}

// Buffer appends hex to the buffer, committing a full batch if the buffer
// has reached batchSize (spec §4.6's buffer(hex)).
func (i *Ingest) Buffer(ctx context.Context, hex lattice.HexString) error {
	i.buffer = append(i.buffer, hex)
	i.bufferedTotal++

	if len(i.buffer) >= i.batchSize {
		return i.commit(ctx, i.batchSize)
	}

	return nil
}

// Flush commits every remaining buffered token, then recomputes token
// degrees (spec §4.6's flush()).
func (i *Ingest) Flush(ctx context.Context) error {
	if len(i.buffer) > 0 {
		if err := i.commit(ctx, len(i.buffer)); err != nil {
			return err
		}
	}

	return i.store.UpdateTokenDegrees(ctx)
}

// commit drains the first n tokens from the buffer and ingests them as one
// batch (spec §4.6's commit(n)).
func (i *Ingest) commit(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	if n > len(i.buffer) {
		n = len(i.buffer)
	}

	batch := i.buffer[:n]

	tokens := make([]lattice.TokenOccurrence, len(batch))
	for idx, hex := range batch {
		tokens[idx] = lattice.TokenOccurrence{Bytes: hex}
	}

	edgeWeights := make(map[edgeKey]uint64)

	for idx := 0; idx+1 < len(batch); idx++ {
		edgeWeights[edgeKey{from: batch[idx], to: batch[idx+1]}]++
	}

	edges := make([]lattice.EdgeOccurrence, 0, len(edgeWeights))
	for key, weight := range edgeWeights {
		edges = append(edges, lattice.EdgeOccurrence{From: key.from, To: key.to, Weight: weight})
	}

	if err := i.store.BatchIngest(ctx, tokens, edges); err != nil {
		return fmt.Errorf("commit batch of %d: %w", n, err)
	}

	remaining := make([]lattice.HexString, len(i.buffer)-n)
	copy(remaining, i.buffer[n:])
	i.buffer = remaining

	i.committedTotal += uint64(n)

	if i.onProgress != nil {
		i.onProgress(i.committedTotal)
	}

	return nil
}

type edgeKey struct {
	from lattice.HexString
	to   lattice.HexString
}

// Buffered returns the total number of tokens ever passed to Buffer.
func (i *Ingest) Buffered() uint64 { return i.bufferedTotal }

// Committed returns the total number of tokens committed so far.
func (i *Ingest) Committed() uint64 { return i.committedTotal }

// Pending returns the number of tokens currently sitting in the buffer,
// not yet committed.
func (i *Ingest) Pending() int { return len(i.buffer) }
