// Package tokenizer implements the Viterbi token decoder (spec §4.7): given
// arbitrary text, it finds the maximum-log-score segmentation into known
// [lattice.Token]s, preferring transitions the Lattice has actually observed.
package tokenizer

import (
	"context"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
)

// defaultBeta and defaultGamma are the node-potential weights (spec §4.7).
const (
	defaultBeta  = 0.15
	defaultGamma = 0.1
)

// unseenTransitionFloor is the logP assigned to a candidate token whose
// transition from the previous token was never observed among its refined
// transitions (spec §4.7's `ln(1e-9)` floor).
const unseenTransitionFloor = 1e-9

// candidateCacheWindow bounds how many leading codepoints key the
// per-position decode-candidate cache (spec §4.7 step 3: "first 24 cp").
const candidateCacheWindow = 24

// Store is the subset of *lattice.Lattice the Tokenizer depends on.
type Store interface {
	PrefixSearch(ctx context.Context, escaped lattice.HexString) ([]lattice.HexString, error)
	RefinedTransitionsFrom(ctx context.Context, from lattice.HexString) ([]lattice.RefinedTransition, error)
	GetTokenByBytes(ctx context.Context, hex lattice.HexString) (*lattice.Token, error)
	GetTokenByID(ctx context.Context, id uint64) (*lattice.Token, error)
	DecodeCandidates(position int, codepointPrefix string, compute func() []lattice.HexString) []lattice.HexString
}

// Options configures a [Tokenizer].
type Options struct {
	// Beta weights a candidate token's learned strength in its node
	// potential. Zero uses the default of 0.15.
	Beta float64
	// Gamma weights a candidate token's outdegree (branching penalty) in
	// its node potential. Zero uses the default of 0.1.
	Gamma float64
}

// Tokenizer decodes text into token sequences against a [Store].
type Tokenizer struct {
	store Store
	beta  float64
	gamma float64
}

// New constructs a Tokenizer reading from store.
func New(store Store, opts Options) *Tokenizer {
	beta := opts.Beta
	if beta == 0 {
		beta = defaultBeta
	}

	gamma := opts.Gamma
	if gamma == 0 {
		gamma = defaultGamma
	}

	return &Tokenizer{store: store, beta: beta, gamma: gamma}
}
