// Package perplexity scores a token-id sequence against a [lattice.Lattice]
// using Kneser-Ney unigram continuation smoothing (spec §4.8).
package perplexity

import (
	"context"
	"math"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
)

// defaultDiscount is Kneser-Ney's absolute discount D (spec §4.8).
const defaultDiscount = 0.75

// probabilityFloor bounds every per-pair probability away from zero so
// log(0) never occurs (spec §4.8).
const probabilityFloor = 1e-12

// Store is the subset of *lattice.Lattice that Perplexity depends on.
type Store interface {
	GetTokenByBytes(ctx context.Context, hex lattice.HexString) (*lattice.Token, error)
	GetTokenByID(ctx context.Context, id uint64) (*lattice.Token, error)
	GetEdge(ctx context.Context, from, to lattice.HexString) (*lattice.EdgeInfo, error)
	CountPredecessors(ctx context.Context, to lattice.HexString) (uint32, error)
	TotalEdgeMass(ctx context.Context) (uint64, error)
}

// Options configures a [Perplexity] scorer.
type Options struct {
	// Discount is Kneser-Ney's absolute discount D. Zero uses the default
	// of 0.75.
	Discount float64
}

// Result is the outcome of [Perplexity.Compute].
type Result struct {
	Transitions int     // number of adjacent id pairs scored (len(ids)-1)
	AvgLogProb  float64 // ΣlogP / Transitions
	Perplexity  float64 // exp(-AvgLogProb)
}

// Perplexity scores token-id sequences against a [Store].
type Perplexity struct {
	store    Store
	discount float64
}

// New constructs a Perplexity scorer reading from store.
func New(store Store, opts Options) *Perplexity {
	discount := opts.Discount
	if discount == 0 {
		discount = defaultDiscount
	}

	return &Perplexity{store: store, discount: discount}
}

// Compute scores the adjacent-pair transitions in ids (spec §4.8). An empty
// or single-element ids yields zero transitions and a NaN perplexity - there
// is nothing to average.
func (p *Perplexity) Compute(ctx context.Context, ids []uint64) (*Result, error) {
	if len(ids) < 2 {
		return &Result{Transitions: 0, AvgLogProb: math.NaN(), Perplexity: math.NaN()}, nil
	}

	totalMass, err := p.store.TotalEdgeMass(ctx)
	if err != nil {
		return nil, err
	}

	g := totalMass
	if g == 0 {
		g = 1
	}

	var sumLogP float64

	for i := 0; i+1 < len(ids); i++ {
		logP, err := p.pairLogProb(ctx, ids[i], ids[i+1], g)
		if err != nil {
			return nil, err
		}

		sumLogP += logP
	}

	transitions := len(ids) - 1
	avgLogProb := sumLogP / float64(transitions)

	return &Result{
		Transitions: transitions,
		AvgLogProb:  avgLogProb,
		Perplexity:  math.Exp(-avgLogProb),
	}, nil
}

func (p *Perplexity) pairLogProb(ctx context.Context, fromID, toID uint64, g uint64) (float64, error) {
	fromTok, err := p.store.GetTokenByID(ctx, fromID)
	if err != nil {
		return 0, err
	}

	toTok, err := p.store.GetTokenByID(ctx, toID)
	if err != nil {
		return 0, err
	}

	var nTo uint32

	if toTok != nil {
		nTo, err = p.store.CountPredecessors(ctx, toTok.Bytes)
		if err != nil {
			return 0, err
		}
	}

	pCont := float64(nTo) / float64(g)

	if fromTok == nil || fromTok.Strength == 0 {
		return math.Log(math.Max(pCont, probabilityFloor)), nil
	}

	var weight uint64

	if toTok != nil {
		edge, err := p.store.GetEdge(ctx, fromTok.Bytes, toTok.Bytes)
		if err != nil {
			return 0, err
		}

		if edge != nil {
			weight = edge.Weight
		}
	}

	c := float64(fromTok.Strength)
	r := float64(weight)
	tDeg := float64(fromTok.Degree)

	discounted := r - p.discount
	if discounted < 0 {
		discounted = 0
	}

	prob := discounted/c + (p.discount*tDeg/c)*pCont
	prob = math.Max(prob, probabilityFloor)

	return math.Log(prob), nil
}
