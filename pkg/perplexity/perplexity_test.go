package perplexity_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
	"github.com/calvinalkan/lattice-tok/pkg/perplexity"
)

type fakeStore struct {
	tokens      map[uint64]*lattice.Token
	edges       map[[2]lattice.HexString]uint64
	predecessor map[lattice.HexString]uint32
	totalMass   uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:      make(map[uint64]*lattice.Token),
		edges:       make(map[[2]lattice.HexString]uint64),
		predecessor: make(map[lattice.HexString]uint32),
	}
}

func (f *fakeStore) addToken(id uint64, s string, strength uint64, degree uint32) lattice.HexString {
	hex := lattice.EscapeBytes([]byte(s))
	f.tokens[id] = &lattice.Token{ID: id, Bytes: hex, Strength: strength, Degree: degree}

	return hex
}

func (f *fakeStore) GetTokenByBytes(_ context.Context, hex lattice.HexString) (*lattice.Token, error) {
	for _, tok := range f.tokens {
		if tok.Bytes == hex {
			return tok, nil
		}
	}

	return nil, nil
}

func (f *fakeStore) GetTokenByID(_ context.Context, id uint64) (*lattice.Token, error) {
	return f.tokens[id], nil
}

func (f *fakeStore) GetEdge(_ context.Context, from, to lattice.HexString) (*lattice.EdgeInfo, error) {
	fromTok, err := f.GetTokenByBytes(context.Background(), from)
	if err != nil || fromTok == nil {
		return nil, err
	}

	weight := f.edges[[2]lattice.HexString{from, to}]

	return &lattice.EdgeInfo{Strength: fromTok.Strength, Degree: fromTok.Degree, Weight: weight}, nil
}

func (f *fakeStore) CountPredecessors(_ context.Context, to lattice.HexString) (uint32, error) {
	return f.predecessor[to], nil
}

func (f *fakeStore) TotalEdgeMass(_ context.Context) (uint64, error) {
	return f.totalMass, nil
}

func TestPerplexity_Compute_EmptyInput(t *testing.T) {
	store := newFakeStore()
	p := perplexity.New(store, perplexity.Options{})

	result, err := p.Compute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Transitions)
	assert.True(t, math.IsNaN(result.Perplexity))
}

func TestPerplexity_Compute_SingleIDHasNoTransitions(t *testing.T) {
	store := newFakeStore()
	store.addToken(1, "a", 5, 0)

	p := perplexity.New(store, perplexity.Options{})

	result, err := p.Compute(context.Background(), []uint64{1})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Transitions)
	assert.True(t, math.IsNaN(result.Perplexity))
}

func TestPerplexity_Compute_PerplexityNeverBelowOne(t *testing.T) {
	store := newFakeStore()
	a := store.addToken(1, "a", 10, 1)
	b := store.addToken(2, "b", 10, 1)
	store.edges[[2]lattice.HexString{a, b}] = 8
	store.predecessor[b] = 1
	store.totalMass = 8

	p := perplexity.New(store, perplexity.Options{})

	result, err := p.Compute(context.Background(), []uint64{1, 2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Transitions)
	assert.GreaterOrEqual(t, result.Perplexity, 1.0)
}

func TestPerplexity_Compute_UnseenFromTokenFallsBackToContinuationProb(t *testing.T) {
	store := newFakeStore()
	// fromID 1 is never registered: GetTokenByID returns nil, so c <= 0 and
	// the result must fall back to max(P_cont, floor).
	b := store.addToken(2, "b", 10, 1)
	store.predecessor[b] = 3
	store.totalMass = 6

	p := perplexity.New(store, perplexity.Options{})

	result, err := p.Compute(context.Background(), []uint64{1, 2})
	require.NoError(t, err)
	require.Equal(t, 1, result.Transitions)

	wantLogP := math.Log(3.0 / 6.0)
	assert.InDelta(t, wantLogP, result.AvgLogProb, 1e-9)
}

func TestPerplexity_Compute_AbsentEdgeUsesZeroWeight(t *testing.T) {
	store := newFakeStore()
	a := store.addToken(1, "a", 10, 2)
	b := store.addToken(2, "b", 10, 0)
	store.predecessor[b] = 1
	store.totalMass = 10
	// No edge registered between a and b: weight defaults to 0.

	p := perplexity.New(store, perplexity.Options{Discount: 0.75})

	result, err := p.Compute(context.Background(), []uint64{1, 2})
	require.NoError(t, err)

	c, tDeg, pCont := 10.0, 2.0, 1.0/10.0
	wantProb := math.Max(0, (0-0.75))/c + (0.75*tDeg/c)*pCont
	wantProb = math.Max(wantProb, 1e-12)

	assert.InDelta(t, math.Log(wantProb), result.AvgLogProb, 1e-9)
}
