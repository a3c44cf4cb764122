package lattice_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lattice-tok/pkg/lattice"
)

func openTestLattice(t *testing.T) *lattice.Lattice {
	t.Helper()

	dir := t.TempDir()

	l, err := lattice.Open(context.Background(), lattice.Options{
		Path: filepath.Join(dir, "lattice.db"),
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = l.Close() })

	return l
}

func hex(s string) lattice.HexString {
	return lattice.EscapeBytes([]byte(s))
}

func TestLattice_GetTokenByBytes_AbsentIsNilNotError(t *testing.T) {
	l := openTestLattice(t)

	tok, err := l.GetTokenByBytes(context.Background(), hex("missing"))
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestLattice_BatchIngest_AggregatesDuplicatesWithinBatch(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	err := l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{
			{Bytes: hex("a")},
			{Bytes: hex("a")},
			{Bytes: hex("b")},
		},
		[]lattice.EdgeOccurrence{
			{From: hex("a"), To: hex("b"), Weight: 1},
			{From: hex("a"), To: hex("b"), Weight: 2},
		},
	)
	require.NoError(t, err)

	tokA, err := l.GetTokenByBytes(ctx, hex("a"))
	require.NoError(t, err)
	require.NotNil(t, tokA)
	assert.Equal(t, uint64(2), tokA.Strength)

	edge, err := l.GetEdge(ctx, hex("a"), hex("b"))
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, uint64(3), edge.Weight)
}

func TestLattice_BatchIngest_AccumulatesAcrossBatches(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	ingest := func() {
		err := l.BatchIngest(ctx,
			[]lattice.TokenOccurrence{{Bytes: hex("a")}},
			nil,
		)
		require.NoError(t, err)
	}

	ingest()
	ingest()
	ingest()

	tok, err := l.GetTokenByBytes(ctx, hex("a"))
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, uint64(3), tok.Strength)
}

func TestLattice_GetEdge_MissingEdgeYieldsZeroWeightNotNil(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{{Bytes: hex("a")}, {Bytes: hex("b")}},
		nil,
	))

	edge, err := l.GetEdge(ctx, hex("a"), hex("b"))
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, uint64(0), edge.Weight)
}

func TestLattice_GetEdge_MissingFromTokenYieldsNil(t *testing.T) {
	l := openTestLattice(t)

	edge, err := l.GetEdge(context.Background(), hex("ghost"), hex("b"))
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestLattice_PrefixSearch_OrdersLongestFirst(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{
			{Bytes: hex("t")},
			{Bytes: hex("to")},
			{Bytes: hex("tok")},
			{Bytes: hex("x")},
		},
		nil,
	))

	matches, err := l.PrefixSearch(ctx, hex("tok"))
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, hex("tok"), matches[0])
	assert.Equal(t, hex("to"), matches[1])
	assert.Equal(t, hex("t"), matches[2])
}

func TestLattice_RefinedTransitionsFrom_RanksByPMIThenWeight(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	// "a" strongly prefers "rare" (low in-strength elsewhere) over "common"
	// (high in-strength from many other sources), even though the raw
	// weight to "common" is larger.
	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{
			{Bytes: hex("a")}, {Bytes: hex("a")}, {Bytes: hex("a")}, {Bytes: hex("a")}, {Bytes: hex("a")},
			{Bytes: hex("z")}, {Bytes: hex("z")}, {Bytes: hex("z")}, {Bytes: hex("z")}, {Bytes: hex("z")},
			{Bytes: hex("rare")},
			{Bytes: hex("common")},
		},
		[]lattice.EdgeOccurrence{
			{From: hex("a"), To: hex("rare"), Weight: 1},
			{From: hex("a"), To: hex("common"), Weight: 4},
			{From: hex("z"), To: hex("common"), Weight: 20},
		},
	))

	ranked, err := l.RefinedTransitionsFrom(ctx, hex("a"))
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, hex("rare"), ranked[0].Bytes)
	assert.Equal(t, hex("common"), ranked[1].Bytes)
}

func TestLattice_RefinedTransitionsFrom_TruncatesToTopEight(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	tokens := []lattice.TokenOccurrence{{Bytes: hex("src")}}
	edges := make([]lattice.EdgeOccurrence, 0, 10)

	for i := 0; i < 10; i++ {
		to := hex(string(rune('a' + i)))
		tokens = append(tokens, lattice.TokenOccurrence{Bytes: to})
		edges = append(edges, lattice.EdgeOccurrence{From: hex("src"), To: to, Weight: uint64(i + 1)})
	}

	require.NoError(t, l.BatchIngest(ctx, tokens, edges))

	ranked, err := l.RefinedTransitionsFrom(ctx, hex("src"))
	require.NoError(t, err)
	assert.Len(t, ranked, 8)
}

func TestLattice_UpdateTokenDegrees_CountsDistinctPositiveSuccessors(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{{Bytes: hex("a")}, {Bytes: hex("b")}, {Bytes: hex("c")}},
		[]lattice.EdgeOccurrence{
			{From: hex("a"), To: hex("b"), Weight: 1},
			{From: hex("a"), To: hex("c"), Weight: 1},
		},
	))

	require.NoError(t, l.UpdateTokenDegrees(ctx))

	tok, err := l.GetTokenByBytes(ctx, hex("a"))
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, uint32(2), tok.Degree)
}

func TestLattice_CountPredecessors(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{{Bytes: hex("a")}, {Bytes: hex("b")}, {Bytes: hex("c")}},
		[]lattice.EdgeOccurrence{
			{From: hex("a"), To: hex("c"), Weight: 1},
			{From: hex("b"), To: hex("c"), Weight: 1},
		},
	))

	count, err := l.CountPredecessors(ctx, hex("c"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)
}

func TestLattice_Stats(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{{Bytes: hex("a")}, {Bytes: hex("b")}},
		[]lattice.EdgeOccurrence{{From: hex("a"), To: hex("b"), Weight: 3}},
	))

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TokenCount)
	assert.Equal(t, uint64(1), stats.EdgeCount)
	assert.Equal(t, uint64(3), stats.TotalEdgeWeight)
}

func TestLattice_ExportSnapshot_MatchesExpectedShape(t *testing.T) {
	l := openTestLattice(t)
	ctx := context.Background()

	require.NoError(t, l.BatchIngest(ctx,
		[]lattice.TokenOccurrence{{Bytes: hex("a")}, {Bytes: hex("b")}},
		[]lattice.EdgeOccurrence{{From: hex("a"), To: hex("b"), Weight: 1}},
	))
	require.NoError(t, l.UpdateTokenDegrees(ctx))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, l.ExportSnapshot(ctx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got lattice.Snapshot
	require.NoError(t, json.Unmarshal(data, &got))

	want := lattice.Snapshot{
		Tokens: []lattice.Token{
			{Bytes: hex("a"), Strength: 1, Degree: 1},
			{Bytes: hex("b"), Strength: 1, Degree: 0},
		},
		Edges: []lattice.Edge{
			{From: hex("a"), To: hex("b"), Weight: 1},
		},
		Stats: lattice.Stats{
			TokenCount:      2,
			EdgeCount:       1,
			TotalStrength:   2,
			TotalEdgeWeight: 1,
			MaxStrength:     1,
			MaxDegree:       1,
			StrengthP50:     1,
			StrengthP90:     1,
			StrengthP99:     1,
		},
	}

	// Token.ID is DB-assigned and not part of the documented snapshot
	// contract; everything else must match exactly.
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b lattice.Token) bool { return a.Bytes < b.Bytes }),
		cmpopts.SortSlices(func(a, b lattice.Edge) bool { return a.From+a.To < b.From+b.To }),
		cmpopts.IgnoreFields(lattice.Token{}, "ID")); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLattice_SecondOpenOnSamePathFailsWhileFirstIsOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lattice.db")

	first, err := lattice.Open(context.Background(), lattice.Options{Path: path})
	require.NoError(t, err)

	defer func() { _ = first.Close() }()

	_, err = lattice.Open(context.Background(), lattice.Options{Path: path})
	assert.Error(t, err)
}
