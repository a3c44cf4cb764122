package gate_test

import (
	"testing"

	"github.com/calvinalkan/lattice-tok/pkg/gate"
)

func TestLZGate_FirstSightingFails(t *testing.T) {
	t.Parallel()

	g := gate.NewLZGate(gate.DefaultLZConfig())

	if g.Evaluate(42, 0) {
		t.Fatalf("Evaluate() on first sighting = true, want false (force emission)")
	}
}

func TestLZGate_SecondSightingPasses(t *testing.T) {
	t.Parallel()

	g := gate.NewLZGate(gate.DefaultLZConfig())

	g.Evaluate(42, 0)

	if !g.Evaluate(42, 0) {
		t.Fatalf("Evaluate() on second sighting = false, want true (key recurred)")
	}
}

func TestLZGate_DistinctKeysEachFailOnce(t *testing.T) {
	t.Parallel()

	g := gate.NewLZGate(gate.DefaultLZConfig())

	if g.Evaluate(1, 0) {
		t.Fatalf("Evaluate(1) = true, want false")
	}

	if g.Evaluate(2, 0) {
		t.Fatalf("Evaluate(2) = true, want false")
	}

	if !g.Evaluate(1, 0) {
		t.Fatalf("Evaluate(1) second time = false, want true")
	}
}

func TestLZGate_Reset_ForgetsSeenKeys(t *testing.T) {
	t.Parallel()

	g := gate.NewLZGate(gate.DefaultLZConfig())

	g.Evaluate(42, 0)
	g.Reset()

	if g.Evaluate(42, 0) {
		t.Fatalf("Evaluate() after Reset = true, want false (history should be forgotten)")
	}
}

var _ gate.Gate = (*gate.LZGate)(nil)
