package gate_test

import (
	"testing"

	"github.com/calvinalkan/lattice-tok/pkg/gate"
)

func TestMDLGate_FirstObservationFails(t *testing.T) {
	t.Parallel()

	g := gate.NewMDLGate(gate.DefaultMDLConfig())

	if g.Evaluate(42, 7) {
		t.Fatalf("Evaluate() on first observation = true, want false (no history to support passing)")
	}
}

func TestMDLGate_SoleSuccessorNeverPasses(t *testing.T) {
	t.Parallel()

	g := gate.NewMDLGate(gate.DefaultMDLConfig())

	// With a single successor Z is 1 and p = (n+α)/(n+α) = 1 on every call,
	// so p never falls below the running mean and the surprise test never
	// holds, however often the transition repeats.
	for i := 0; i < 200; i++ {
		if g.Evaluate(42, 7) {
			t.Fatalf("Evaluate() passed on repeat %d of a sole-successor transition, want false every time", i)
		}
	}
}

func TestMDLGate_Reset_ClearsLearnedState(t *testing.T) {
	t.Parallel()

	g := gate.NewMDLGate(gate.DefaultMDLConfig())

	for i := 0; i < 200; i++ {
		g.Evaluate(42, 7)
	}

	g.Reset()

	if g.Evaluate(42, 7) {
		t.Fatalf("Evaluate() after Reset = true, want false (state should be forgotten)")
	}
}

func TestMDLGate_DistinctSuccessorsRaiseDegree(t *testing.T) {
	t.Parallel()

	g := gate.NewMDLGate(gate.DefaultMDLConfig())

	// Parent 7 gets two distinct successors, 42 nine times and 43 once, so
	// its degree Z is 2 and p(7->42) = (9+0.1)/(10+0.2) ≈ 0.89, above the
	// entropy floor 2^-0.8 ≈ 0.57. A long run of parent 8's sole successor
	// (p = 1) then lifts the running mean close to 1 with almost no
	// variance, so the next 7->42 lies below the mean by more than c
	// standard deviations and passes.
	for i := 0; i < 9; i++ {
		g.Evaluate(42, 7)
	}

	g.Evaluate(43, 7)

	for i := 0; i < 200; i++ {
		g.Evaluate(50, 8)
	}

	if !g.Evaluate(42, 7) {
		t.Fatalf("Evaluate() = false for a likely sibling transition below the running mean, want true")
	}
}

func TestMDLGate_CapacityExceeded_InitiallyFalse(t *testing.T) {
	t.Parallel()

	g := gate.NewMDLGate(gate.DefaultMDLConfig())

	if g.CapacityExceeded() {
		t.Fatalf("CapacityExceeded() = true before any table growth pressure")
	}
}

var _ gate.Gate = (*gate.MDLGate)(nil)
