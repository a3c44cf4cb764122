package keygen_test

import (
	"testing"

	"github.com/calvinalkan/lattice-tok/pkg/keygen"
)

func TestRecalculate_MatchesIteratedUpdate(t *testing.T) {
	t.Parallel()

	bufs := [][]int32{
		{},
		{'a'},
		{'a', 'b', 'c'},
		{0, 0x10FFFF, 'x', 'y', 'z', 1, 2, 3},
	}

	for _, buf := range bufs {
		serial := keygen.New()
		for _, cp := range buf {
			serial.Update(cp)
		}

		fresh := keygen.New()
		got := fresh.Recalculate(buf)

		if got != serial.Value() {
			t.Fatalf("Recalculate(%v) = %#x, want %#x", buf, got, serial.Value())
		}
	}
}

func TestReset_RestoresSeed(t *testing.T) {
	t.Parallel()

	k := keygen.New()
	k.Update('a')
	k.Update('b')
	k.Reset()

	if got := k.Value(); got != keygen.DefaultSeed {
		t.Fatalf("Value() after Reset = %#x, want seed %#x", got, keygen.DefaultSeed)
	}
}

func TestNewSeeded_UsesProvidedSeed(t *testing.T) {
	t.Parallel()

	k := keygen.NewSeeded(1234)
	if got := k.Value(); got != 1234 {
		t.Fatalf("Value() = %#x, want 1234", got)
	}
}

func TestUpdate_IsDeterministic(t *testing.T) {
	t.Parallel()

	a := keygen.New()
	b := keygen.New()

	for _, cp := range []int32{'f', 'o', 'o', ' ', 'b', 'a', 'r'} {
		if a.Update(cp) != b.Update(cp) {
			t.Fatalf("divergent hash after pushing %q", cp)
		}
	}
}
