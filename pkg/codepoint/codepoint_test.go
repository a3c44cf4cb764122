package codepoint_test

import (
	"testing"

	"github.com/calvinalkan/lattice-tok/pkg/codepoint"
)

func TestEncode_RendersCodepointsAsUTF8(t *testing.T) {
	t.Parallel()

	units := []codepoint.Unit{codepoint.Of('a'), codepoint.Of('b'), codepoint.Of('é')}

	got := codepoint.Encode(units)
	want := "abé"

	if string(got) != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_SkipsSentinels(t *testing.T) {
	t.Parallel()

	units := []codepoint.Unit{codepoint.Open(), codepoint.Of('x'), codepoint.Close()}

	got := codepoint.Encode(units)
	if string(got) != "x" {
		t.Fatalf("Encode() = %q, want %q (sentinels skipped)", got, "x")
	}
}

func TestEncode_EmptyInput(t *testing.T) {
	t.Parallel()

	got := codepoint.Encode(nil)
	if len(got) != 0 {
		t.Fatalf("Encode(nil) = %q, want empty", got)
	}
}

func TestUnit_CodepointRoundTrip(t *testing.T) {
	t.Parallel()

	u := codepoint.Of(65)

	cp, ok := u.Codepoint()
	if !ok || cp != 65 {
		t.Fatalf("Codepoint() = (%d, %v), want (65, true)", cp, ok)
	}
}

func TestUnit_SentinelHasNoCodepoint(t *testing.T) {
	t.Parallel()

	if _, ok := codepoint.Open().Codepoint(); ok {
		t.Fatalf("Open().Codepoint() ok = true, want false")
	}

	if _, ok := codepoint.Close().Codepoint(); ok {
		t.Fatalf("Close().Codepoint() ok = true, want false")
	}
}

func TestHashFold_SentinelsAreOutOfCodepointRange(t *testing.T) {
	t.Parallel()

	if fold := codepoint.Open().HashFold(); fold >= codepoint.MinValid {
		t.Fatalf("Open().HashFold() = %d, want < %d", fold, codepoint.MinValid)
	}

	if fold := codepoint.Close().HashFold(); fold >= codepoint.MinValid {
		t.Fatalf("Close().HashFold() = %d, want < %d", fold, codepoint.MinValid)
	}
}

func TestValid_BoundsCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cp   int32
		want bool
	}{
		{-1, false},
		{0, true},
		{0x10FFFF, true},
		{0x110000, false},
	}

	for _, tc := range cases {
		if got := codepoint.Valid(tc.cp); got != tc.want {
			t.Fatalf("Valid(%#x) = %v, want %v", tc.cp, got, tc.want)
		}
	}
}

func TestFromCodepoints_WrapsEachValue(t *testing.T) {
	t.Parallel()

	units := codepoint.FromCodepoints([]int32{'h', 'i'})
	if len(units) != 2 {
		t.Fatalf("FromCodepoints() len = %d, want 2", len(units))
	}

	if cp, ok := units[0].Codepoint(); !ok || cp != 'h' {
		t.Fatalf("units[0].Codepoint() = (%d, %v), want (%d, true)", cp, ok, 'h')
	}
}
