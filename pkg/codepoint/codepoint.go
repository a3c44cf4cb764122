// Package codepoint provides the tagged codepoint-or-sentinel type the
// boundary sequencer uses to mark inner-token boundaries, replacing the
// reserved-negative-integer trick from the source system with a type that
// cannot collide with a real codepoint by construction.
package codepoint

import "unicode/utf8"

// Kind distinguishes a real Unicode codepoint from a boundary sentinel.
type Kind uint8

const (
	// KindCodepoint marks a Value holding a real Unicode scalar value.
	KindCodepoint Kind = iota
	// KindOpen marks the start of an inner token fed through an outer sequencer.
	KindOpen
	// KindClose marks the end of an inner token fed through an outer sequencer.
	KindClose
)

// Unit is a single item on a stacked sequencer's input stream: either a real
// codepoint, a boundary sentinel, or (inside the merge sequencer) a
// length-tagged packed integer standing in for a short byte run. The value
// is carried at full int64 width so a merge sequencer's packed tokens never
// lose bits to a narrower field; only KindCodepoint values are ever expected
// to fit an int32.
type Unit struct {
	kind  Kind
	value int64 // meaningful only when kind == KindCodepoint
}

// Of wraps a real codepoint.
func Of(cp int32) Unit {
	return Unit{kind: KindCodepoint, value: int64(cp)}
}

// OfRaw wraps an arbitrary integer payload that is not itself a Unicode
// codepoint - used by the merge sequencer for its length-tagged packed byte
// runs, which can exceed the codepoint range.
func OfRaw(v int64) Unit {
	return Unit{kind: KindCodepoint, value: v}
}

// Open returns the sentinel marking the start of an inner token.
func Open() Unit {
	return Unit{kind: KindOpen}
}

// Close returns the sentinel marking the end of an inner token.
func Close() Unit {
	return Unit{kind: KindClose}
}

// Kind reports which variant u holds.
func (u Unit) Kind() Kind {
	return u.kind
}

// IsCodepoint reports whether u holds a real codepoint (or a raw payload;
// the two share a representation and are distinguished only by how the
// caller chose to construct the Unit).
func (u Unit) IsCodepoint() bool {
	return u.kind == KindCodepoint
}

// Codepoint returns u's value truncated to a Unicode scalar value and true,
// or (0, false) if u is a sentinel. Callers holding a merge sequencer's raw
// packed payloads must use [Unit.Raw] instead, since those can exceed the
// int32 range this method assumes.
func (u Unit) Codepoint() (int32, bool) {
	if u.kind != KindCodepoint {
		return 0, false
	}

	return int32(u.value), true
}

// Raw returns u's full-width underlying value regardless of kind, with
// sentinels mapped to the reserved fold constants used by [Unit.HashFold].
// Used by the merge sequencer to recover an exact packed payload that would
// not survive a round trip through [Unit.Codepoint].
func (u Unit) Raw() int64 {
	if u.kind == KindCodepoint {
		return u.value
	}

	return int64(u.HashFold())
}

// HashFold returns a value suitable for folding into a rolling hash: the
// codepoint (or raw payload) itself, or a reserved out-of-range marker for
// sentinels. Sentinel identity is never carried through this value - it
// exists purely for hashing, so it doesn't reintroduce the collision risk
// that encoding sentinels as reserved codepoints would.
func (u Unit) HashFold() int32 {
	switch u.kind {
	case KindOpen:
		return -1
	case KindClose:
		return -2
	default:
		return int32(u.value)
	}
}

// FromCodepoints wraps a plain codepoint slice as a Unit slice.
func FromCodepoints(cps []int32) []Unit {
	units := make([]Unit, len(cps))
	for i, cp := range cps {
		units[i] = Of(cp)
	}

	return units
}

// MinValid and MaxValid bound a legal Unicode scalar value (spec §3): any
// non-negative integer up to the maximum codepoint, surrogate range aside -
// this package validates only the numeric bound; UTF-8 encoding rejects
// surrogates separately.
const (
	MinValid int32 = 0
	MaxValid int32 = 0x10FFFF
)

// Valid reports whether cp is in the legal codepoint range.
func Valid(cp int32) bool {
	return cp >= MinValid && cp <= MaxValid
}

// Encode renders a token's Units as UTF-8 bytes, skipping any sentinel.
// Used wherever a sequencer's emitted []Unit token must become a byte
// sequence: the merge sequencer's encoding of inner tokens before packing
// and the training pipeline feeding Ingest.
func Encode(units []Unit) []byte {
	buf := make([]byte, 0, len(units)*utf8.UTFMax)

	for _, u := range units {
		cp, ok := u.Codepoint()
		if !ok {
			continue
		}

		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], rune(cp))
		buf = append(buf, tmp[:n]...)
	}

	return buf
}
