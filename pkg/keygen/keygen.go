// Package keygen implements the sequencer's rolling hash over a growing
// candidate buffer.
package keygen

// DefaultSeed is the hash's initial value, chosen to match the source
// system's FNV-offset-basis-shaped seed rather than a plain zero.
const DefaultSeed uint32 = 0x811C9DC5

// KeyGenerator maintains a rolling hash over the codepoints pushed to it so
// gates can key decisions by candidate identity in O(1) per update.
type KeyGenerator struct {
	seed uint32
	h    uint32
}

// New returns a KeyGenerator seeded with DefaultSeed.
func New() *KeyGenerator {
	return NewSeeded(DefaultSeed)
}

// NewSeeded returns a KeyGenerator seeded with seed.
func NewSeeded(seed uint32) *KeyGenerator {
	return &KeyGenerator{seed: seed, h: seed}
}

// Value returns the current hash.
func (k *KeyGenerator) Value() uint32 {
	return k.h
}

// Update folds cp into the hash and returns the new value.
//
// h ← (h*31 + cp) mod 2^32, computed by first reinterpreting cp's wrapping
// int32 conversion as unsigned, matching the source's wrapping-signed-then-
// unsigned-reinterpret semantics for out-of-int32-range codepoints (none
// occur in practice since codepoints are bounded by 0x10FFFF, but the same
// arithmetic is used regardless).
func (k *KeyGenerator) Update(cp int32) uint32 {
	k.h = k.h*31 + uint32(cp)

	return k.h
}

// Reset sets the hash back to its seed value.
func (k *KeyGenerator) Reset() {
	k.h = k.seed
}

// Recalculate resets then folds in every element of buf in order. Equivalent
// to Reset followed by an Update loop - this is the hash-equivalence
// invariant the sequencer relies on when it seeds a fresh candidate.
func (k *KeyGenerator) Recalculate(buf []int32) uint32 {
	k.Reset()

	for _, cp := range buf {
		k.Update(cp)
	}

	return k.h
}
