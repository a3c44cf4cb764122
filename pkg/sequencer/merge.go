package sequencer

import "github.com/calvinalkan/lattice-tok/pkg/codepoint"

// mergeShortRunMax is the byte-length cutoff below which an inner token is
// packed into a single integer rather than fed byte-by-byte (spec §4.4.2).
const mergeShortRunMax = 5

// packedValueFloor is the smallest outer-emission value that [unpackEmission]
// treats as a packed run rather than a single raw byte - spec §4.4.2's
// literal "values ≥ 257" discriminator.
const packedValueFloor = 257

// MergeSequencer wraps an inner sequencer with an outer one (spec §4.4.2):
// short inner tokens (under 5 UTF-8 bytes) are packed into a single
// length-tagged integer before being fed to the outer sequencer; longer
// tokens are fed one byte at a time. Outer emissions are unpacked back into
// bytes, so Push and Flush yield byte tokens rather than codepoint units.
type MergeSequencer struct {
	inner Sequencer
	outer *IntSequencer

	queue [][]byte
}

// NewMergeSequencer constructs a MergeSequencer from the given inner
// sequencer and outer IntSequencer.
func NewMergeSequencer(inner Sequencer, outer *IntSequencer) *MergeSequencer {
	return &MergeSequencer{inner: inner, outer: outer}
}

// Push feeds one codepoint to the inner sequencer and returns at most one
// fully resolved byte token.
func (m *MergeSequencer) Push(cp int32) ([]byte, bool) {
	if innerTok, ok := m.inner.Push(codepoint.Of(cp)); ok {
		m.feedThroughOuter(innerTok)
	}

	return m.dequeue()
}

// Flush flushes the inner sequencer, feeds its final token through the
// outer sequencer, flushes the outer sequencer, and drains every queued
// byte token in order.
func (m *MergeSequencer) Flush() [][]byte {
	if innerTok := m.inner.Flush(); len(innerTok) > 0 {
		m.feedThroughOuter(innerTok)
	}

	if outerTok := m.outer.Flush(); len(outerTok) > 0 {
		m.queue = append(m.queue, unpackEmission(outerTok))
	}

	out := m.queue
	m.queue = nil

	return out
}

// Reset discards all state in the inner sequencer, the outer sequencer, and
// the pending-token queue.
func (m *MergeSequencer) Reset() {
	m.inner.Reset()
	m.outer.Reset()
	m.queue = nil
}

func (m *MergeSequencer) feedThroughOuter(innerTok []codepoint.Unit) {
	bs := codepoint.Encode(innerTok)
	if len(bs) == 0 {
		return
	}

	for _, u := range unitsForBytes(bs) {
		if emitted, ok := m.outer.Push(u); ok {
			m.queue = append(m.queue, unpackEmission(emitted))
		}
	}
}

func (m *MergeSequencer) dequeue() ([]byte, bool) {
	if len(m.queue) == 0 {
		return nil, false
	}

	head := m.queue[0]
	m.queue = m.queue[1:]

	return head, true
}

func unitsForBytes(bs []byte) []codepoint.Unit {
	if len(bs) > 0 && len(bs) < mergeShortRunMax {
		return []codepoint.Unit{codepoint.OfRaw(packBytes(bs))}
	}

	units := make([]codepoint.Unit, len(bs))
	for i, b := range bs {
		units[i] = codepoint.OfRaw(int64(b))
	}

	return units
}

// packBytes packs a byte run of length 1..4 into a single length-tagged
// integer: the big-endian value of the bytes, shifted up and OR'd with the
// length in the low byte.
func packBytes(bs []byte) int64 {
	var n int64
	for _, b := range bs {
		n = n<<8 | int64(b)
	}

	return n<<8 | int64(len(bs))
}

// unpackBytes reverses [packBytes].
func unpackBytes(v int64) []byte {
	length := int(v & 0xFF)
	n := v >> 8

	bs := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		bs[i] = byte(n & 0xFF)
		n >>= 8
	}

	return bs
}

func unpackEmission(units []codepoint.Unit) []byte {
	out := make([]byte, 0, len(units))

	for _, u := range units {
		v := u.Raw()
		if v >= packedValueFloor {
			out = append(out, unpackBytes(v)...)
		} else {
			out = append(out, byte(v))
		}
	}

	return out
}
