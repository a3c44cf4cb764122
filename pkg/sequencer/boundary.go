package sequencer

import "github.com/calvinalkan/lattice-tok/pkg/codepoint"

// BoundarySequencer wraps an inner sequencer with an outer one (spec
// §4.4.1): inner tokens are re-fed to the outer sequencer surrounded by
// OPEN/CLOSE sentinels, so that inner-token boundaries recurring at the same
// place encourage the outer sequencer to grow tokens that straddle them.
type BoundarySequencer struct {
	inner Sequencer
	outer *IntSequencer

	queue [][]codepoint.Unit
}

// NewBoundarySequencer constructs a BoundarySequencer from the given inner
// sequencer and outer IntSequencer.
func NewBoundarySequencer(inner Sequencer, outer *IntSequencer) *BoundarySequencer {
	return &BoundarySequencer{inner: inner, outer: outer}
}

// Push feeds one codepoint to the inner sequencer and returns at most one
// fully resolved token, with sentinels stripped.
func (b *BoundarySequencer) Push(cp int32) ([]int32, bool) {
	if innerTok, ok := b.inner.Push(codepoint.Of(cp)); ok {
		b.feedThroughOuter(innerTok)
	}

	return b.dequeue()
}

// Flush flushes the inner sequencer, feeds its final token through the
// outer sequencer, flushes the outer sequencer, and drains every queued
// token in order, all with sentinels stripped.
func (b *BoundarySequencer) Flush() [][]int32 {
	if innerTok := b.inner.Flush(); len(innerTok) > 0 {
		b.feedThroughOuter(innerTok)
	}

	if outerTok := b.outer.Flush(); len(outerTok) > 0 {
		b.enqueue(outerTok)
	}

	var out [][]int32
	for {
		tok, ok := b.dequeue()
		if !ok {
			break
		}

		out = append(out, tok)
	}

	return out
}

// Reset discards all state in the inner sequencer, the outer sequencer, and
// the pending-token queue.
func (b *BoundarySequencer) Reset() {
	b.inner.Reset()
	b.outer.Reset()
	b.queue = nil
}

func (b *BoundarySequencer) feedThroughOuter(innerTok []codepoint.Unit) {
	feed := make([]codepoint.Unit, 0, len(innerTok)+2)
	feed = append(feed, codepoint.Open())
	feed = append(feed, innerTok...)
	feed = append(feed, codepoint.Close())

	for _, u := range feed {
		if emitted, ok := b.outer.Push(u); ok {
			b.enqueue(emitted)
		}
	}
}

// enqueue applies the merge rule from spec §4.4.1: an emission that follows
// an open-but-unclosed queued item is folded into it, and a
// closed-but-never-opened queued item is merged into its predecessor before
// the new emission is queued separately.
func (b *BoundarySequencer) enqueue(emission []codepoint.Unit) {
	if len(b.queue) > 0 {
		last := b.queue[len(b.queue)-1]

		switch {
		case endsWithClose(last) && !startsWithOpen(last):
			b.queue = b.queue[:len(b.queue)-1]

			if len(b.queue) > 0 {
				b.queue[len(b.queue)-1] = append(b.queue[len(b.queue)-1], last...)
			} else {
				b.queue = append(b.queue, last)
			}

			b.queue = append(b.queue, emission)

			return
		case startsWithOpen(last) && !endsWithClose(last):
			b.queue[len(b.queue)-1] = append(last, emission...)

			return
		}
	}

	b.queue = append(b.queue, emission)
}

func (b *BoundarySequencer) dequeue() ([]int32, bool) {
	if len(b.queue) == 0 {
		return nil, false
	}

	head := b.queue[0]
	b.queue = b.queue[1:]

	return stripSentinels(head), true
}

func endsWithClose(units []codepoint.Unit) bool {
	return len(units) > 0 && units[len(units)-1].Kind() == codepoint.KindClose
}

func startsWithOpen(units []codepoint.Unit) bool {
	return len(units) > 0 && units[0].Kind() == codepoint.KindOpen
}

func stripSentinels(units []codepoint.Unit) []int32 {
	out := make([]int32, 0, len(units))

	for _, u := range units {
		if cp, ok := u.Codepoint(); ok {
			out = append(out, cp)
		}
	}

	return out
}
