// Package sequencer implements the online LZ-style miner that turns a
// codepoint stream into emitted tokens, plus the two meta-sequencers
// (boundary, merge) that stack over it to reshape token boundaries.
package sequencer

import "github.com/calvinalkan/lattice-tok/pkg/codepoint"

// Sequencer is the common push/flush/reset contract every stage of the
// stack (base and meta) satisfies, so they can wrap one another uniformly.
type Sequencer interface {
	// Push feeds one unit in. It returns at most one emitted token per
	// call, and ok is false when nothing was emitted.
	Push(u codepoint.Unit) (emitted []codepoint.Unit, ok bool)

	// Flush returns the current candidate as a final token, which may be
	// empty, and clears all buffered state.
	Flush() []codepoint.Unit

	// Reset discards all learned and buffered state, including gate
	// history, as if newly constructed.
	Reset()
}
