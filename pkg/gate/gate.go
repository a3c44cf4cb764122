// Package gate implements the pluggable emission-gate predicates an
// [github.com/calvinalkan/lattice-tok/pkg/sequencer.IntSequencer] consults to
// decide where to cut a growing candidate into a token.
package gate

// Gate decides whether the sequencer's current candidate must be emitted
// now. A sequencer runs its gates in declared order; the first gate to
// return false from Evaluate triggers emission.
//
// Implementations never return an error - statistical edge cases are
// absorbed by flooring (spec §7), so gates cannot fail, only decide.
type Gate interface {
	// Evaluate is called once per pushed codepoint, after the key generator
	// has folded it in. currentKey is the post-update hash, previousKey is
	// the hash before this codepoint was folded in.
	Evaluate(currentKey, previousKey uint32) bool

	// Reset clears all accumulated state, as if the gate were newly
	// constructed. A sequencer calls this only when it itself is reset (for
	// example when a stream ends); gate state otherwise persists across
	// emissions for the sequencer's entire lifetime; LZ's seen-candidate
	// cache and MDL's counters are deliberately long-lived, not
	// per-candidate.
	Reset()
}
