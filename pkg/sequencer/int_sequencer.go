package sequencer

import (
	"github.com/calvinalkan/lattice-tok/pkg/codepoint"
	"github.com/calvinalkan/lattice-tok/pkg/gate"
	"github.com/calvinalkan/lattice-tok/pkg/keygen"
)

// IntSequencer is the base online miner (spec §4.3): it grows a candidate
// one unit at a time and, as soon as any gate in its declared order refuses
// the extended candidate, emits everything grown so far minus the unit that
// triggered the refusal, then restarts the candidate from that unit.
type IntSequencer struct {
	keyGen *keygen.KeyGenerator
	gates  []gate.Gate

	candidate []codepoint.Unit
}

// New constructs an IntSequencer with gates run in the given order.
func New(gates ...gate.Gate) *IntSequencer {
	return NewSeeded(keygen.DefaultSeed, gates...)
}

// NewSeeded is like New but starts the key generator from seed rather than
// the default.
func NewSeeded(seed uint32, gates ...gate.Gate) *IntSequencer {
	return &IntSequencer{
		keyGen: keygen.NewSeeded(seed),
		gates:  gates,
	}
}

// Push implements [Sequencer].
func (s *IntSequencer) Push(u codepoint.Unit) ([]codepoint.Unit, bool) {
	previousKey := s.keyGen.Value()

	s.candidate = append(s.candidate, u)
	currentKey := s.keyGen.Update(u.HashFold())

	for _, g := range s.gates {
		if g.Evaluate(currentKey, previousKey) {
			continue
		}

		trigger := s.candidate[len(s.candidate)-1]
		emitted := make([]codepoint.Unit, len(s.candidate)-1)
		copy(emitted, s.candidate[:len(s.candidate)-1])

		s.candidate = []codepoint.Unit{trigger}
		s.keyGen.Recalculate([]int32{trigger.HashFold()})

		return emitted, true
	}

	return nil, false
}

// Flush implements [Sequencer].
func (s *IntSequencer) Flush() []codepoint.Unit {
	final := s.candidate
	s.candidate = nil
	s.keyGen.Reset()

	return final
}

// Reset implements [Sequencer]. Unlike Flush, it discards the candidate
// rather than returning it, and also resets every gate's own state - this
// is the only point at which a gate's persistent history is cleared.
func (s *IntSequencer) Reset() {
	s.candidate = nil
	s.keyGen.Reset()

	for _, g := range s.gates {
		g.Reset()
	}
}

var _ Sequencer = (*IntSequencer)(nil)
