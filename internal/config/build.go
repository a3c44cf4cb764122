package config

import (
	"fmt"

	"github.com/calvinalkan/lattice-tok/pkg/gate"
	"github.com/calvinalkan/lattice-tok/pkg/sequencer"
)

// BuildGates materializes the ordered gate list a Sequencer config
// describes, in order, using each entry's per-gate overrides or the
// package's own defaults when absent.
func (c Sequencer) BuildGates() ([]gate.Gate, error) {
	gates := make([]gate.Gate, 0, len(c.Gates))

	for i, gc := range c.Gates {
		g, err := gc.build()
		if err != nil {
			return nil, fmt.Errorf("config: gate %d: %w", i, err)
		}

		gates = append(gates, g)
	}

	return gates, nil
}

func (gc GateConfig) build() (gate.Gate, error) {
	switch gc.Type {
	case gateTypeLZ:
		cfg := gate.DefaultLZConfig()
		if gc.LZ != nil {
			cfg = *gc.LZ
		}

		return gate.NewLZGate(cfg), nil
	case gateTypeMDL:
		cfg := gate.DefaultMDLConfig()
		if gc.MDL != nil {
			cfg = *gc.MDL
		}

		return gate.NewMDLGate(cfg), nil
	default:
		return nil, fmt.Errorf("unknown gate type %q: want %q or %q", gc.Type, gateTypeLZ, gateTypeMDL)
	}
}

// BuildSequencer constructs the IntSequencer this config describes: its
// gate list in order, seeded with KeyGeneratorSeed.
func (c Sequencer) BuildSequencer() (*sequencer.IntSequencer, error) {
	gates, err := c.BuildGates()
	if err != nil {
		return nil, err
	}

	return sequencer.NewSeeded(c.KeyGeneratorSeed, gates...), nil
}

var errNoGatesConfigured = fmt.Errorf("config: sequencer needs at least one gate to stack")

// BuildInnerOuter splits the gate list into an inner IntSequencer (its
// first gate) and an outer one (every remaining gate), both seeded with
// KeyGeneratorSeed - the two stages spec §4.4's BoundarySequencer and
// MergeSequencer stack over. With the documented default gate order
// (lz, mdl) this yields inner=IntSequencer(LZ), outer=IntSequencer(MDL),
// matching the worked examples in spec §8.
func (c Sequencer) BuildInnerOuter() (inner, outer *sequencer.IntSequencer, err error) {
	if len(c.Gates) == 0 {
		return nil, nil, errNoGatesConfigured
	}

	innerGates, err := Sequencer{Gates: c.Gates[:1]}.BuildGates()
	if err != nil {
		return nil, nil, err
	}

	outerGates, err := Sequencer{Gates: c.Gates[1:]}.BuildGates()
	if err != nil {
		return nil, nil, err
	}

	inner = sequencer.NewSeeded(c.KeyGeneratorSeed, innerGates...)
	outer = sequencer.NewSeeded(c.KeyGeneratorSeed, outerGates...)

	return inner, outer, nil
}
