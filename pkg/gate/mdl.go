package gate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/calvinalkan/lattice-tok/pkg/indexcache"
)

// ZMode selects how the MDL gate estimates a parent's branching factor Z.
type ZMode uint8

const (
	// ZChildDegree derives Z from the observed distinct-successor count of
	// the parent key (the default).
	ZChildDegree ZMode = iota
	// ZFixed uses a constant branching factor regardless of observed degree.
	ZFixed
)

// String renders m the way config files spell it (spec §6: "zMode ∈
// {child-degree, fixed}").
func (m ZMode) String() string {
	if m == ZFixed {
		return "fixed"
	}

	return "child-degree"
}

// MarshalJSON renders m as its config-file spelling.
func (m ZMode) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "%q", m.String()), nil
}

// UnmarshalJSON parses m from its config-file spelling.
func (m *ZMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "fixed":
		*m = ZFixed
	case "child-degree", "":
		*m = ZChildDegree
	default:
		return fmt.Errorf("gate: invalid zMode %q: want %q or %q", s, "child-degree", "fixed")
	}

	return nil
}

// MDLConfig configures an [MDLGate]. Field names and defaults follow spec
// §4.2.2 exactly.
type MDLConfig struct {
	Alpha          float64 `json:"alpha"`          // Laplace smoothing constant
	Beta           float64 `json:"beta"`           // EWMA step size
	C              float64 `json:"c"`              // surprise threshold, in standard deviations
	Tau            float64 `json:"tau"`            // entropy exponent
	ZMode          ZMode   `json:"zMode"`          //nolint:tagliatelle // spec §6 spells it zMode
	ZFixed         float64 `json:"zFixed"`         // branching factor used when ZMode == ZFixed
	MaxDegreeTable int     `json:"maxDegreeTable"` // hard cap on the open-addressed edge-count table
}

// DefaultMDLConfig returns the gate's documented defaults.
func DefaultMDLConfig() MDLConfig {
	return MDLConfig{
		Alpha:          0.1,
		Beta:           0.02,
		C:              0.7,
		Tau:            0.8,
		ZMode:          ZChildDegree,
		ZFixed:         2,
		MaxDegreeTable: 1 << 20,
	}
}

// parentKeyBits is the width of the masked index into the parent/degree
// tables: spec §4.2.2 masks every counter index to 20 bits to bound memory
// at the cost of tolerated hash collisions.
const parentKeyBits = 20

const parentKeyMask = (1 << parentKeyBits) - 1

const epsilon = 1e-9

// MDLGate is a minimum-description-length emission gate: it fails (forcing
// emission) unless both a relative-surprise test and an entropy test pass
// for the transition from the previous candidate key to the current one.
//
// All counters are indexed by a 20-bit mask of the relevant key, trading
// hash collisions for a fixed memory bound (spec §4.2).
type MDLGate struct {
	cfg MDLConfig

	parentCount [1 << parentKeyBits]uint32
	degree      [1 << parentKeyBits]uint32
	edgeCount   *indexcache.OpenTable

	pbar        float64
	pbar2       float64
	initialized bool

	entropyThresholds []float64 // memoized Z -> Z^-tau, index 0 unused (mapped to 0 directly)

	// lastCapacityErr records whether the edge table most recently refused
	// to grow. Gates never fail their Evaluate contract (spec §7); this is
	// exposed only for diagnostics/monitoring.
	lastCapacityErr bool
}

// NewMDLGate constructs an MDLGate from cfg.
func NewMDLGate(cfg MDLConfig) *MDLGate {
	return &MDLGate{
		cfg:       cfg,
		edgeCount: indexcache.NewOpenTable(1<<14, cfg.MaxDegreeTable),
	}
}

// Evaluate implements [Gate].
func (g *MDLGate) Evaluate(currentKey, previousKey uint32) bool {
	prevMasked := previousKey & parentKeyMask
	curMasked := currentKey & parentKeyMask

	z := g.branchingFactor(prevMasked)

	parentN := g.parentCount[prevMasked]
	edgeKey := compositeEdgeKey(prevMasked, curMasked)
	edgeN, _ := g.edgeCount.Get(edgeKey)

	p := (float64(edgeN) + g.cfg.Alpha) / (float64(parentN) + g.cfg.Alpha*z)
	pGuarded := clamp(p, epsilon, 1-epsilon)

	pbarPrev := g.pbar
	g.updateEWMA(pGuarded)

	variance := math.Max(g.pbar2-g.pbar*g.pbar, 1e-12)

	surprised := (pbarPrev-p)*(pbarPrev-p) >= g.cfg.C*g.cfg.C*variance && (pbarPrev-p) > 0
	entropyOK := p >= g.entropyThreshold(z)

	pass := surprised && entropyOK

	g.recordObservation(prevMasked, edgeKey)

	return pass
}

func (g *MDLGate) updateEWMA(p float64) {
	if !g.initialized {
		g.pbar = p
		g.pbar2 = p * p
		g.initialized = true

		return
	}

	beta := g.cfg.Beta
	g.pbar = (1-beta)*g.pbar + beta*p
	g.pbar2 = (1-beta)*g.pbar2 + beta*p*p
}

func (g *MDLGate) recordObservation(prevMasked uint32, edgeKey uint64) {
	g.parentCount[prevMasked]++

	newCount, err := g.edgeCount.Add(edgeKey, 1)
	if err != nil {
		g.lastCapacityErr = true

		return
	}

	if newCount == 1 {
		g.degree[prevMasked]++
	}
}

// CapacityExceeded reports whether the edge-count table has ever refused to
// grow past its configured cap since the last Reset.
func (g *MDLGate) CapacityExceeded() bool {
	return g.lastCapacityErr
}

func (g *MDLGate) branchingFactor(prevMasked uint32) float64 {
	if g.cfg.ZMode == ZFixed {
		return math.Max(1, g.cfg.ZFixed)
	}

	return math.Max(1, float64(g.degree[prevMasked]))
}

// entropyThreshold returns Z^-tau, memoized for integral Z (the ZChildDegree
// mode always produces an integral Z; ZFixed may not, in which case the
// value is computed directly without caching).
func (g *MDLGate) entropyThreshold(z float64) float64 {
	if z <= 0 {
		return 0
	}

	zi := int(z)
	if float64(zi) != z || zi < 0 {
		return math.Pow(z, -g.cfg.Tau)
	}

	if zi == 0 {
		return 0
	}

	for len(g.entropyThresholds) <= zi {
		g.entropyThresholds = append(g.entropyThresholds, -1)
	}

	if g.entropyThresholds[zi] < 0 {
		g.entropyThresholds[zi] = math.Pow(float64(zi), -g.cfg.Tau)
	}

	return g.entropyThresholds[zi]
}

// Reset clears all EWMA and counter state, starting the gate as if freshly
// constructed.
func (g *MDLGate) Reset() {
	g.parentCount = [1 << parentKeyBits]uint32{}
	g.degree = [1 << parentKeyBits]uint32{}
	g.edgeCount = indexcache.NewOpenTable(1<<14, g.cfg.MaxDegreeTable)
	g.pbar = 0
	g.pbar2 = 0
	g.initialized = false
	g.entropyThresholds = nil
	g.lastCapacityErr = false
}

func compositeEdgeKey(prevMasked, curMasked uint32) uint64 {
	return uint64(prevMasked)<<parentKeyBits | uint64(curMasked)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

var _ Gate = (*MDLGate)(nil)
