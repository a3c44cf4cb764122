package gate

import "github.com/calvinalkan/lattice-tok/pkg/indexcache"

// LZConfig configures an [LZGate].
type LZConfig struct {
	// CacheMax bounds the LZ gate's seen-candidate LRU, which in turn bounds
	// its memory use. Zero means unbounded.
	CacheMax int `json:"max"`
}

// DefaultLZConfig returns the gate's documented defaults.
func DefaultLZConfig() LZConfig {
	return LZConfig{CacheMax: 1_000_000}
}

// LZGate is an LZ-repetition emission gate: it passes (keeps growing the
// candidate) only once the candidate's hash has been observed before.
//
// On first sight of a candidate, Evaluate returns false (force emission);
// every later sighting returns true (keep growing), because by then the
// candidate has already been recorded once.
type LZGate struct {
	cache *indexcache.LRU[uint32, uint32]
}

// NewLZGate constructs an LZGate from cfg.
func NewLZGate(cfg LZConfig) *LZGate {
	return &LZGate{cache: indexcache.New[uint32, uint32](cfg.CacheMax)}
}

// Evaluate implements [Gate]. previousKey is unused - the LZ gate only cares
// about the candidate's current identity.
func (g *LZGate) Evaluate(currentKey, _ uint32) bool {
	seen, _ := g.cache.Get(currentKey)
	g.cache.Put(currentKey, seen+1)

	return seen >= 1
}

// Reset clears the seen-candidate cache, forgetting all history.
func (g *LZGate) Reset() {
	g.cache.Clear()
}

var _ Gate = (*LZGate)(nil)
