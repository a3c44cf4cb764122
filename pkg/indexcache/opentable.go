package indexcache

import "errors"

// ErrCapacityExceeded is returned by [OpenTable.Add] when the table has grown
// to its configured hard cap and still cannot satisfy the load factor. This
// signals a masking bug upstream (a properly masked key space should never
// overflow a table sized for it) rather than a normal operating condition.
var ErrCapacityExceeded = errors.New("indexcache: capacity exceeded")

const tombstone = ^uint64(0)

// OpenTable is an open-addressed, linear-probing hash table mapping a
// 64-bit composite key to a uint32 counter. It grows by doubling whenever the
// load factor would exceed maxLoadFactor, and refuses to grow past capCount
// entries, returning [ErrCapacityExceeded] instead.
//
// Grounded on the SLC1 bucket layout: power-of-two bucket arrays, tombstones
// for deleted slots, 0.7 default load factor; keys are hashed with a
// SplitMix64 finalizer rather than FNV-1a.
type OpenTable struct {
	keys     []uint64 // 0 means empty slot; tombstone marks a deleted slot
	counts   []uint32
	used     int // live entries
	occupied int // live + tombstones, for load-factor accounting
	capCount int
}

// NewOpenTable creates a table with the given initial capacity (rounded up
// to a power of two, minimum 16) and a cap on live entries. The cap is
// checked only when an insert needs the table to grow, so a table whose
// initial load limit exceeds capCount admits entries up to that limit.
func NewOpenTable(initialCapacity, capCount int) *OpenTable {
	cap := nextPowerOfTwo(initialCapacity)
	if cap < 16 {
		cap = 16
	}

	return &OpenTable{
		keys:     make([]uint64, cap),
		counts:   make([]uint32, cap),
		capCount: capCount,
	}
}

const maxLoadFactor = 0.7

// Get returns the current count for key, or (0, false) if absent.
func (t *OpenTable) Get(key uint64) (uint32, bool) {
	idx, found := t.find(key)
	if !found {
		return 0, false
	}

	return t.counts[idx], true
}

// Add increments the counter for key by delta, inserting a zero-initialized
// entry first if key is new. Returns [ErrCapacityExceeded] if the table
// cannot grow further to admit a new key.
func (t *OpenTable) Add(key uint64, delta uint32) (uint32, error) {
	idx, found := t.find(key)
	if found {
		t.counts[idx] += delta

		return t.counts[idx], nil
	}

	if err := t.ensureRoom(); err != nil {
		return 0, err
	}

	idx = t.insertSlot(key)
	t.counts[idx] = delta
	t.used++
	t.occupied++

	return t.counts[idx], nil
}

// Len returns the number of live entries.
func (t *OpenTable) Len() int { return t.used }

func (t *OpenTable) find(key uint64) (int, bool) {
	mask := uint64(len(t.keys) - 1)
	idx := hashUint64(key) & mask

	for range t.keys {
		slot := t.keys[idx]
		if slot == 0 {
			return 0, false
		}

		if slot == key+1 { // +1 so real key 0 never collides with "empty"
			return int(idx), true
		}

		idx = (idx + 1) & mask
	}

	return 0, false
}

// insertSlot finds the first empty-or-tombstone slot for key via linear
// probing and stores the (sentinel-biased) key there.
func (t *OpenTable) insertSlot(key uint64) int {
	mask := uint64(len(t.keys) - 1)
	idx := hashUint64(key) & mask

	for {
		slot := t.keys[idx]
		if slot == 0 || slot == tombstone {
			t.keys[idx] = key + 1

			return int(idx)
		}

		idx = (idx + 1) & mask
	}
}

func (t *OpenTable) ensureRoom() error {
	if float64(t.occupied+1) <= float64(len(t.keys))*maxLoadFactor {
		return nil
	}

	if t.capCount > 0 && t.used >= t.capCount {
		return ErrCapacityExceeded
	}

	newCap := len(t.keys) * 2
	if t.capCount > 0 && newCap > nextPowerOfTwo(t.capCount) {
		newCap = nextPowerOfTwo(t.capCount)
	}

	t.grow(newCap)

	return nil
}

func (t *OpenTable) grow(newCap int) {
	oldKeys, oldCounts := t.keys, t.counts

	t.keys = make([]uint64, newCap)
	t.counts = make([]uint32, newCap)
	t.occupied = 0

	mask := uint64(newCap - 1)

	for i, slot := range oldKeys {
		if slot == 0 || slot == tombstone {
			continue
		}

		key := slot - 1
		idx := hashUint64(key) & mask

		for t.keys[idx] != 0 {
			idx = (idx + 1) & mask
		}

		t.keys[idx] = slot
		t.counts[idx] = oldCounts[i]
		t.occupied++
	}
}

func hashUint64(v uint64) uint64 {
	// SplitMix64 finalizer: cheap, well-distributed avalanche for a single
	// 64-bit key, avoiding a hash/fnv allocation on every probe.
	v ^= v >> 30
	v *= 0xbf58476d1ce4e5b9
	v ^= v >> 27
	v *= 0x94d049bb133111eb
	v ^= v >> 31

	return v
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
