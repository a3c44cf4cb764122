// Package indexcache provides the two small in-memory data structures the
// tokenizer's gates and lattice caches share: a bounded least-recently-used
// map ([LRU]), and an open-addressed table ([OpenTable]) sized for the MDL
// gate's masked counters.
//
// OpenTable is a power-of-two bucket array with linear probing and
// tombstones, growing when the load factor crosses a threshold; LRU is a map
// plus a container/list recency list. Keeping both here gives the gates and
// the lattice one audited place for them instead of several ad-hoc copies.
package indexcache
