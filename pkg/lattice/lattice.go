// Package lattice implements the persistent, single-writer graph store of
// tokens and directed weighted edges (spec §4.5): an embedded SQLite-backed
// vocabulary with prefix lookup, PMI-refined transition queries, and
// transactional batch ingestion.
package lattice

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calvinalkan/lattice-tok/pkg/fs"
	"github.com/calvinalkan/lattice-tok/pkg/indexcache"
)

// defaultCacheSize is the per-cache LRU bound spec §5 requires ("six LRU
// caches each <= 1000 entries").
const defaultCacheSize = 1000

// refinedTransitionsTopK is the K in refinedTransitionsFrom's top-K PMI cut
// (spec §4.5).
const refinedTransitionsTopK = 8

// Options configures a [Lattice].
type Options struct {
	// Path is the SQLite database file. Empty is invalid.
	Path string
	// CacheSize bounds each of the six lookup caches. Zero uses the default
	// of 1000.
	CacheSize int
}

// decodeCacheKey is the tokenizer's per-position candidate cache key (spec
// §4.7 step 3): a decode position plus a bounded prefix of codepoints, kept
// here because SPEC_FULL.md groups it with the Lattice's other caches even
// though only the tokenizer populates it.
type decodeCacheKey struct {
	position int
	prefix   string
}

// edgeCacheKey keys the getEdge result cache.
type edgeCacheKey struct {
	from HexString
	to   HexString
}

// Lattice is an embedded, single-writer token/edge store. The zero value is
// not usable; construct one with [Open].
type Lattice struct {
	db   *sql.DB
	lock *fs.Lock

	tokenByBytes     *indexcache.LRU[HexString, *Token]
	tokenByID        *indexcache.LRU[uint64, *Token]
	prefixCache      *indexcache.LRU[HexString, []HexString]
	refinedCache     *indexcache.LRU[HexString, []RefinedTransition]
	edgeCache        *indexcache.LRU[edgeCacheKey, *EdgeInfo]
	decodeCandidates *indexcache.LRU[decodeCacheKey, []HexString]
}

// Open opens (creating if absent) the SQLite database at opts.Path and
// acquires an exclusive advisory lock for the lifetime of the handle,
// enforcing the single-writer policy spec §5 documents (see
// DESIGN.md's pkg/fs entry for the lock's flock(2) grounding).
func Open(ctx context.Context, opts Options) (*Lattice, error) {
	if opts.Path == "" {
		return nil, wrap(InvalidArgument, "open", fmt.Errorf("path is empty"))
	}

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	locker := fs.NewLocker(fs.NewReal())

	// TryLock, not Lock: a second Open on the same path is a configuration
	// mistake (two handles racing one SQLite file), not a condition to wait
	// out. Fail fast rather than hang the caller.
	lock, err := locker.TryLock(opts.Path + ".lock")
	if err != nil {
		return nil, wrap(StorageFailure, "open", fmt.Errorf("acquire single-writer lock: %w", err))
	}

	db, err := openSqlite(ctx, opts.Path)
	if err != nil {
		_ = lock.Close()

		return nil, err
	}

	return &Lattice{
		db:               db,
		lock:             lock,
		tokenByBytes:     indexcache.New[HexString, *Token](cacheSize),
		tokenByID:        indexcache.New[uint64, *Token](cacheSize),
		prefixCache:      indexcache.New[HexString, []HexString](cacheSize),
		refinedCache:     indexcache.New[HexString, []RefinedTransition](cacheSize),
		edgeCache:        indexcache.New[edgeCacheKey, *EdgeInfo](cacheSize),
		decodeCandidates: indexcache.New[decodeCacheKey, []HexString](cacheSize),
	}, nil
}

// Close releases the database handle and the single-writer lock.
func (l *Lattice) Close() error {
	dbErr := l.db.Close()
	lockErr := l.lock.Close()

	if dbErr != nil {
		return wrap(StorageFailure, "close", dbErr)
	}

	if lockErr != nil {
		return wrap(StorageFailure, "close", lockErr)
	}

	return nil
}

// invalidateCaches drops every cache entry. Called after any write so stale
// reads are never served.
func (l *Lattice) invalidateCaches() {
	l.tokenByBytes.Clear()
	l.tokenByID.Clear()
	l.prefixCache.Clear()
	l.refinedCache.Clear()
	l.edgeCache.Clear()
	l.decodeCandidates.Clear()
}

// DecodeCandidates returns the cached candidate list for key, computing and
// caching it via compute if absent. Used by the tokenizer package to back
// spec §4.7 step 3's per-position candidate cache.
func (l *Lattice) DecodeCandidates(position int, codepointPrefix string, compute func() []HexString) []HexString {
	key := decodeCacheKey{position: position, prefix: codepointPrefix}

	if cached, ok := l.decodeCandidates.Get(key); ok {
		return cached
	}

	computed := compute()
	l.decodeCandidates.Put(key, computed)

	return computed
}
