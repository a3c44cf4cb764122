package lattice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
)

// GetTokenByBytes returns the token identified by hex, or nil if absent.
// Results are cached (spec §4.5).
func (l *Lattice) GetTokenByBytes(ctx context.Context, hex HexString) (*Token, error) {
	if cached, ok := l.tokenByBytes.Get(hex); ok {
		return cached, nil
	}

	row := l.db.QueryRowContext(ctx, `SELECT id, bytes, strength, degree FROM tokens WHERE bytes = ?`, string(hex))

	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error, per spec §7
	}

	if err != nil {
		return nil, wrap(StorageFailure, "getTokenByBytes", err)
	}

	l.cacheToken(tok)

	return tok, nil
}

// GetTokenByID returns the token identified by id, or nil if absent.
// Results are cached (spec §4.5).
func (l *Lattice) GetTokenByID(ctx context.Context, id uint64) (*Token, error) {
	if cached, ok := l.tokenByID.Get(id); ok {
		return cached, nil
	}

	row := l.db.QueryRowContext(ctx, `SELECT id, bytes, strength, degree FROM tokens WHERE id = ?`, id)

	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, wrap(StorageFailure, "getTokenById", err)
	}

	l.cacheToken(tok)

	return tok, nil
}

func (l *Lattice) cacheToken(tok *Token) {
	l.tokenByBytes.Put(tok.Bytes, tok)
	l.tokenByID.Put(tok.ID, tok)
}

func scanToken(row *sql.Row) (*Token, error) {
	var (
		tok   Token
		bytes string
	)

	if err := row.Scan(&tok.ID, &bytes, &tok.Strength, &tok.Degree); err != nil {
		return nil, err
	}

	tok.Bytes = HexString(bytes)

	return &tok, nil
}

// GetEdge returns from's stats plus the edge weight to to, or nil if from
// does not exist as a token (spec §4.5). A missing edge (from exists, to
// does not, or no adjacency observed) yields Weight: 0, not an absent
// result - only a missing from token yields nil.
func (l *Lattice) GetEdge(ctx context.Context, from, to HexString) (*EdgeInfo, error) {
	key := edgeCacheKey{from: from, to: to}
	if cached, ok := l.edgeCache.Get(key); ok {
		return cached, nil
	}

	fromTok, err := l.GetTokenByBytes(ctx, from)
	if err != nil {
		return nil, err
	}

	if fromTok == nil {
		return nil, nil //nolint:nilnil
	}

	var weight uint64

	row := l.db.QueryRowContext(ctx, `SELECT weight FROM edges WHERE from_bytes = ? AND to_bytes = ?`, string(from), string(to))

	err = row.Scan(&weight)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, wrap(StorageFailure, "getEdge", err)
	}

	info := &EdgeInfo{Strength: fromTok.Strength, Degree: fromTok.Degree, Weight: weight}
	l.edgeCache.Put(key, info)

	return info, nil
}

// CountPredecessors returns the number of distinct from-tokens with a
// positive-weight edge into to (spec §4.5).
func (l *Lattice) CountPredecessors(ctx context.Context, to HexString) (uint32, error) {
	var count uint32

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT from_bytes) FROM edges WHERE to_bytes = ? AND weight > 0`, string(to))

	if err := row.Scan(&count); err != nil {
		return 0, wrap(StorageFailure, "countPredecessors", err)
	}

	return count, nil
}

// PrefixSearch returns every stored token whose bytes are a prefix of
// escaped, ordered longest-first (spec §4.5). escaped must already be a
// [HexString]-encoded byte string.
func (l *Lattice) PrefixSearch(ctx context.Context, escaped HexString) ([]HexString, error) {
	if cached, ok := l.prefixCache.Get(escaped); ok {
		return cached, nil
	}

	// Every HexString prefix of `escaped` is exactly the first 4*N runes,
	// for N from 1 to escaped.Len(); SQL LIKE over the full string with a
	// trailing wildcard is equivalent to "bytes is a prefix of escaped".
	rows, err := l.db.QueryContext(ctx, `
		SELECT bytes FROM tokens WHERE ? LIKE bytes || '%' ORDER BY LENGTH(bytes) DESC`, string(escaped))
	if err != nil {
		return nil, wrap(StorageFailure, "prefixSearch", err)
	}

	defer func() { _ = rows.Close() }()

	matches := make([]HexString, 0)

	for rows.Next() {
		var bytes string
		if err := rows.Scan(&bytes); err != nil {
			return nil, wrap(StorageFailure, "prefixSearch", err)
		}

		matches = append(matches, HexString(bytes))
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(StorageFailure, "prefixSearch", err)
	}

	l.prefixCache.Put(escaped, matches)

	return matches, nil
}

// RefinedTransitionsFrom returns the top-K outgoing edges from `from`,
// ranked by PMI with ties broken by raw weight (spec §4.5).
func (l *Lattice) RefinedTransitionsFrom(ctx context.Context, from HexString) ([]RefinedTransition, error) {
	if cached, ok := l.refinedCache.Get(from); ok {
		return cached, nil
	}

	fromTok, err := l.GetTokenByBytes(ctx, from)
	if err != nil {
		return nil, err
	}

	if fromTok == nil || fromTok.Strength == 0 {
		return nil, nil
	}

	totalMass, err := l.TotalEdgeMass(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `SELECT to_bytes, weight FROM edges WHERE from_bytes = ? AND weight > 0`, string(from))
	if err != nil {
		return nil, wrap(StorageFailure, "refinedTransitionsFrom", err)
	}

	defer func() { _ = rows.Close() }()

	type scored struct {
		to     HexString
		weight uint64
		pmi    float64
	}

	var candidates []scored

	for rows.Next() {
		var (
			to     string
			weight uint64
		)

		if err := rows.Scan(&to, &weight); err != nil {
			return nil, wrap(StorageFailure, "refinedTransitionsFrom", err)
		}

		inStrength, err := l.inStrength(ctx, HexString(to))
		if err != nil {
			return nil, err
		}

		pmi := math.Inf(-1)
		if inStrength > 0 && totalMass > 0 {
			pmi = math.Log(float64(weight) * float64(totalMass) / (float64(fromTok.Strength) * float64(inStrength)))
		}

		candidates = append(candidates, scored{to: HexString(to), weight: weight, pmi: pmi})
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(StorageFailure, "refinedTransitionsFrom", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].pmi != candidates[j].pmi {
			return candidates[i].pmi > candidates[j].pmi
		}

		return candidates[i].weight > candidates[j].weight
	})

	if len(candidates) > refinedTransitionsTopK {
		candidates = candidates[:refinedTransitionsTopK]
	}

	out := make([]RefinedTransition, len(candidates))
	for i, c := range candidates {
		out[i] = RefinedTransition{Bytes: c.to, Weight: c.weight}
	}

	l.refinedCache.Put(from, out)

	return out, nil
}

// TotalEdgeMass returns the sum of every positive-weight edge's weight (the
// `G` in PMI and Kneser-Ney continuation-probability formulas, spec §4.5/
// §4.8).
func (l *Lattice) TotalEdgeMass(ctx context.Context) (uint64, error) {
	var total sql.NullInt64

	row := l.db.QueryRowContext(ctx, `SELECT SUM(weight) FROM edges WHERE weight > 0`)
	if err := row.Scan(&total); err != nil {
		return 0, wrap(StorageFailure, "refinedTransitionsFrom", fmt.Errorf("total edge mass: %w", err))
	}

	if !total.Valid {
		return 0, nil
	}

	return uint64(total.Int64), nil
}

func (l *Lattice) inStrength(ctx context.Context, to HexString) (uint64, error) {
	var total sql.NullInt64

	row := l.db.QueryRowContext(ctx, `SELECT SUM(weight) FROM edges WHERE to_bytes = ? AND weight > 0`, string(to))
	if err := row.Scan(&total); err != nil {
		return 0, wrap(StorageFailure, "refinedTransitionsFrom", fmt.Errorf("in-strength of %q: %w", to, err))
	}

	if !total.Valid {
		return 0, nil
	}

	return uint64(total.Int64), nil
}
