package lattice

import (
	"context"
	"sort"
)

// Stats returns a vocabulary/edge summary for diagnostics (spec §4.5):
// counts, totals, maxima, and strength percentiles across all tokens.
func (l *Lattice) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	row := l.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(strength), 0),
			COALESCE(MAX(strength), 0),
			COALESCE(MAX(degree), 0)
		FROM tokens`)

	if err := row.Scan(&stats.TokenCount, &stats.TotalStrength, &stats.MaxStrength, &stats.MaxDegree); err != nil {
		return nil, wrap(StorageFailure, "stats", err)
	}

	edgeRow := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(weight), 0) FROM edges WHERE weight > 0`)

	if err := edgeRow.Scan(&stats.EdgeCount, &stats.TotalEdgeWeight); err != nil {
		return nil, wrap(StorageFailure, "stats", err)
	}

	p50, p90, p99, err := l.strengthPercentiles(ctx)
	if err != nil {
		return nil, err
	}

	stats.StrengthP50 = p50
	stats.StrengthP90 = p90
	stats.StrengthP99 = p99

	return &stats, nil
}

// strengthPercentiles computes the 50th/90th/99th percentile of token
// strength by loading the sorted strength column; the vocabulary is small
// enough (bounded by distinct tokens observed) that this is simpler and
// more portable than a SQLite window-function query.
func (l *Lattice) strengthPercentiles(ctx context.Context) (p50, p90, p99 uint64, err error) {
	rows, err := l.db.QueryContext(ctx, `SELECT strength FROM tokens ORDER BY strength ASC`)
	if err != nil {
		return 0, 0, 0, wrap(StorageFailure, "stats", err)
	}

	defer func() { _ = rows.Close() }()

	strengths := make([]uint64, 0)

	for rows.Next() {
		var s uint64
		if err := rows.Scan(&s); err != nil {
			return 0, 0, 0, wrap(StorageFailure, "stats", err)
		}

		strengths = append(strengths, s)
	}

	if err := rows.Err(); err != nil {
		return 0, 0, 0, wrap(StorageFailure, "stats", err)
	}

	if len(strengths) == 0 {
		return 0, 0, 0, nil
	}

	// Already ascending from ORDER BY; sort.Slice guards against a
	// collation surprise on the TEXT->INTEGER scan path.
	sort.Slice(strengths, func(i, j int) bool { return strengths[i] < strengths[j] })

	return percentile(strengths, 50), percentile(strengths, 90), percentile(strengths, 99), nil
}

// percentile returns the nearest-rank p-th percentile of sorted (ascending
// order assumed).
func percentile(sorted []uint64, p int) uint64 {
	if len(sorted) == 0 {
		return 0
	}

	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}

	if rank > len(sorted) {
		rank = len(sorted)
	}

	return sorted[rank-1]
}
