package lattice

import (
	"context"
	"database/sql"
	"fmt"
)

// BatchIngest transactionally aggregates duplicate token/edge occurrences
// and upserts them: token strength and edge weight are summed across
// duplicates in the batch, then added to whatever is already stored.
// All-or-nothing (spec §4.5).
func (l *Lattice) BatchIngest(ctx context.Context, tokens []TokenOccurrence, edges []EdgeOccurrence) error {
	if len(tokens) == 0 && len(edges) == 0 {
		return nil
	}

	tokenDelta := aggregateTokenOccurrences(tokens)
	edgeDelta := aggregateEdgeOccurrences(edges)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(StorageFailure, "batchIngest", fmt.Errorf("begin: %w", err))
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmts, err := prepareBatchStatements(ctx, tx)
	if err != nil {
		return wrap(StorageFailure, "batchIngest", err)
	}

	defer stmts.close()

	for bytes, strengthDelta := range tokenDelta {
		if _, err := stmts.upsertToken.ExecContext(ctx, string(bytes), strengthDelta); err != nil {
			return wrap(StorageFailure, "batchIngest", fmt.Errorf("upsert token %q: %w", bytes, err))
		}
	}

	for key, weightDelta := range edgeDelta {
		if _, err := stmts.upsertEdge.ExecContext(ctx, string(key.from), string(key.to), weightDelta); err != nil {
			return wrap(StorageFailure, "batchIngest", fmt.Errorf("upsert edge %q->%q: %w", key.from, key.to, err))
		}
	}

	if err := stmts.close(); err != nil {
		return wrap(StorageFailure, "batchIngest", fmt.Errorf("close prepared statements: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return wrap(StorageFailure, "batchIngest", fmt.Errorf("commit: %w", err))
	}

	committed = true

	l.invalidateCaches()

	return nil
}

func aggregateTokenOccurrences(tokens []TokenOccurrence) map[HexString]uint64 {
	delta := make(map[HexString]uint64, len(tokens))
	for _, t := range tokens {
		delta[t.Bytes]++
	}

	return delta
}

type edgeKey struct {
	from HexString
	to   HexString
}

func aggregateEdgeOccurrences(edges []EdgeOccurrence) map[edgeKey]uint64 {
	delta := make(map[edgeKey]uint64, len(edges))
	for _, e := range edges {
		delta[edgeKey{from: e.From, to: e.To}] += e.Weight
	}

	return delta
}

// batchStatements holds the prepared statements reused across one
// BatchIngest transaction (grounded on pkg/mddb's Config.Prepare /
// PreparedStatements pattern: prepare once per transaction, reuse across
// every row in the batch, close before commit).
type batchStatements struct {
	upsertToken *sql.Stmt
	upsertEdge  *sql.Stmt
}

func prepareBatchStatements(ctx context.Context, tx *sql.Tx) (*batchStatements, error) {
	upsertToken, err := tx.PrepareContext(ctx, `
		INSERT INTO tokens (bytes, strength, degree) VALUES (?, ?, 0)
		ON CONFLICT(bytes) DO UPDATE SET strength = strength + excluded.strength`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert token: %w", err)
	}

	success := false

	defer func() {
		if !success {
			_ = upsertToken.Close()
		}
	}()

	upsertEdge, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (from_bytes, to_bytes, weight) VALUES (?, ?, ?)
		ON CONFLICT(from_bytes, to_bytes) DO UPDATE SET weight = weight + excluded.weight`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert edge: %w", err)
	}

	success = true

	return &batchStatements{upsertToken: upsertToken, upsertEdge: upsertEdge}, nil
}

func (s *batchStatements) close() error {
	tokenErr := s.upsertToken.Close()
	edgeErr := s.upsertEdge.Close()

	if tokenErr != nil {
		return tokenErr
	}

	return edgeErr
}
