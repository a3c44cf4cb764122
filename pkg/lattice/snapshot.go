package lattice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/calvinalkan/lattice-tok/pkg/fs"
)

// Snapshot is the on-disk representation written by [Lattice.ExportSnapshot]:
// the full vocabulary and adjacency list plus a summary, for diagnostics and
// offline inspection (spec §4.5, "(new)").
type Snapshot struct {
	Tokens []Token `json:"tokens"`
	Edges  []Edge  `json:"edges"`
	Stats  Stats   `json:"stats"`
}

// ExportSnapshot writes the entire token/edge graph to path as JSON,
// atomically (via pkg/fs.AtomicWriter, backed by github.com/natefinch/atomic -
// the same library the teacher's ticket writers use for durable file
// replacement).
func (l *Lattice) ExportSnapshot(ctx context.Context, path string) error {
	snap, err := l.buildSnapshot(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return wrap(StorageFailure, "exportSnapshot", fmt.Errorf("marshal: %w", err))
	}

	writer := fs.NewAtomicWriter()

	if err := writer.WriteWithDefaults(path, bytes.NewReader(encoded)); err != nil {
		return wrap(StorageFailure, "exportSnapshot", fmt.Errorf("write %q: %w", path, err))
	}

	return nil
}

func (l *Lattice) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	tokens, err := l.allTokens(ctx)
	if err != nil {
		return nil, err
	}

	edges, err := l.allEdges(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := l.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Tokens: tokens, Edges: edges, Stats: *stats}, nil
}

func (l *Lattice) allTokens(ctx context.Context) ([]Token, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, bytes, strength, degree FROM tokens ORDER BY id ASC`)
	if err != nil {
		return nil, wrap(StorageFailure, "exportSnapshot", err)
	}

	defer func() { _ = rows.Close() }()

	tokens := make([]Token, 0)

	for rows.Next() {
		var (
			tok   Token
			bytes string
		)

		if err := rows.Scan(&tok.ID, &bytes, &tok.Strength, &tok.Degree); err != nil {
			return nil, wrap(StorageFailure, "exportSnapshot", err)
		}

		tok.Bytes = HexString(bytes)
		tokens = append(tokens, tok)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(StorageFailure, "exportSnapshot", err)
	}

	return tokens, nil
}

func (l *Lattice) allEdges(ctx context.Context) ([]Edge, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT from_bytes, to_bytes, weight FROM edges WHERE weight > 0
		ORDER BY from_bytes ASC, to_bytes ASC`)
	if err != nil {
		return nil, wrap(StorageFailure, "exportSnapshot", err)
	}

	defer func() { _ = rows.Close() }()

	edges := make([]Edge, 0)

	for rows.Next() {
		var (
			from, to string
			weight   uint64
		)

		if err := rows.Scan(&from, &to, &weight); err != nil {
			return nil, wrap(StorageFailure, "exportSnapshot", err)
		}

		edges = append(edges, Edge{From: HexString(from), To: HexString(to), Weight: weight})
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(StorageFailure, "exportSnapshot", err)
	}

	return edges, nil
}
