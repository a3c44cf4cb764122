package lattice

import (
	"context"
	"fmt"
)

// UpdateTokenDegrees recomputes every token's degree as the count of
// distinct successors it has a positive-weight edge to (spec §4.5).
func (l *Lattice) UpdateTokenDegrees(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(StorageFailure, "updateTokenDegrees", fmt.Errorf("begin: %w", err))
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE tokens SET degree = (
			SELECT COUNT(DISTINCT to_bytes)
			FROM edges
			WHERE edges.from_bytes = tokens.bytes AND edges.weight > 0
		)`)
	if err != nil {
		return wrap(StorageFailure, "updateTokenDegrees", err)
	}

	if err := tx.Commit(); err != nil {
		return wrap(StorageFailure, "updateTokenDegrees", fmt.Errorf("commit: %w", err))
	}

	committed = true

	l.invalidateCaches()

	return nil
}
