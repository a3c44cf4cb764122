package tokenizer

import (
	"context"
	"errors"
	"fmt"
)

// errUnknownTokenID is returned by ToStrings when asked to map an id that no
// longer (or never did) exist.
var errUnknownTokenID = errors.New("unknown token id")

// ToStrings maps token ids to their decoded UTF-8 strings, in order (spec
// §4.7's toStrings).
func (t *Tokenizer) ToStrings(ctx context.Context, ids []uint64) ([]string, error) {
	out := make([]string, len(ids))

	for i, id := range ids {
		raw, err := t.GetTokenBytes(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("toStrings: token %d: %w", id, err)
		}

		if raw == nil {
			return nil, fmt.Errorf("toStrings: token %d: %w", id, errUnknownTokenID)
		}

		out[i] = string(raw)
	}

	return out, nil
}

// GetTokenBytes returns the raw bytes of token id, or nil if no such token
// exists (spec §4.7's getTokenBytes).
func (t *Tokenizer) GetTokenBytes(ctx context.Context, id uint64) ([]byte, error) {
	tok, err := t.store.GetTokenByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tok == nil {
		return nil, nil //nolint:nilnil // absence is not an error, per spec §7
	}

	raw, err := tok.Bytes.Bytes()
	if err != nil {
		return nil, fmt.Errorf("getTokenBytes: decode %q: %w", tok.Bytes, err)
	}

	return raw, nil
}
