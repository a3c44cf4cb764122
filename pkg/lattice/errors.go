package lattice

import (
	"errors"
	"fmt"
)

// Kind classifies a Lattice error into the taxonomy spec §7 requires.
type Kind uint8

const (
	// InvalidArgument marks a caller error: malformed input that could
	// never succeed regardless of store state.
	InvalidArgument Kind = iota
	// NotFound marks a lookup that found nothing - not itself an error
	// condition for callers, but carried as one so [errors.Is] composes.
	NotFound
	// StorageFailure marks a failed write or query against the backing
	// store - fatal to the current ingest pipeline.
	StorageFailure
	// CapacityExceeded marks a hard structural cap being hit - signals a
	// masking assumption failing to hold, not normal operation.
	CapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case StorageFailure:
		return "storage_failure"
	case CapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}

// Sentinel errors for [errors.Is] checks against a Kind, independent of any
// particular Error's message.
var (
	ErrInvalidArgument  = errors.New("lattice: invalid argument")
	ErrNotFound         = errors.New("lattice: not found")
	ErrStorageFailure   = errors.New("lattice: storage failure")
	ErrCapacityExceeded = errors.New("lattice: capacity exceeded")
)

func sentinelFor(k Kind) error {
	switch k {
	case InvalidArgument:
		return ErrInvalidArgument
	case NotFound:
		return ErrNotFound
	case StorageFailure:
		return ErrStorageFailure
	case CapacityExceeded:
		return ErrCapacityExceeded
	default:
		return ErrStorageFailure
	}
}

// Error is the uniform error type returned by Lattice's public operations.
// Use [errors.Is] against the package sentinels to branch on Kind, and
// [errors.As] to recover the Kind directly.
type Error struct {
	Kind Kind
	Op   string // the failing operation, e.g. "getTokenByBytes"
	Err  error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lattice: %s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("lattice: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return sentinelFor(e.Kind)
}

// wrap builds an [*Error] for op, attaching cause if non-nil.
func wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}
