package fs

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// AtomicWriter writes files atomically using rename, backed by
// github.com/natefinch/atomic (the same library the teacher's root-level
// ticket writers use): write to a temp file in the destination directory,
// fsync it, then rename it over the destination.
type AtomicWriter struct{}

// NewAtomicWriter creates an AtomicWriter.
func NewAtomicWriter() *AtomicWriter {
	return &AtomicWriter{}
}

// AtomicWriteOptions configures Write. Perm is applied with an explicit
// chmod after the library's write, since atomic.WriteFile always creates
// new files at 0644 regardless of the permissions requested here.
type AtomicWriteOptions struct {
	// Perm specifies the file permissions. Zero uses 0644.
	Perm os.FileMode
}

// Write writes data from r to path atomically and durably.
func (*AtomicWriter) Write(path string, r io.Reader, opts AtomicWriteOptions) error {
	if r == nil {
		panic("reader is nil")
	}

	if path == "" {
		return errors.New("path is empty")
	}

	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("atomic write %q: %w", path, err)
	}

	if opts.Perm != 0 {
		if err := os.Chmod(path, opts.Perm); err != nil { //nolint:gosec // opts.Perm is caller-controlled by design
			return fmt.Errorf("chmod %q: %w", path, err)
		}
	}

	return nil
}

// WriteWithDefaults writes content atomically using default options.
func (w *AtomicWriter) WriteWithDefaults(path string, r io.Reader) error {
	return w.Write(path, r, w.DefaultOptions())
}

// DefaultOptions returns the default atomic write options.
func (*AtomicWriter) DefaultOptions() AtomicWriteOptions {
	return AtomicWriteOptions{Perm: 0o644}
}
