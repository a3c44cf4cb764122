// Package fs provides the filesystem abstractions [pkg/lattice] needs for
// its single-writer lock.
//
// The main types are:
//   - [FS]: interface for the filesystem operations [Locker] depends on
//   - [File]: interface for an open lock file (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Locker]: flock(2)-based single-writer lock acquisition
//   - [AtomicWriter]: rename-based atomic file writes (backed directly by
//     github.com/natefinch/atomic, independent of [FS])
package fs

import "os"

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. The intent is os-like
// behavior: implementations must behave like [os.File], including that
// [File.Fd] returns a valid OS file descriptor usable with syscalls (for
// example [syscall.Flock]) until the file is closed.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type File interface {
	// Close closes the file. See [os.File.Close].
	Close() error

	// Fd returns the file descriptor. See [os.File.Fd].
	// Used for low-level operations like [syscall.Flock].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS defines the filesystem operations [Locker] depends on. All methods
// mirror their [os] package equivalents.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
