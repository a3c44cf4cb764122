package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_RealFS_OpenFile_CreatesFileWithRequestedPerm(t *testing.T) {
	r := NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	f, err := r.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%v, want 0600", info.Mode().Perm())
	}
}

func Test_RealFS_MkdirAll_CreatesNestedDirs(t *testing.T) {
	r := NewReal()
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := r.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if _, err := r.Stat(nested); err != nil {
		t.Fatalf("Stat after MkdirAll: %v", err)
	}
}

func Test_RealFS_Stat_ReturnsNotExistForMissingPath(t *testing.T) {
	r := NewReal()
	dir := t.TempDir()

	_, err := r.Stat(filepath.Join(dir, "does-not-exist.txt"))
	if !os.IsNotExist(err) {
		t.Fatalf("err=%v, want os.ErrNotExist", err)
	}
}
