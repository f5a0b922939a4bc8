// Package adapter contains the infrastructure adapters of the ccmock CLI:
// file system access, compiler invocation, compilation databases and the
// source frontends.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

// ErrNotFound is returned by FindUpward when no candidate exists.
var ErrNotFound = errors.New("not found")

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when reading sources and writing mock files. It hides direct `os`
// access so the generation logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps generation logic decoupled from os/fs.
type SourceFSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint for the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path so the domain can check existence.
	FileInfo(path m.Path) (os.FileInfo, error)

	// FindUpward searches start and its parent directories for the first of
	// names that exists and returns its full path.
	FindUpward(start m.Path, names ...string) (m.Path, error)

	// WriteFileAtomic replaces path with content. Readers never observe a
	// partially written file.
	WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error

	// StageFile writes content into a temporary sibling of path and returns
	// its name. Every staged file is later passed to CommitFile or DiscardFile.
	StageFile(path m.Path, content []byte, perm os.FileMode) (m.Path, error)

	// CommitFile renames a staged file over path.
	CommitFile(staged, path m.Path) error

	// DiscardFile removes a staged file.
	DiscardFile(staged m.Path) error

	// AbsPath returns an absolute, cleaned version of path.
	AbsPath(path m.Path) (m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter is the os backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the xxh3 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// HashBytes returns the fingerprint HashFile would report for content.
func HashBytes(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// FindUpward walks from start towards the file system root.
func (a *LocalSourceFSAdapter) FindUpward(start m.Path, names ...string) (m.Path, error) {
	dir := string(start)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return m.Path(candidate), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%v in any parent directory of %s: %w", names, start, ErrNotFound)
		}

		dir = parent
	}
}

// WriteFileAtomic writes into a temporary sibling and renames it over path.
func (a *LocalSourceFSAdapter) WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error {
	staged, err := a.StageFile(path, content, perm)
	if err != nil {
		return err
	}

	if err := a.CommitFile(staged, path); err != nil {
		_ = a.DiscardFile(staged)
		return err
	}

	return nil
}

// StageFile creates the directory of path and writes content into a hidden
// temporary file next to it.
func (a *LocalSourceFSAdapter) StageFile(path m.Path, content []byte, perm os.FileMode) (m.Path, error) {
	dir := filepath.Dir(string(path))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(string(path))+".*")
	if err != nil {
		return "", err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return "", err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	return m.Path(tmpName), nil
}

// CommitFile renames staged over path.
func (a *LocalSourceFSAdapter) CommitFile(staged, path m.Path) error {
	return os.Rename(string(staged), string(path))
}

// DiscardFile removes staged. A missing file is not an error.
func (a *LocalSourceFSAdapter) DiscardFile(staged m.Path) error {
	if err := os.Remove(string(staged)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// AbsPath returns the absolute form of path.
func (a *LocalSourceFSAdapter) AbsPath(path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
