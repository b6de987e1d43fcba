// Package statestore persists the small pieces of state that must survive
// across invocations: the commit-range marker recorded for each request
// during an update, the original-directory record a work directory uses to
// hand control back, and the last-directory pointer consumed by the shell
// wrapper. Each record is a single file holding a single string.
package statestore

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	originalDirFile = "original_dir_path"
	lastDirFile     = "last-dir"
)

// Store is a file-backed key/value side channel rooted at one directory.
// Writes go through a temp file and a rename, so a crash mid-write leaves
// either the old value or the new one, never a torn record. There is no
// locking: a single developer runs a single invocation at a time.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns the process-wide store used for commit-range markers and
// the shell last-directory pointer.
func Default() *Store {
	return New(filepath.Join(os.TempDir(), "git-pull-request"))
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) put(name, value string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record %s: %w", name, err)
	}

	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store record %s: %w", name, err)
	}
	return nil
}

func (s *Store) get(name string) (string, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read record %s: %w", name, err)
	}
	return string(data), true, nil
}

// take reads a record and deletes it. Absence is not an error.
func (s *Store) take(name string) (string, bool, error) {
	value, ok, err := s.get(name)
	if err != nil || !ok {
		return "", false, err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to consume record %s: %w", name, err)
	}
	return value, true, nil
}

func (s *Store) delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record %s: %w", name, err)
	}
	return nil
}

func commitRangeName(requestID int) string {
	return fmt.Sprintf("treeish-%d", requestID)
}

// PutCommitRange records the commit-range marker for a request. The marker is
// written before the update operation runs, so it reflects the work done so
// far even when the update later fails.
func (s *Store) PutCommitRange(requestID int, marker string) error {
	return s.put(commitRangeName(requestID), marker)
}

// TakeCommitRange returns the marker recorded for a request and deletes it.
// The second return is false when no marker was recorded, which is the normal
// case for a request that was never updated locally.
func (s *Store) TakeCommitRange(requestID int) (string, bool, error) {
	return s.take(commitRangeName(requestID))
}

// DeleteCommitRange removes any marker recorded for a request. A fresh fetch
// invalidates prior range bookkeeping, so this runs on every fetch.
func (s *Store) DeleteCommitRange(requestID int) error {
	return s.delete(commitRangeName(requestID))
}

// PutOriginalDir records the directory to return to after work in a
// redirected checkout completes. Meaningful on a store rooted at the work
// directory's .git directory.
func (s *Store) PutOriginalDir(path string) error {
	return s.put(originalDirFile, path)
}

// OriginalDir returns the recorded original directory, if any.
func (s *Store) OriginalDir() (string, bool, error) {
	return s.get(originalDirFile)
}

// PutLastDir records the directory the invocation ended in. A shell wrapper
// reads it to follow the tool across directory switches.
func (s *Store) PutLastDir(path string) error {
	return s.put(lastDirFile, path)
}

// LastDir returns the recorded last directory, if any.
func (s *Store) LastDir() (string, bool, error) {
	return s.get(lastDirFile)
}
