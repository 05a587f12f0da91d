// Package storage holds the flat-file JSON persistence helpers shared by the
// snapshot store, the history journal, and the portfolio database. The only
// concurrency-safety mechanism is atomic replace-on-write: a crash or a
// concurrent reader never observes a partially written file.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PersistenceError reports a failed write to the underlying storage. It is
// fatal for the cycle that triggered it; the previous file is left untouched.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// WriteJSONAtomic marshals v and writes it to path via a temporary file in
// the same directory followed by an atomic rename.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Path: path, Op: "marshal", Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistenceError{Path: path, Op: "mkdir", Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &PersistenceError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &PersistenceError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// ReadJSON loads path into v. A missing file returns os.ErrNotExist
// untouched so callers can substitute an empty state.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupted JSON at %s: %w", path, err)
	}
	return nil
}

// IsNotExist reports whether err means the file was simply absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
