// Package storage provides the JSON file persistence shared by the history
// tracker, the audit trail and allocation snapshots. All writes go through
// an atomic temp-file-plus-rename so an interrupted process never leaves a
// truncated file behind.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	writeAttempts = 3
	retryBackoff  = 50 * time.Millisecond
)

// ErrNotExist reports that the requested file is absent. Callers that treat
// a missing file as "empty state" check for it with errors.Is.
var ErrNotExist = fs.ErrNotExist

// ReadJSON loads the file at path into dst. A missing file returns
// ErrNotExist so callers can fall back to empty state.
func ReadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("storage: parse %s: %w", path, err)
	}
	return nil
}

// WriteJSON persists v as indented JSON at path. The payload is written to a
// temp file in the same directory and renamed into place. Transient rename
// failures (the file held open by another application) are retried a few
// times with a short backoff before the error is surfaced.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: ensure dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close temp for %s: %w", path, err)
	}

	var renameErr error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if renameErr = os.Rename(tmpName, path); renameErr == nil {
			return nil
		}
		time.Sleep(retryBackoff)
	}
	os.Remove(tmpName)
	return fmt.Errorf("storage: cannot persist %s (is the file open in another application?): %w", path, renameErr)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsNotExist reports whether err means the file was absent.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
