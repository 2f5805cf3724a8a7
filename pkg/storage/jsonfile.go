package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "notepad/pkg/errors"
)

// writeFileAtomic writes data next to path and renames it into place so a
// crash never leaves a half-written file behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.ErrDirectoryCreationFailed.WithCause(err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.ErrFileWriteFailed.WithCause(err).WithRetryable(true).WithContext("path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.ErrFileWriteFailed.WithCause(err).WithRetryable(true).WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.ErrFileWriteFailed.WithCause(err).WithRetryable(true).WithContext("path", path)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return apperrors.ErrFileWriteFailed.WithCause(err).WithContext("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.ErrFileWriteFailed.WithCause(err).WithRetryable(true).WithContext("path", path)
	}
	return nil
}

// writeJSON marshals v with indentation and writes it atomically, retrying
// transient failures.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.ErrFileWriteFailed.WithCause(err).WithContext("path", path)
	}
	return apperrors.NewRetryHandler(3).Execute(func() error {
		return writeFileAtomic(path, data)
	})
}
