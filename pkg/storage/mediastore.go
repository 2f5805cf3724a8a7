package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/gommon/log"

	"notepad/pkg/attachments"
	apperrors "notepad/pkg/errors"
	"notepad/pkg/utils"
)

// MediaDirName is the folder under the data dir holding imported attachments
const MediaDirName = "media"

// MediaFile describes one imported attachment
type MediaFile struct {
	Path        string           `json:"path"`
	Kind        attachments.Kind `json:"kind"`
	ContentType string           `json:"content_type"`
	Size        int64            `json:"size"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MediaStore copies attachments into the data directory so notes do not
// depend on files the user may move or delete
type MediaStore struct {
	dir   string
	mutex sync.RWMutex
}

// NewMediaStore creates a media store under dataDir
func NewMediaStore(dataDir string) *MediaStore {
	return &MediaStore{dir: filepath.Join(dataDir, MediaDirName)}
}

// Dir returns the media root
func (m *MediaStore) Dir() string {
	return m.dir
}

// Import validates src as media of kind and copies it in under a fresh
// name. The returned path is what a note should reference.
func (m *MediaStore) Import(kind attachments.Kind, src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", attachments.ErrAttachmentMissing.WithContext("kind", string(kind))
	}
	if err := attachments.Validate(kind, src); err != nil {
		return "", err
	}

	mt, err := mimetype.DetectFile(src)
	if err != nil {
		return "", attachments.ErrAttachmentMissing.WithCause(err).WithContext("path", src)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	kindDir := filepath.Join(m.dir, string(kind))
	if err := os.MkdirAll(kindDir, 0750); err != nil {
		return "", apperrors.ErrDirectoryCreationFailed.WithCause(err).WithContext("path", kindDir)
	}

	dst := filepath.Join(kindDir, utils.GenerateID()+mt.Extension())
	if err := copyFile(src, dst); err != nil {
		return "", apperrors.ErrFileWriteFailed.WithCause(err).WithContext("path", dst)
	}

	log.Infof("Imported %s attachment %s as %s", kind, src, dst)
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".import-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Delete removes an imported file. Paths outside the media root are refused.
func (m *MediaStore) Delete(path string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.owns(path) {
		return attachments.ErrAttachmentMissing.WithContext("path", path)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return attachments.ErrAttachmentMissing.WithContext("path", path)
		}
		return apperrors.ErrFileWriteFailed.WithCause(err).WithContext("path", path)
	}
	return nil
}

func (m *MediaStore) owns(path string) bool {
	rel, err := filepath.Rel(m.dir, filepath.Clean(path))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// List returns imported files of kind, oldest first. A missing folder is empty.
func (m *MediaStore) List(kind attachments.Kind) ([]MediaFile, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	kindDir := filepath.Join(m.dir, string(kind))
	entries, err := os.ReadDir(kindDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []MediaFile{}, nil
		}
		return nil, apperrors.ErrFileReadFailed.WithCause(err).WithContext("path", kindDir)
	}

	files := make([]MediaFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(kindDir, entry.Name())
		contentType, _ := attachments.Detect(path)
		files = append(files, MediaFile{
			Path:        path,
			Kind:        kind,
			ContentType: contentType,
			Size:        info.Size(),
			CreatedAt:   info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}
