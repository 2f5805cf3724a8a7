package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	apperrors "notepad/pkg/errors"
	"notepad/pkg/models"
	"notepad/pkg/utils"
)

const (
	backupPrefix = "notes_backup_"
	backupSuffix = ".json"
)

// BackupStore keeps timestamped snapshots of the note list
type BackupStore struct {
	dir string
	now func() time.Time
}

// NewBackupStore creates a backup store writing into dir
func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{dir: dir, now: time.Now}
}

// Dir returns the backup directory
func (b *BackupStore) Dir() string {
	return b.dir
}

// BackupName returns the snapshot file name for a moment in time
func BackupName(t time.Time) string {
	return backupPrefix + utils.FileStamp(t) + backupSuffix
}

// IsBackupName reports whether name looks like a snapshot produced by Backup
func IsBackupName(name string) bool {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	_, ok := utils.ParseFileStamp(stamp)
	return ok
}

// Backup writes a snapshot of notes and returns its file name. Two backups
// in the same second share a name; the later one wins.
func (b *BackupStore) Backup(notes []*models.Note) (string, error) {
	if notes == nil {
		notes = []*models.Note{}
	}
	name := BackupName(b.now())
	path := filepath.Join(b.dir, name)

	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return "", apperrors.ErrBackupFailed.WithCause(err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", apperrors.ErrBackupFailed.WithCause(err).WithContext("path", path)
	}

	log.Infof("Backup created at %s (%d notes)", path, len(notes))
	return name, nil
}

// List returns snapshot names oldest first. A missing directory is empty.
func (b *BackupStore) List() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, apperrors.ErrFileReadFailed.WithCause(err).WithContext("path", b.dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsBackupName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	// The embedded stamp sorts chronologically
	sort.Strings(names)
	return names, nil
}

// Latest returns the newest snapshot name
func (b *BackupStore) Latest() (string, error) {
	names, err := b.List()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", apperrors.ErrBackupNotFound
	}
	return names[len(names)-1], nil
}

// Restore reads a snapshot back. The stored list is returned as is.
func (b *BackupStore) Restore(name string) ([]*models.Note, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, apperrors.ErrBackupNotFound.WithContext("name", name)
	}

	path := filepath.Join(b.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrBackupNotFound.WithContext("name", name)
		}
		return nil, apperrors.ErrBackupCorrupt.WithCause(err).WithContext("name", name)
	}

	var notes []*models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, apperrors.ErrBackupCorrupt.WithCause(err).WithContext("name", name)
	}
	return normalizeNotes(notes), nil
}

// Prune deletes the oldest snapshots so that at most keep remain. keep <= 0
// keeps everything. It returns how many were removed.
func (b *BackupStore) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	names, err := b.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := 0; i < len(names)-keep; i++ {
		path := filepath.Join(b.dir, names[i])
		if err := os.Remove(path); err != nil {
			log.Warnf("Failed to remove old backup %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Infof("Removed %d old backups", removed)
	}
	return removed, nil
}
