package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"

	apperrors "notepad/pkg/errors"
	"notepad/pkg/models"
	"notepad/pkg/performance"
	"notepad/pkg/utils"
)

// NotesFileName is the single document holding every note
const NotesFileName = "notes.json"

// watchDebounce is how long the file must be quiet before a reload
const watchDebounce = 200 * time.Millisecond

// NoteStore persists the whole note list as one JSON document
type NoteStore struct {
	dataDir string
	path    string

	mutex        sync.Mutex
	lastModTime  time.Time
	lastSaveSize int64
}

// NewNoteStore creates a note store rooted at dataDir
func NewNoteStore(dataDir string) *NoteStore {
	return &NoteStore{
		dataDir: dataDir,
		path:    filepath.Join(dataDir, NotesFileName),
	}
}

// GetDataDir returns the data directory path
func (s *NoteStore) GetDataDir() string {
	return s.dataDir
}

// Path returns the location of the notes document
func (s *NoteStore) Path() string {
	return s.path
}

// Save overwrites the stored document with notes. Empty categories are
// written as the default category; the caller's notes are not modified.
func (s *NoteStore) Save(notes []*models.Note) error {
	records := make([]*models.Note, 0, len(notes))
	for _, note := range notes {
		if note == nil {
			continue
		}
		if normalized := models.NormalizeCategory(note.Category); normalized != note.Category {
			note = note.Clone()
			note.Category = normalized
		}
		records = append(records, note)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := writeJSON(s.path, records); err != nil {
		return err
	}

	// Remember our own write so the watcher can skip it
	if info, err := os.Stat(s.path); err == nil {
		s.lastModTime = info.ModTime()
		s.lastSaveSize = info.Size()
	}
	return nil
}

// Load reads the stored list. A missing, unreadable or malformed document
// yields an empty list; the failure is logged, never returned.
func (s *NoteStore) Load() []*models.Note {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Could not read %s, starting with no notes: %v", s.path, err)
		}
		return []*models.Note{}
	}

	return decodeNotes(data, s.path)
}

func decodeNotes(data []byte, source string) []*models.Note {
	var notes []*models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		log.Warnf("Malformed notes document %s, starting with no notes: %v", source, err)
		return []*models.Note{}
	}
	return normalizeNotes(notes)
}

// normalizeNotes drops null records and fills in IDs and categories that
// older documents left out
func normalizeNotes(notes []*models.Note) []*models.Note {
	result := make([]*models.Note, 0, len(notes))
	for _, note := range notes {
		if note == nil {
			continue
		}
		// Documents written before notes had IDs
		if note.ID == "" {
			note.ID = utils.GenerateID()
		}
		note.Category = models.NormalizeCategory(note.Category)
		result = append(result, note)
	}
	return result
}

// isOwnWrite reports whether the file on disk is the one Save produced last
func (s *NoteStore) isOwnWrite() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return info.ModTime().Equal(s.lastModTime) && info.Size() == s.lastSaveSize
}

// Watch calls onChange with the reloaded list whenever the notes document
// is changed by another process. It blocks until ctx is cancelled.
func (s *NoteStore) Watch(ctx context.Context, onChange func([]*models.Note)) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return apperrors.ErrDirectoryCreationFailed.WithCause(err).WithContext("path", s.dataDir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeFileSystem, "WATCH_FAILED", "could not create file watcher")
	}
	defer watcher.Close()

	// The directory is watched because saves replace the file by rename
	if err := watcher.Add(s.dataDir); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeFileSystem, "WATCH_FAILED", "could not watch data directory").
			WithContext("path", s.dataDir)
	}

	debouncer := performance.NewDebouncer(watchDebounce)
	defer debouncer.Stop()

	reload := func() {
		if s.isOwnWrite() {
			return
		}
		log.Infof("Notes document changed externally, reloading")
		onChange(s.Load())
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != NotesFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Debugf("File event: %s %s", event.Op, event.Name)
			debouncer.Debounce(NotesFileName, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}
