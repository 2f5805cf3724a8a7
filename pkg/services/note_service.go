package services

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"notepad/pkg/attachments"
	"notepad/pkg/errors"
	"notepad/pkg/metrics"
	"notepad/pkg/models"
	"notepad/pkg/ocr"
	"notepad/pkg/query"
	"notepad/pkg/reminder"
	"notepad/pkg/storage"
	"notepad/pkg/utils"
)

const (
	stickyTitle    = "Sticky Note"
	stickyCategory = "Sticky"
	ocrTitle       = "OCR Text"
	ocrCategory    = "OCR"
)

var (
	ErrStickyEmpty = errors.New(errors.ErrTypeValidation, "STICKY_EMPTY", "sticky note has no content").
			WithUserMessage("Please enter some content")

	ErrOCRTextEmpty = errors.New(errors.ErrTypeValidation, "OCR_TEXT_EMPTY", "no text was recognized").
			WithUserMessage("No text was recognized in the image")

	ErrNotePasswordEmpty = errors.New(errors.ErrTypeValidation, "NOTE_PASSWORD_EMPTY", "locked note needs a password").
				WithUserMessage("Please set a password for the locked note")
)

// NoteInput carries the editable fields of a note
type NoteInput struct {
	Title      string     `json:"title" validate:"max=200"`
	Content    string     `json:"content"`
	Category   string     `json:"category" validate:"max=50"`
	Color      string     `json:"color" validate:"max=32"`
	IsTodo     bool       `json:"is_todo"`
	Priority   string     `json:"priority"`
	ReminderAt *time.Time `json:"reminder_at"`
	ImagePath  string     `json:"image_path"`
	AudioPath  string     `json:"audio_path"`
	VideoPath  string     `json:"video_path"`
	IsLocked   bool       `json:"is_locked"`
	Password   string     `json:"password"`
}

// Stats summarizes the note list
type Stats struct {
	Total        int            `json:"total"`
	Todos        int            `json:"todos"`
	Completed    int            `json:"completed"`
	Pending      int            `json:"pending"`
	Sticky       int            `json:"sticky"`
	Locked       int            `json:"locked"`
	WithMedia    int            `json:"with_media"`
	WithReminder int            `json:"with_reminder"`
	ByCategory   map[string]int `json:"by_category"`
}

// NoteService owns the authoritative note list and keeps the store,
// backups and reminders in step with it
type NoteService struct {
	mutex sync.RWMutex
	notes []*models.Note

	store      *storage.NoteStore
	backups    *storage.BackupStore
	exporter   *storage.Exporter
	reminders  *reminder.Scheduler
	validator  *errors.Validator
	maxBackups int
	now        func() time.Time
}

// NewNoteService creates a new note service
func NewNoteService(store *storage.NoteStore, backups *storage.BackupStore, exporter *storage.Exporter, reminders *reminder.Scheduler) *NoteService {
	return &NoteService{
		notes:     []*models.Note{},
		store:     store,
		backups:   backups,
		exporter:  exporter,
		reminders: reminders,
		validator: errors.NewValidator(),
		now:       time.Now,
	}
}

// SetMaxBackups limits how many snapshots are kept; 0 keeps all
func (s *NoteService) SetMaxBackups(n int) {
	s.mutex.Lock()
	s.maxBackups = n
	s.mutex.Unlock()
}

// Load replaces the in-memory list with the stored one and re-arms reminders
func (s *NoteService) Load() int {
	notes := s.store.Load()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.replaceLocked(notes)
	log.Infof("Loaded %d notes", len(notes))
	return len(notes)
}

// Reload adopts a list changed outside this process without writing it back
func (s *NoteService) Reload(notes []*models.Note) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.replaceLocked(notes)
	log.Infof("Reloaded %d notes after external change", len(notes))
}

func (s *NoteService) replaceLocked(notes []*models.Note) {
	if notes == nil {
		notes = []*models.Note{}
	}
	s.notes = notes
	metrics.NotesLoaded.Set(float64(len(notes)))
	s.reminders.ResyncAll(s.notes)
}

// List returns the notes matching spec as copies
func (s *NoteService) List(spec query.Spec) []*models.Note {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return models.CloneNotes(query.Derive(s.notes, spec))
}

// Get returns a copy of the note with id
func (s *NoteService) Get(id string) (*models.Note, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, note, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	return note.Clone(), nil
}

func (s *NoteService) findLocked(id string) (int, *models.Note, error) {
	for i, note := range s.notes {
		if note.ID == id {
			return i, note, nil
		}
	}
	return -1, nil, errors.ErrNoteNotFound.WithContext("noteId", id)
}

func (s *NoteService) validate(input NoteInput) (string, models.Priority, error) {
	if result := s.validator.ValidateStruct(input); !result.IsValid {
		return "", 0, result.GetFirstError()
	}
	if result := s.validator.ValidateNoteContent(input.Content); !result.IsValid {
		return "", 0, result.GetFirstError()
	}

	title, ok := models.DeriveTitle(input.Title, input.Content)
	if !ok {
		return "", 0, errors.ErrNoteEmpty
	}

	priority, err := models.ParsePriority(input.Priority)
	if err != nil {
		return "", 0, errors.New(errors.ErrTypeValidation, "PRIORITY_INVALID", err.Error())
	}

	if input.IsLocked && input.Password == "" {
		return "", 0, ErrNotePasswordEmpty
	}

	slots := []struct {
		kind attachments.Kind
		path string
	}{
		{attachments.Image, input.ImagePath},
		{attachments.Audio, input.AudioPath},
		{attachments.Video, input.VideoPath},
	}
	for _, slot := range slots {
		if err := attachments.Validate(slot.kind, slot.path); err != nil {
			return "", 0, err
		}
	}

	return title, priority, nil
}

// apply copies input onto note. Priority and reminder only apply to to-dos.
func apply(note *models.Note, input NoteInput, title string, priority models.Priority, now time.Time) {
	note.SetTitle(title, now)
	note.SetContent(strings.TrimSpace(input.Content), now)
	note.SetCategory(strings.TrimSpace(input.Category))
	note.Color = input.Color
	note.IsTodo = input.IsTodo
	if input.IsTodo {
		note.Priority = priority
		if input.ReminderAt != nil {
			at := *input.ReminderAt
			note.ReminderAt = &at
		} else {
			note.ReminderAt = nil
		}
	} else {
		note.Priority = models.PriorityMedium
		note.ReminderAt = nil
		note.IsCompleted = false
	}
	note.ImagePath = input.ImagePath
	note.AudioPath = input.AudioPath
	note.VideoPath = input.VideoPath
	note.IsLocked = input.IsLocked
	if input.IsLocked {
		note.Password = input.Password
	} else {
		note.Password = ""
	}
	note.ModifiedAt = now
}

// persistLocked saves the whole list. On failure the in-memory change stays.
func (s *NoteService) persistLocked() error {
	err := s.store.Save(s.notes)
	metrics.NoteSaves.WithLabelValues(metrics.Result(err)).Inc()
	metrics.NotesLoaded.Set(float64(len(s.notes)))
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok || !stderrors.Is(err, errors.ErrFileWriteFailed) {
			appErr = errors.ErrFileWriteFailed.WithCause(err)
		}
		appErr.Log()
		return appErr
	}
	return nil
}

// Create validates input and appends a new note
func (s *NoteService) Create(input NoteInput) (*models.Note, error) {
	title, priority, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	note := models.NewNote(utils.GenerateID(), "", "", "", now)
	apply(note, input, title, priority, now)

	return s.insert(note)
}

func (s *NoteService) insert(note *models.Note) (*models.Note, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.notes = append(s.notes, note)
	if note.IsTodo {
		s.reminders.Schedule(note)
	}
	if err := s.persistLocked(); err != nil {
		return note.Clone(), err
	}

	log.Infof("Note created successfully: %s", note.ID)
	return note.Clone(), nil
}

// Update replaces the editable fields of the note with id
func (s *NoteService) Update(id string, input NoteInput) (*models.Note, error) {
	title, priority, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, note, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}

	apply(note, input, title, priority, s.now())

	s.reminders.Cancel(note.ID)
	if note.IsTodo {
		s.reminders.Schedule(note)
	}
	if err := s.persistLocked(); err != nil {
		return note.Clone(), err
	}

	log.Infof("Note updated successfully: %s", note.ID)
	return note.Clone(), nil
}

// SetCompleted toggles the done state of a to-do
func (s *NoteService) SetCompleted(id string, completed bool) (*models.Note, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, note, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}

	note.SetCompleted(completed, s.now())
	if err := s.persistLocked(); err != nil {
		return note.Clone(), err
	}
	return note.Clone(), nil
}

// Unlock checks the password of a locked note and returns it
func (s *NoteService) Unlock(id, password string) (*models.Note, error) {
	note, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !note.CheckPassword(password) {
		return nil, errors.ErrInvalidNotePassword.WithContext("noteId", id)
	}
	return note, nil
}

// Delete snapshots the list, then removes the note. The delete is
// abandoned if the snapshot cannot be written.
func (s *NoteService) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	idx, _, err := s.findLocked(id)
	if err != nil {
		return err
	}

	if _, err := s.backupLocked(); err != nil {
		return err
	}

	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)
	s.reminders.Cancel(id)

	if err := s.persistLocked(); err != nil {
		return err
	}
	log.Infof("Note deleted: %s", id)
	return nil
}

func (s *NoteService) backupLocked() (string, error) {
	name, err := s.backups.Backup(s.notes)
	metrics.Backups.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok {
			appErr = errors.ErrBackupFailed.WithCause(err)
		}
		appErr.Log()
		return "", appErr
	}

	if _, err := s.backups.Prune(s.maxBackups); err != nil {
		log.Warnf("Backup pruning failed: %v", err)
	}
	return name, nil
}

// Backup writes a snapshot of the current list and returns its name
func (s *NoteService) Backup() (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.backupLocked()
}

// Backups lists snapshot names, oldest first
func (s *NoteService) Backups() ([]string, error) {
	return s.backups.List()
}

// Restore replaces the list with a snapshot and persists it
func (s *NoteService) Restore(name string) (int, error) {
	notes, err := s.backups.Restore(name)
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.replaceLocked(notes)
	if err := s.persistLocked(); err != nil {
		return len(notes), err
	}
	log.Infof("Restored %d notes from %s", len(notes), name)
	return len(notes), nil
}

// Export writes the text export of the current list
func (s *NoteService) Export() (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.exporter.Export(s.notes)
}

// Categories returns the distinct categories in use
func (s *NoteService) Categories() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return query.Categories(s.notes)
}

// Reminders lists armed reminders, soonest first
func (s *NoteService) Reminders() []reminder.Reminder {
	return s.reminders.Pending()
}

// Stats counts notes by kind and category
func (s *NoteService) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := Stats{ByCategory: make(map[string]int)}
	for _, note := range s.notes {
		stats.Total++
		stats.ByCategory[models.NormalizeCategory(note.Category)]++
		if note.IsTodo {
			stats.Todos++
			if note.IsCompleted {
				stats.Completed++
			} else {
				stats.Pending++
			}
			if note.ReminderAt != nil {
				stats.WithReminder++
			}
		}
		if note.IsSticky {
			stats.Sticky++
		}
		if note.IsLocked {
			stats.Locked++
		}
		if note.HasMedia() {
			stats.WithMedia++
		}
	}
	return stats
}

// CreateSticky saves a quick-capture note
func (s *NoteService) CreateSticky(content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrStickyEmpty
	}

	note := models.NewNote(utils.GenerateID(), stickyTitle, content, stickyCategory, s.now())
	note.IsSticky = true
	return s.insert(note)
}

// CreateFromText saves recognized text after cleanup
func (s *NoteService) CreateFromText(text string) (*models.Note, error) {
	cleaned := strings.TrimSpace(ocr.Clean(text))
	if cleaned == "" {
		return nil, ErrOCRTextEmpty
	}

	note := models.NewNote(utils.GenerateID(), ocrTitle, cleaned, ocrCategory, s.now())
	return s.insert(note)
}

// CreateFromImage runs recognizer over the image and saves the text
func (s *NoteService) CreateFromImage(ctx context.Context, imagePath string, recognizer ocr.Recognizer) (*models.Note, error) {
	if err := attachments.Validate(attachments.Image, imagePath); err != nil {
		return nil, err
	}

	text, err := recognizer.Recognize(ctx, imagePath)
	if err != nil {
		appErr := errors.Wrap(err, errors.ErrTypeApp, "OCR_FAILED", "text recognition failed").
			WithUserMessage("Text recognition failed").
			WithContext("path", imagePath)
		appErr.Log()
		return nil, appErr
	}
	return s.CreateFromText(text)
}

// VoiceSearch lists notes matching the phrase heard by recognizer
func (s *NoteService) VoiceSearch(ctx context.Context, recognizer ocr.SpeechRecognizer, spec query.Spec) ([]*models.Note, string, error) {
	phrase, err := recognizer.Listen(ctx)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrTypeApp, "SPEECH_FAILED", "speech recognition failed").
			WithUserMessage("Speech recognition failed")
	}

	spec.Query = strings.TrimSpace(phrase)
	return s.List(spec), spec.Query, nil
}
