package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notepad/pkg/errors"
	"notepad/pkg/middleware"
	"notepad/pkg/models"
	"notepad/pkg/query"
	"notepad/pkg/services"
	"notepad/pkg/storage"
)

var errInvalidJSON = errors.New(errors.ErrTypeValidation, "INVALID_JSON", "request body is not valid JSON").
	WithUserMessage("Invalid JSON")

// APIHandlers contains note API endpoint handlers
type APIHandlers struct {
	notes    *services.NoteService
	settings *storage.SettingsStore
	validate *errors.Validator
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(notes *services.NoteService, settings *storage.SettingsStore) *APIHandlers {
	return &APIHandlers{
		notes:    notes,
		settings: settings,
		validate: errors.NewValidator(),
	}
}

// noteView hides secrets from API responses. Locked notes also hide their
// content until unlocked.
func noteView(note *models.Note, reveal bool) *models.Note {
	note.Password = ""
	if note.IsLocked && !reveal {
		note.Content = ""
	}
	return note
}

func noteViews(notes []*models.Note) []*models.Note {
	for _, n := range notes {
		noteView(n, false)
	}
	return notes
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON.WithCause(err)
	}
	return nil
}

// specFromRequest reads q, category, todo and sort query parameters
func specFromRequest(r *http.Request) query.Spec {
	params := r.URL.Query()
	spec := query.Spec{
		Query: params.Get("q"),
		Sort:  query.ParseSortMode(params.Get("sort")),
	}
	if params.Has("category") {
		spec = spec.InCategory(params.Get("category"))
	}
	if todo, err := strconv.ParseBool(params.Get("todo")); err == nil {
		spec.TodoOnly = todo
	}
	return spec
}

// GetNotesHandler returns the filtered, sorted note list
func (h *APIHandlers) GetNotesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, noteViews(h.notes.List(specFromRequest(r))))
}

// CreateNoteHandler creates a new note
func (h *APIHandlers) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req services.NoteInput
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.Create(req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteView(note, true))
}

// GetNoteHandler returns a specific note by ID
func (h *APIHandlers) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteView(note, false))
}

// UpdateNoteHandler replaces the editable fields of a note
func (h *APIHandlers) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req services.NoteInput
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.Update(chi.URLParam(r, "id"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteView(note, true))
}

// DeleteNoteHandler deletes a note by ID after taking a backup
func (h *APIHandlers) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(chi.URLParam(r, "id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteNoteHandler sets the done state of a to-do
func (h *APIHandlers) CompleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.SetCompleted(chi.URLParam(r, "id"), req.Completed)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteView(note, false))
}

// UnlockNoteHandler returns a locked note's content when the password matches
func (h *APIHandlers) UnlockNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.Unlock(chi.URLParam(r, "id"), req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteView(note, true))
}

// StickyNoteHandler saves a quick-capture note
func (h *APIHandlers) StickyNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.CreateSticky(req.Content)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteView(note, true))
}

// OCRNoteHandler saves text recognized on the device after cleanup
func (h *APIHandlers) OCRNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	note, err := h.notes.CreateFromText(req.Text)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteView(note, true))
}

// CategoriesHandler lists the categories in use
func (h *APIHandlers) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.Categories())
}

// StatsHandler summarizes the note list
func (h *APIHandlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.Stats())
}

// RemindersHandler lists armed reminders
func (h *APIHandlers) RemindersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.Reminders())
}

// ListBackupsHandler lists snapshot names, oldest first
func (h *APIHandlers) ListBackupsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := h.notes.Backups()
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// CreateBackupHandler writes a snapshot now
func (h *APIHandlers) CreateBackupHandler(w http.ResponseWriter, r *http.Request) {
	name, err := h.notes.Backup()
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// RestoreBackupHandler replaces the note list with a snapshot
func (h *APIHandlers) RestoreBackupHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.notes.Restore(chi.URLParam(r, "name"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"restored": count,
	})
}

// ExportHandler writes the plain-text export
func (h *APIHandlers) ExportHandler(w http.ResponseWriter, r *http.Request) {
	path, err := h.notes.Export()
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

type settingsRequest struct {
	Theme           string `json:"theme" validate:"required,oneof=light dark"`
	BackgroundColor string `json:"background_color" validate:"required,hexcolor"`
	FontSize        int    `json:"font_size" validate:"min=8,max=48"`
}

// GetSettingsHandler returns the display settings
func (h *APIHandlers) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Load())
}

// SettingsHandler updates the display settings
func (h *APIHandlers) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if result := h.validate.ValidateStruct(req); !result.IsValid {
		middleware.WriteError(w, result.GetFirstError())
		return
	}

	settings := models.Settings{
		Theme:           req.Theme,
		BackgroundColor: req.BackgroundColor,
		FontSize:        req.FontSize,
	}
	if err := h.settings.Save(settings); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
