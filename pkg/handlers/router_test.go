package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepad/pkg/auth"
	"notepad/pkg/errors"
	"notepad/pkg/models"
	"notepad/pkg/notify"
	"notepad/pkg/reminder"
	"notepad/pkg/services"
	"notepad/pkg/storage"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	timers := reminder.NewAfterFuncTimers()
	scheduler := reminder.NewScheduler(timers, nil, nil)
	t.Cleanup(func() {
		scheduler.Stop()
		timers.Stop()
	})

	sessions := auth.NewManager(time.Minute)
	deps := Deps{
		Notes: services.NewNoteService(
			storage.NewNoteStore(dir),
			storage.NewBackupStore(filepath.Join(dir, "backups")),
			storage.NewExporter(filepath.Join(dir, "exports")),
			scheduler,
		),
		Auth:     services.NewAuthService(storage.NewUserStore(dir), storage.NewPrefsStore(dir), sessions),
		Sessions: sessions,
		Settings: storage.NewSettingsStore(dir),
		Hub:      notify.NewHub(),
	}
	return &testServer{t: t, handler: NewRouter(deps)}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login() {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", services.RegisterRequest{Username: "ann", Password: "secret1"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/login", services.LoginRequest{Username: "ann", Password: "secret1"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var session models.Session
	require.NoError(s.t, json.NewDecoder(rec.Body).Decode(&session))
	s.token = session.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notepad_")
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/notes", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.login()
	s.token = ""

	rec := s.do(http.MethodPost, "/auth/login", services.LoginRequest{Username: "ann", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/register", services.RegisterRequest{Username: "ann", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/auth/register", services.RegisterRequest{Username: "ann", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", services.LoginRequest{Username: "ann", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.AddCookie(cookies[0])
	got := httptest.NewRecorder()
	s.handler.ServeHTTP(got, req)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestNoteCRUD(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/api/notes", services.NoteInput{Title: "Groceries", Content: "milk", Category: "Home"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Note
	decodeBody(t, rec, &created)
	assert.Equal(t, "Groceries", created.Title)

	rec = s.do(http.MethodGet, "/api/notes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/notes/"+created.ID, services.NoteInput{Title: "Groceries", Content: "milk, eggs", Category: "Home"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Note
	decodeBody(t, rec, &updated)
	assert.Equal(t, "milk, eggs", updated.Content)

	rec = s.do(http.MethodGet, "/api/categories", nil)
	var categories []string
	decodeBody(t, rec, &categories)
	assert.Equal(t, []string{"Home"}, categories)

	rec = s.do(http.MethodDelete, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errors.FrontendError
	decodeBody(t, rec, &body)
	assert.Equal(t, "NOTE_NOT_FOUND", body.Code)

	rec = s.do(http.MethodGet, "/api/backups", nil)
	var backups []string
	decodeBody(t, rec, &backups)
	assert.Len(t, backups, 1)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/api/notes", services.NoteInput{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewBufferString("{broken"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	got := httptest.NewRecorder()
	s.handler.ServeHTTP(got, req)
	assert.Equal(t, http.StatusBadRequest, got.Code)
}

func TestListFilters(t *testing.T) {
	s := newTestServer(t)
	s.login()

	for _, in := range []services.NoteInput{
		{Title: "Alpha", Category: "Work"},
		{Title: "beta", Category: "Home", IsTodo: true},
		{Title: "Gamma", Category: "Work", IsTodo: true},
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/notes", in).Code)
	}

	var notes []models.Note
	decodeBody(t, s.do(http.MethodGet, "/api/notes?sort=title", nil), &notes)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"Alpha", "beta", "Gamma"}, []string{notes[0].Title, notes[1].Title, notes[2].Title})

	decodeBody(t, s.do(http.MethodGet, "/api/notes?category=Work&todo=true", nil), &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "Gamma", notes[0].Title)

	decodeBody(t, s.do(http.MethodGet, "/api/notes?q=zzz", nil), &notes)
	assert.Empty(t, notes)
}

func TestLockedNotesAreRedacted(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/api/notes", services.NoteInput{Title: "diary", Content: "secret", IsLocked: true, Password: "1234"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Note
	decodeBody(t, rec, &created)
	assert.Empty(t, created.Password)

	var listed []models.Note
	decodeBody(t, s.do(http.MethodGet, "/api/notes", nil), &listed)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].Content)
	assert.Empty(t, listed[0].Password)

	rec = s.do(http.MethodPost, "/api/notes/"+created.ID+"/unlock", map[string]string{"password": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/notes/"+created.ID+"/unlock", map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	var unlocked models.Note
	decodeBody(t, rec, &unlocked)
	assert.Equal(t, "secret", unlocked.Content)
	assert.Empty(t, unlocked.Password)
}

func TestStickyOCRAndStats(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/api/notes/sticky", map[string]string{"content": "call mum"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/notes/ocr", map[string]string{"text": "Invoice total 42"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/notes/sticky", map[string]string{"content": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var stats services.Stats
	decodeBody(t, s.do(http.MethodGet, "/api/stats", nil), &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Sticky)
	assert.Equal(t, map[string]int{"Sticky": 1, "OCR": 1}, stats.ByCategory)
}

func TestCompleteAndReminders(t *testing.T) {
	s := newTestServer(t)
	s.login()

	at := time.Now().Add(time.Hour)
	rec := s.do(http.MethodPost, "/api/notes", services.NoteInput{Title: "pay rent", IsTodo: true, ReminderAt: &at})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Note
	decodeBody(t, rec, &created)

	var pending []reminder.Reminder
	decodeBody(t, s.do(http.MethodGet, "/api/reminders", nil), &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].NoteID)

	rec = s.do(http.MethodPost, "/api/notes/"+created.ID+"/complete", map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var done models.Note
	decodeBody(t, rec, &done)
	assert.True(t, done.IsCompleted)
}

func TestBackupRestoreExport(t *testing.T) {
	s := newTestServer(t)
	s.login()

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/notes", services.NoteInput{Title: "keep"}).Code)

	rec := s.do(http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var backup map[string]string
	decodeBody(t, rec, &backup)
	require.NotEmpty(t, backup["name"])

	rec = s.do(http.MethodPost, "/api/backups/"+backup["name"]+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/backups/notes_backup_19990101_000000.json/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var export map[string]string
	decodeBody(t, rec, &export)
	assert.FileExists(t, export["path"])
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	s.login()

	var settings models.Settings
	decodeBody(t, s.do(http.MethodGet, "/api/settings", nil), &settings)
	assert.Equal(t, models.DefaultSettings(), settings)

	rec := s.do(http.MethodPut, "/api/settings", models.Settings{Theme: "dark", BackgroundColor: "#000000", FontSize: 18})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	decodeBody(t, s.do(http.MethodGet, "/api/settings", nil), &settings)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, 18, settings.FontSize)

	rec = s.do(http.MethodPut, "/api/settings", models.Settings{Theme: "neon", BackgroundColor: "#000000", FontSize: 18})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.login()

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/notes", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/logout", nil).Code)
}
