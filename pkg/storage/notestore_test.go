package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepad/pkg/models"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 5, 0, time.Local)

func sampleNotes() []*models.Note {
	a := models.NewNote("1f0b5a4c-5a55-4b3e-9d76-6c1d7d2c1a01", "Shopping", "milk, eggs", "Home", fixedNow)
	a.IsTodo = true
	a.Priority = models.PriorityHigh
	at := fixedNow.Add(time.Hour)
	a.ReminderAt = &at

	b := models.NewNote("1f0b5a4c-5a55-4b3e-9d76-6c1d7d2c1a02", "Idea", "write a notepad", "", fixedNow.Add(time.Minute))
	b.ImagePath = "/tmp/idea.png"
	b.IsLocked = true
	b.Password = "secret"
	return []*models.Note{a, b}
}

func TestNoteStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewNoteStore(t.TempDir())
	notes := sampleNotes()

	require.NoError(t, store.Save(notes))
	loaded := store.Load()

	require.Len(t, loaded, 2)
	for i := range notes {
		assert.Equal(t, notes[i].ID, loaded[i].ID)
		assert.Equal(t, notes[i].Title, loaded[i].Title)
		assert.Equal(t, notes[i].Content, loaded[i].Content)
		assert.True(t, notes[i].CreatedAt.Equal(loaded[i].CreatedAt))
		assert.Equal(t, notes[i].Priority, loaded[i].Priority)
		assert.Equal(t, notes[i].IsLocked, loaded[i].IsLocked)
		assert.Equal(t, notes[i].Password, loaded[i].Password)
		assert.Equal(t, notes[i].ImagePath, loaded[i].ImagePath)
	}
	require.NotNil(t, loaded[0].ReminderAt)
	assert.True(t, notes[0].ReminderAt.Equal(*loaded[0].ReminderAt))
	assert.Nil(t, loaded[1].ReminderAt)
}

func TestNoteStoreSaveOverwrites(t *testing.T) {
	store := NewNoteStore(t.TempDir())

	require.NoError(t, store.Save(sampleNotes()))
	require.NoError(t, store.Save(sampleNotes()[:1]))
	assert.Len(t, store.Load(), 1)

	require.NoError(t, store.Save(nil))
	assert.Empty(t, store.Load())
}

func TestNoteStoreNormalizesCategoryWithoutTouchingCaller(t *testing.T) {
	store := NewNoteStore(t.TempDir())
	note := models.NewNote("id-1", "t", "c", "", fixedNow)
	note.Category = ""

	require.NoError(t, store.Save([]*models.Note{note}))
	assert.Equal(t, "", note.Category)
	assert.Equal(t, models.DefaultCategory, store.Load()[0].Category)
}

func TestNoteStoreLoadFailsOpen(t *testing.T) {
	dir := t.TempDir()
	store := NewNoteStore(dir)

	assert.Empty(t, store.Load())
	assert.NotNil(t, store.Load())

	require.NoError(t, os.WriteFile(filepath.Join(dir, NotesFileName), []byte("{not json"), 0644))
	assert.Empty(t, store.Load())
}

func TestNoteStoreAssignsMissingIDs(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"title":"old","content":"from before ids","created_at":"2020-01-01T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, NotesFileName), []byte(legacy), 0644))

	loaded := NewNoteStore(dir).Load()
	require.Len(t, loaded, 1)
	assert.NotEmpty(t, loaded[0].ID)
	assert.Equal(t, models.DefaultCategory, loaded[0].Category)
	assert.Equal(t, models.PriorityMedium, loaded[0].Priority)
}

func TestNoteStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewNoteStore(dir).Save(sampleNotes()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, NotesFileName, entries[0].Name())
}

func TestNoteStoreWatchReloadsExternalChanges(t *testing.T) {
	dir := t.TempDir()
	store := NewNoteStore(dir)
	require.NoError(t, store.Save(sampleNotes()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var calls [][]*models.Note
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(notes []*models.Note) {
			mu.Lock()
			calls = append(calls, notes)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// Our own save is not reported
	require.NoError(t, store.Save(sampleNotes()[:1]))
	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, calls)
	mu.Unlock()

	other := NewNoteStore(dir)
	external := []*models.Note{models.NewNote("ext", "From CLI", "restored", "Work", fixedNow)}
	require.NoError(t, other.Save(external))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0 && len(calls[len(calls)-1]) == 1 && calls[len(calls)-1][0].ID == "ext"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestUserStore(t *testing.T) {
	dir := t.TempDir()
	store := NewUserStore(dir)
	assert.Empty(t, store.Load())

	users := []*models.User{{Username: "ann", PasswordHash: "h1"}, {Username: "bob", PasswordHash: "h2"}}
	require.NoError(t, store.Save(users))

	loaded := store.Load()
	require.Len(t, loaded, 2)
	u, ok := store.Find("bob")
	require.True(t, ok)
	assert.Equal(t, "h2", u.PasswordHash)
	_, ok = store.Find("carol")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFileName), []byte("garbage"), 0644))
	assert.Empty(t, store.Load())
}

func TestPrefsStore(t *testing.T) {
	prefs := NewPrefsStore(t.TempDir())

	_, ok := prefs.Get(PrefCurrentUser)
	assert.False(t, ok)

	require.NoError(t, prefs.Set(PrefCurrentUser, "ann"))
	v, ok := prefs.Get(PrefCurrentUser)
	assert.True(t, ok)
	assert.Equal(t, "ann", v)

	require.NoError(t, prefs.Delete(PrefCurrentUser))
	require.NoError(t, prefs.Delete(PrefCurrentUser))
	_, ok = prefs.Get(PrefCurrentUser)
	assert.False(t, ok)
}

func TestSettingsStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSettingsStore(dir)
	assert.Equal(t, models.DefaultSettings(), store.Load())

	custom := models.Settings{Theme: "dark", BackgroundColor: "#101010", FontSize: 20}
	require.NoError(t, store.Save(custom))
	assert.Equal(t, custom, store.Load())

	// Partial files keep defaults for missing keys
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("theme: dark\n"), 0644))
	loaded := store.Load()
	assert.Equal(t, "dark", loaded.Theme)
	assert.Equal(t, 16, loaded.FontSize)
}

func TestUserStoreSkipsNullRecords(t *testing.T) {
	dir := t.TempDir()
	store := NewUserStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFileName), []byte(`[null, {"username":"ann"}, null]`), 0644))

	require.Len(t, store.Load(), 1)
	assert.NotPanics(t, func() {
		_, ok := store.Find("bob")
		assert.False(t, ok)
	})
	u, ok := store.Find("ann")
	require.True(t, ok)
	assert.Equal(t, "ann", u.Username)
}

func TestPrefsStoreNullDocument(t *testing.T) {
	dir := t.TempDir()
	prefs := NewPrefsStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, PrefsFileName), []byte("null"), 0644))

	_, ok := prefs.Get(PrefCurrentUser)
	assert.False(t, ok)
	require.NotPanics(t, func() {
		require.NoError(t, prefs.Set(PrefCurrentUser, "ann"))
	})
	v, ok := prefs.Get(PrefCurrentUser)
	assert.True(t, ok)
	assert.Equal(t, "ann", v)
}
