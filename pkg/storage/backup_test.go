package storage

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "notepad/pkg/errors"
	"notepad/pkg/models"
)

func clockAt(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestBackupAndRestore(t *testing.T) {
	store := NewBackupStore(t.TempDir())
	store.now = clockAt(fixedNow)

	name, err := store.Backup(sampleNotes())
	require.NoError(t, err)
	assert.Equal(t, "notes_backup_20240309_143005.json", name)

	restored, err := store.Restore(name)
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, "Shopping", restored[0].Title)
	assert.Equal(t, "secret", restored[1].Password)
}

func TestBackupEmptyList(t *testing.T) {
	store := NewBackupStore(t.TempDir())
	name, err := store.Backup(nil)
	require.NoError(t, err)

	restored, err := store.Restore(name)
	require.NoError(t, err)
	assert.Empty(t, restored)
	assert.NotNil(t, restored)
}

func TestSameSecondBackupsOverwrite(t *testing.T) {
	store := NewBackupStore(t.TempDir())
	store.now = clockAt(fixedNow)

	_, err := store.Backup(sampleNotes())
	require.NoError(t, err)
	name, err := store.Backup(sampleNotes()[:1])
	require.NoError(t, err)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	restored, err := store.Restore(name)
	require.NoError(t, err)
	assert.Len(t, restored, 1)
}

func TestListIsChronologicalAndIgnoresStrangers(t *testing.T) {
	dir := t.TempDir()
	store := NewBackupStore(dir)
	store.now = clockAt(
		time.Date(2024, 10, 1, 9, 0, 0, 0, time.Local),
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local),
	)
	for i := 0; i < 3; i++ {
		_, err := store.Backup(sampleNotes())
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes_backup_latest.json"), []byte("[]"), 0644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"notes_backup_20231231_235959.json",
		"notes_backup_20240201_000000.json",
		"notes_backup_20241001_090000.json",
	}, names)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, "notes_backup_20241001_090000.json", latest)
}

func TestListMissingDirectory(t *testing.T) {
	store := NewBackupStore(filepath.Join(t.TempDir(), "never-created"))

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.Latest()
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupNotFound))
}

func TestRestoreNormalizesLegacySnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewBackupStore(dir)
	name := "notes_backup_20200101_000000.json"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`[null, {"title":"x"}]`), 0644))

	restored, err := store.Restore(name)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.NotEmpty(t, restored[0].ID)
	assert.Equal(t, models.DefaultCategory, restored[0].Category)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`null`), 0644))
	restored, err = store.Restore(name)
	require.NoError(t, err)
	assert.NotNil(t, restored)
	assert.Empty(t, restored)
}

func TestRestoreErrors(t *testing.T) {
	dir := t.TempDir()
	store := NewBackupStore(dir)

	_, err := store.Restore("notes_backup_20200101_000000.json")
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupNotFound))

	_, err = store.Restore("../notes.json")
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupNotFound))

	_, err = store.Restore("")
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupNotFound))

	bad := "notes_backup_20200101_000001.json"
	require.NoError(t, os.WriteFile(filepath.Join(dir, bad), []byte("not json at all"), 0644))
	_, err = store.Restore(bad)
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupCorrupt))
}

func TestPrune(t *testing.T) {
	store := NewBackupStore(t.TempDir())
	var times []time.Time
	for i := 0; i < 5; i++ {
		times = append(times, fixedNow.Add(time.Duration(i)*time.Second))
	}
	store.now = clockAt(times...)
	for range times {
		_, err := store.Backup(sampleNotes())
		require.NoError(t, err)
	}

	removed, err := store.Prune(0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = store.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{BackupName(times[3]), BackupName(times[4])}, names)
}

func TestBackupFailsWhenDirectoryIsAFile(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "backups")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewBackupStore(blocker).Backup(sampleNotes())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrBackupFailed))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)
	exporter.now = clockAt(fixedNow)

	path, err := exporter.Export(sampleNotes())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes_export_20240309_143005.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Exported: 2024-03-09 14:30:05")
	assert.Contains(t, text, "Notes: 2")
	assert.Contains(t, text, "Category: Home\nTitle: Shopping\nContent: milk, eggs\nCreated: 2024-03-09 14:30:05")
	assert.Contains(t, text, "Category: Default\nTitle: Idea")
	assert.Less(t, strings.Index(text, "Shopping"), strings.Index(text, "Idea"))
}

func TestRenderEmpty(t *testing.T) {
	text := Render(nil, fixedNow)
	assert.Contains(t, text, "Notes: 0")
	assert.NotContains(t, text, "Title:")
}
