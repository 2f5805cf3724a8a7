package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	apperrors "notepad/pkg/errors"
	"notepad/pkg/models"
	"notepad/pkg/utils"
)

// Exporter writes human-readable text dumps of the note list
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// ExportName returns the export file name for a moment in time
func ExportName(t time.Time) string {
	return "notes_export_" + utils.FileStamp(t) + ".txt"
}

// Render formats notes as the export document
func Render(notes []*models.Note, exportedAt time.Time) string {
	var b strings.Builder

	b.WriteString("Notepad Export\n")
	fmt.Fprintf(&b, "Exported: %s\n", exportedAt.Format(utils.DisplayTimeLayout))
	fmt.Fprintf(&b, "Notes: %d\n", len(notes))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for _, note := range notes {
		fmt.Fprintf(&b, "Category: %s\n", models.NormalizeCategory(note.Category))
		fmt.Fprintf(&b, "Title: %s\n", note.Title)
		fmt.Fprintf(&b, "Content: %s\n", note.Content)
		fmt.Fprintf(&b, "Created: %s\n", note.CreatedAt.Format(utils.DisplayTimeLayout))
		b.WriteString(strings.Repeat("-", 40) + "\n\n")
	}
	return b.String()
}

// Export writes notes in list order and returns the full path written
func (e *Exporter) Export(notes []*models.Note) (string, error) {
	now := e.now()
	path := filepath.Join(e.dir, ExportName(now))

	if err := writeFileAtomic(path, []byte(Render(notes, now))); err != nil {
		return "", apperrors.ErrExportFailed.WithCause(err).WithContext("path", path)
	}

	log.Infof("Exported %d notes to %s", len(notes), path)
	return path, nil
}
