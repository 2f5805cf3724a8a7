package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultCategory is used whenever a note has no category
const DefaultCategory = "Default"

// titleSnippetLength is how many characters of content become a derived title
const titleSnippetLength = 20

// Priority ranks to-do notes
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns the lowercase name of the priority
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "medium"
	}
}

// MarshalText implements encoding.TextMarshaler
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority parses "low", "medium" or "high" (case-insensitive).
// An empty string yields the default, medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return PriorityMedium, fmt.Errorf("unknown priority %q", s)
}

// Note represents a note in memory and on disk
type Note struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  time.Time  `json:"modified_at,omitempty"`
	Category    string     `json:"category"`
	Color       string     `json:"color,omitempty"`
	IsTodo      bool       `json:"is_todo"`
	IsCompleted bool       `json:"is_completed"`
	Priority    Priority   `json:"priority"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
	ImagePath   string     `json:"image_path,omitempty"`
	AudioPath   string     `json:"audio_path,omitempty"`
	VideoPath   string     `json:"video_path,omitempty"`
	IsSticky    bool       `json:"is_sticky"`
	IsLocked    bool       `json:"is_locked"`
	Password    string     `json:"password,omitempty"`
}

// UnmarshalJSON decodes a note, treating a missing priority as medium
func (n *Note) UnmarshalJSON(data []byte) error {
	type plain Note
	decoded := plain{Priority: PriorityMedium}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*n = Note(decoded)
	return nil
}

// NewNote creates a note stamped with the given time
func NewNote(id, title, content, category string, now time.Time) *Note {
	return &Note{
		ID:         id,
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		ModifiedAt: now,
		Category:   NormalizeCategory(category),
		Priority:   PriorityMedium,
	}
}

// NormalizeCategory maps an empty category to DefaultCategory
func NormalizeCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return DefaultCategory
	}
	return category
}

// SetTitle replaces the title. Reassigning the title restarts CreatedAt.
func (n *Note) SetTitle(title string, now time.Time) {
	n.Title = title
	n.CreatedAt = now
}

// SetContent replaces the content. Reassigning the content restarts CreatedAt.
func (n *Note) SetContent(content string, now time.Time) {
	n.Content = content
	n.CreatedAt = now
}

// SetCategory sets the category, normalizing empty values
func (n *Note) SetCategory(category string) {
	n.Category = NormalizeCategory(category)
}

// SetCompleted marks the to-do as done or not; completing stamps ModifiedAt
func (n *Note) SetCompleted(completed bool, now time.Time) {
	n.IsCompleted = completed
	if completed {
		n.ModifiedAt = now
	}
}

// LastModified returns ModifiedAt, or CreatedAt when it was never set
func (n *Note) LastModified() time.Time {
	if n.ModifiedAt.IsZero() {
		return n.CreatedAt
	}
	return n.ModifiedAt
}

// HasMedia reports whether any attachment path is set
func (n *Note) HasMedia() bool {
	return n.ImagePath != "" || n.AudioPath != "" || n.VideoPath != ""
}

// CheckPassword validates the lock password. Unlocked notes accept anything.
func (n *Note) CheckPassword(input string) bool {
	if !n.IsLocked || n.Password == "" {
		return true
	}
	return n.Password == input
}

// Clone returns a deep copy of the note
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.ReminderAt != nil {
		at := *n.ReminderAt
		c.ReminderAt = &at
	}
	return &c
}

// CloneNotes deep-copies a list of notes, preserving order
func CloneNotes(notes []*Note) []*Note {
	out := make([]*Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Clone())
	}
	return out
}

// DeriveTitle applies the title defaulting rule. Both inputs are trimmed;
// ok is false when there is nothing to save.
func DeriveTitle(title, content string) (string, bool) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if title == "" && content == "" {
		return "", false
	}
	if title != "" {
		return title, true
	}

	runes := []rune(content)
	if len(runes) > titleSnippetLength {
		return string(runes[:titleSnippetLength]) + "...", true
	}
	return content, true
}
