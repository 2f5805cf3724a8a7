// Package query derives the visible note list from the full note set and
// the current search, category, to-do and sort selections.
package query

import (
	"sort"
	"strings"

	"notepad/pkg/models"
)

// SortMode selects the ordering of derived lists
type SortMode int

const (
	// SortTime orders by last modification, newest first
	SortTime SortMode = iota
	// SortTitle orders by title, case-insensitive
	SortTitle
	// SortCategory orders by category, then newest first
	SortCategory
	// SortPriority orders by priority high to low, then newest first
	SortPriority
)

// String returns the name accepted by ParseSortMode
func (m SortMode) String() string {
	switch m {
	case SortTitle:
		return "title"
	case SortCategory:
		return "category"
	case SortPriority:
		return "priority"
	default:
		return "time"
	}
}

// ParseSortMode maps a name to a SortMode; unknown names fall back to SortTime
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return SortTitle
	case "category":
		return SortCategory
	case "priority":
		return SortPriority
	default:
		return SortTime
	}
}

// Spec is the full set of list selections
type Spec struct {
	Query    string
	Category *string
	TodoOnly bool
	Sort     SortMode
}

// InCategory returns a copy of the spec restricted to category
func (s Spec) InCategory(category string) Spec {
	s.Category = &category
	return s
}

// Derive filters and sorts notes. The input slice is never modified; the
// result is a fresh slice that shares the note pointers.
func Derive(notes []*models.Note, spec Spec) []*models.Note {
	q := strings.ToLower(strings.TrimSpace(spec.Query))

	filtered := make([]*models.Note, 0, len(notes))
	for _, note := range notes {
		if spec.Category != nil && note.Category != *spec.Category {
			continue
		}
		if spec.TodoOnly && !note.IsTodo {
			continue
		}
		if q != "" && !matches(note, q) {
			continue
		}
		filtered = append(filtered, note)
	}

	Sort(filtered, spec.Sort)
	return filtered
}

func matches(note *models.Note, lowered string) bool {
	return strings.Contains(strings.ToLower(note.Title), lowered) ||
		strings.Contains(strings.ToLower(note.Content), lowered)
}

// Sort orders notes in place. The sort is stable under every mode.
func Sort(notes []*models.Note, mode SortMode) {
	sort.SliceStable(notes, func(i, j int) bool {
		return less(notes[i], notes[j], mode)
	})
}

func less(a, b *models.Note, mode SortMode) bool {
	switch mode {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortCategory:
		ca, cb := strings.ToLower(a.Category), strings.ToLower(b.Category)
		if ca != cb {
			return ca < cb
		}
		return newer(a, b)
	case SortPriority:
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return newer(a, b)
	default:
		return newer(a, b)
	}
}

func newer(a, b *models.Note) bool {
	return a.LastModified().After(b.LastModified())
}

// Categories returns the distinct categories of notes, sorted
func Categories(notes []*models.Note) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, note := range notes {
		c := models.NormalizeCategory(note.Category)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories
}
