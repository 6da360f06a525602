// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// DateFormat is the calendar-date form used for date_added storage and the
// wire's dateISO field.
const DateFormat = "2006-01-02"

// DefaultName is assigned when a component is created with a blank name.
const DefaultName = "Untitled"

// Component status values.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Component is a stored UI code snippet with metadata.
//
// Tags holds the internal comma-joined form. The wire always exchanges tags
// as an ordered string sequence; SplitTags/JoinTags convert at the boundary.
type Component struct {
	ID           string
	Name         string
	Section      string
	Tags         string
	DateAdded    time.Time
	Code         string
	Description  string
	Notes        string
	Instructions string
	Status       string
}

// TagList returns the component's tags in wire form: trimmed, non-empty,
// insertion order preserved. Never nil.
func (c *Component) TagList() []string {
	return SplitTags(c.Tags)
}

// ComponentFile is a binary attachment owned by exactly one component.
// Attachments are never updated after creation; they are deleted individually
// or by cascade when the owning component is deleted.
type ComponentFile struct {
	ID          int64
	ComponentID string
	Name        string
	URL         string
	Size        int64
	UploadedAt  time.Time
}

// SplitTags parses a comma-joined tag string into trimmed, non-empty entries.
// Order is preserved and duplicates are kept.
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags normalizes a tag sequence (trim, drop empties) and joins it into
// the internal comma-joined form. SplitTags(JoinTags(x)) round-trips the
// normalized input.
func JoinTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ",")
}
