package models

import "time"

// JournalEntry is a titled note stamped with the day it was written.
type JournalEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedOn time.Time `json:"date"`
}

// EntryDraft carries caller-supplied fields for a new entry.
type EntryDraft struct {
	Title   string
	Content string
}

// EntryPatch carries optional replacements for an existing entry.
// A nil or empty field leaves the stored value in place.
type EntryPatch struct {
	Title   *string
	Content *string
}

// Apply overwrites the fields of e that the patch sets to non-empty values.
// CreatedOn is never touched.
func (p EntryPatch) Apply(e *JournalEntry) {
	if p.Title != nil && *p.Title != "" {
		e.Title = *p.Title
	}
	if p.Content != nil && *p.Content != "" {
		e.Content = *p.Content
	}
}

// Day truncates t to midnight UTC of the same calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
