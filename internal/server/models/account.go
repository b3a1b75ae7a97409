// Package models defines server-side data models persisted in the database.
package models

import "slices"

// Account is a registered user together with the denormalized copies of
// the journal entries it owns.
//
// Entries is a point-in-time snapshot written on entry creation and
// deletion. Title/content updates made through the Entry Store are not
// reflected here.
type Account struct {
	ID         string         `json:"id"`
	UserName   string         `json:"userName"`
	Credential string         `json:"-"`
	Roles      []string       `json:"roles"`
	Entries    []JournalEntry `json:"journalEntries"`

	// Version is the compare-and-swap token for concurrent account writes.
	Version int64 `json:"-"`
}

// HasRole reports whether role is among the account roles.
func (a *Account) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// OwnedEntry returns the position of the owned entry with the given id.
func (a *Account) OwnedEntry(id string) (int, bool) {
	for i := range a.Entries {
		if a.Entries[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// RemoveEntry drops the owned entry with the given id and reports whether
// one was present.
func (a *Account) RemoveEntry(id string) bool {
	i, ok := a.OwnedEntry(id)
	if !ok {
		return false
	}
	a.Entries = slices.Delete(a.Entries, i, i+1)
	return true
}
