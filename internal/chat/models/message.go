package models

import (
	"slices"
	"time"
)

// Message is one chat entry. A deleted message is kept as a tombstone with its content cleared.
type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"username"`
	Text      string    `json:"text"`
	ImageRef  string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"ts"`
	Edited    bool      `json:"edited"`
	Deleted   bool      `json:"deleted"`
	ReadBy    []string  `json:"read_by"`
}

// Clone returns a deep copy so callers never share ReadBy with a store.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.ReadBy = slices.Clone(m.ReadBy)
	return &c
}

func (m *Message) ReadByUser(username string) bool {
	return slices.Contains(m.ReadBy, username)
}

// MarkReadBy appends username to ReadBy and reports whether it was added.
func (m *Message) MarkReadBy(username string) bool {
	if m.ReadByUser(username) {
		return false
	}
	m.ReadBy = append(m.ReadBy, username)
	return true
}

// Tombstone clears the content and flags the message deleted.
func (m *Message) Tombstone() {
	m.Deleted = true
	m.Text = ""
	m.ImageRef = ""
}
