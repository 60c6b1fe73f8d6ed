// Package history records whole-document annotation snapshots for linear
// undo and redo.
package history

import (
	"time"

	"github.com/digitorus/pdfannot/annotation"
)

// DefaultMaxStates bounds the number of snapshots kept when no limit is given.
const DefaultMaxStates = 50

// Entry is an independent copy of every page record at one point in time.
type Entry struct {
	Pages       []annotation.Page
	Timestamp   time.Time
	Description string
}

// Info summarizes the position of the cursor.
type Info struct {
	CurrentIndex int  `json:"currentIndex"`
	TotalStates  int  `json:"totalStates"`
	CanUndo      bool `json:"canUndo"`
	CanRedo      bool `json:"canRedo"`
}

// Manager is a bounded, linear undo stack with a cursor. Appending after an
// undo discards the redoable entries.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	entries []Entry
	index   int
	max     int

	// Now returns the timestamp recorded on new entries.
	Now func() time.Time
}

// New returns an empty manager keeping at most max entries. A max below one
// selects DefaultMaxStates.
func New(max int) *Manager {
	if max < 1 {
		max = DefaultMaxStates
	}
	return &Manager{index: -1, max: max, Now: time.Now}
}

// Max returns the configured entry limit.
func (m *Manager) Max() int {
	return m.max
}

// AddState appends a deep copy of pages after the cursor, dropping any redo
// entries and evicting the oldest entry when the limit is exceeded.
func (m *Manager) AddState(pages []annotation.Page, description string) {
	m.entries = m.entries[:m.index+1]
	m.entries = append(m.entries, Entry{
		Pages:       annotation.ClonePages(pages),
		Timestamp:   m.Now(),
		Description: description,
	})
	m.index = len(m.entries) - 1

	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
		m.index -= over
	}
}

// Undo moves the cursor back and returns a copy of that entry's pages. It
// reports false and changes nothing when there is nothing to undo.
func (m *Manager) Undo() ([]annotation.Page, bool) {
	if !m.CanUndo() {
		return nil, false
	}
	m.index--
	return annotation.ClonePages(m.entries[m.index].Pages), true
}

// Redo moves the cursor forward and returns a copy of that entry's pages. It
// reports false and changes nothing when there is nothing to redo.
func (m *Manager) Redo() ([]annotation.Page, bool) {
	if !m.CanRedo() {
		return nil, false
	}
	m.index++
	return annotation.ClonePages(m.entries[m.index].Pages), true
}

func (m *Manager) CanUndo() bool {
	return m.index > 0
}

func (m *Manager) CanRedo() bool {
	return m.index < len(m.entries)-1
}

// Current returns a copy of the entry under the cursor.
func (m *Manager) Current() (Entry, bool) {
	if m.index < 0 || m.index >= len(m.entries) {
		return Entry{}, false
	}
	e := m.entries[m.index]
	e.Pages = annotation.ClonePages(e.Pages)
	return e, true
}

// Entries returns the descriptions and timestamps of all entries, oldest
// first, without their page data.
func (m *Manager) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = Entry{Timestamp: e.Timestamp, Description: e.Description}
	}
	return out
}

func (m *Manager) Info() Info {
	return Info{
		CurrentIndex: m.index,
		TotalStates:  len(m.entries),
		CanUndo:      m.CanUndo(),
		CanRedo:      m.CanRedo(),
	}
}

// Len returns the number of stored entries.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Clear drops every entry.
func (m *Manager) Clear() {
	m.entries = nil
	m.index = -1
}

// Reset replaces the history with a single entry for pages.
func (m *Manager) Reset(pages []annotation.Page, description string) {
	m.Clear()
	m.AddState(pages, description)
}
