// Package keymap maps keyboard events onto editor actions.
package keymap

import "strings"

// Action is an editor command bound to a key combination.
type Action int

const (
	None Action = iota
	Undo
	Redo
	Export
	Open
	Delete
	PrevPage
	NextPage
	Cancel
)

var actionNames = map[Action]string{
	None:     "none",
	Undo:     "undo",
	Redo:     "redo",
	Export:   "export",
	Open:     "open",
	Delete:   "delete",
	PrevPage: "prev-page",
	NextPage: "next-page",
	Cancel:   "cancel",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Event is a key press. Key holds the key value as reported by the front
// end, such as "z", "Delete" or "ArrowLeft".
type Event struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
}

// Combo normalizes the event to a binding key such as "ctrl+shift+z". The
// Meta (Command) key counts as Ctrl. Shift is only part of the combination
// together with Ctrl.
func (e Event) Combo() string {
	key := strings.ToLower(e.Key)
	switch {
	case (e.Ctrl || e.Meta) && e.Shift:
		return "ctrl+shift+" + key
	case e.Ctrl || e.Meta:
		return "ctrl+" + key
	}
	return key
}

// Map binds combinations to actions.
type Map map[string]Action

// Default returns the standard bindings.
func Default() Map {
	return Map{
		"ctrl+z":       Undo,
		"ctrl+shift+z": Redo,
		"ctrl+y":       Redo,
		"ctrl+s":       Export,
		"ctrl+o":       Open,
		"delete":       Delete,
		"backspace":    Delete,
		"arrowleft":    PrevPage,
		"arrowright":   NextPage,
		"escape":       Cancel,
	}
}

// Lookup returns the action bound to e. The boolean reports whether the event
// is handled, in which case the front end should suppress its default
// behavior.
func (m Map) Lookup(e Event) (Action, bool) {
	if e.Alt {
		return None, false
	}
	a, ok := m[e.Combo()]
	return a, ok
}
