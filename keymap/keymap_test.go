package keymap

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		want    Action
		handled bool
	}{
		{"undo", Event{Key: "z", Ctrl: true}, Undo, true},
		{"undo with command", Event{Key: "z", Meta: true}, Undo, true},
		{"redo", Event{Key: "Z", Ctrl: true, Shift: true}, Redo, true},
		{"redo alias", Event{Key: "y", Ctrl: true}, Redo, true},
		{"export", Event{Key: "s", Meta: true}, Export, true},
		{"open", Event{Key: "o", Ctrl: true}, Open, true},
		{"delete", Event{Key: "Delete"}, Delete, true},
		{"backspace", Event{Key: "Backspace"}, Delete, true},
		{"previous page", Event{Key: "ArrowLeft"}, PrevPage, true},
		{"next page", Event{Key: "ArrowRight"}, NextPage, true},
		{"escape", Event{Key: "Escape"}, Cancel, true},
		{"plain letter", Event{Key: "z"}, None, false},
		{"shift without ctrl", Event{Key: "Delete", Shift: true}, Delete, true},
		{"alt", Event{Key: "z", Ctrl: true, Alt: true}, None, false},
		{"unbound combination", Event{Key: "q", Ctrl: true}, None, false},
	}

	m := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, handled := m.Lookup(tt.event)
			if got != tt.want || handled != tt.handled {
				t.Errorf("Lookup(%+v) = %v, %v, want %v, %v", tt.event, got, handled, tt.want, tt.handled)
			}
		})
	}
}

func TestCombo(t *testing.T) {
	tests := map[string]Event{
		"ctrl+shift+z": {Key: "Z", Meta: true, Shift: true},
		"ctrl+s":       {Key: "S", Ctrl: true},
		"arrowleft":    {Key: "ArrowLeft", Shift: true},
	}
	for want, e := range tests {
		if got := e.Combo(); got != want {
			t.Errorf("%+v.Combo() = %q, want %q", e, got, want)
		}
	}
}

func TestActionString(t *testing.T) {
	if Redo.String() != "redo" || Action(99).String() != "unknown" {
		t.Errorf("unexpected names %q, %q", Redo, Action(99))
	}
}
