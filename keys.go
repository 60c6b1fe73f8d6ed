package pdfannot

import "github.com/digitorus/pdfannot/keymap"

// HandleKey runs the action bound to ev. It returns the action and whether
// the key was handled, in which case the front end should suppress the
// key's default behavior. keymap.Export and keymap.Open are only reported;
// the caller performs them.
func (e *Editor) HandleKey(ev keymap.Event) (keymap.Action, bool) {
	action, ok := e.keys.Lookup(ev)
	if !ok {
		return keymap.None, false
	}

	switch action {
	case keymap.Undo:
		e.Undo()
	case keymap.Redo:
		e.Redo()
	case keymap.Delete:
		e.DeleteSelected()
	case keymap.PrevPage:
		e.PrevPage()
	case keymap.NextPage:
		e.NextPage()
	case keymap.Cancel:
		if !e.CancelText() {
			e.drag = nil
			e.ClearSelection()
		}
	}
	return action, true
}
