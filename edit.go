package pdfannot

import (
	"fmt"
	"strings"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/coords"
)

// PointerDown handles a press at offset within a displayed page of the given
// extent. With the select tool it selects the topmost annotation under the
// pointer, or clears the selection when there is none. With a drawing tool
// it starts a drag and clears the selection.
func (e *Editor) PointerDown(offset coords.Point, ext coords.Extent) {
	if e.state != StateReady {
		return
	}
	p := coords.ToDevice(offset, ext)

	if e.tool == annotation.Select {
		e.selected = ""
		annots := e.pages[e.current-1].Annotations
		for i := len(annots) - 1; i >= 0; i-- {
			if coords.PointInAnnotation(p, annots[i], ext) {
				e.selected = annots[i].ID
				break
			}
		}
		return
	}

	e.drag = &p
	e.selected = ""
}

// PointerUp finishes a drag. Drags no larger than coords.DragThreshold in
// both directions are discarded. The text tool enters
// StateAwaitingTextInput and creates nothing until SubmitText; the other
// tools add their annotation to the current page and return it.
func (e *Editor) PointerUp(offset coords.Point, ext coords.Extent) (annotation.Annotation, bool) {
	if e.state != StateReady || e.drag == nil {
		return annotation.Annotation{}, false
	}
	start := *e.drag
	e.drag = nil

	r := coords.DragRect(start, coords.ToDevice(offset, ext))
	if !r.Significant() {
		return annotation.Annotation{}, false
	}
	u := r.Unit(ext)

	if e.tool == annotation.Text {
		e.pending = &pendingText{page: e.current, rect: u}
		e.state = StateAwaitingTextInput
		return annotation.Annotation{}, false
	}

	a := annotation.New(e.tool, u.X, u.Y, u.Width, u.Height, e.color)
	e.insert(e.current, a, "Add "+string(e.tool))
	return a, true
}

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool { return e.drag != nil }

// PendingText returns the unit rectangle awaiting text content.
func (e *Editor) PendingText() (page int, rect coords.Rect, ok bool) {
	if e.pending == nil {
		return 0, coords.Rect{}, false
	}
	return e.pending.page, e.pending.rect, true
}

// SubmitText completes a text rectangle. Content that is empty after
// trimming creates nothing. Either way the editor returns to StateReady.
func (e *Editor) SubmitText(content string) (annotation.Annotation, bool, error) {
	if e.state != StateAwaitingTextInput || e.pending == nil {
		return annotation.Annotation{}, false, ErrNoPendingText
	}
	p := e.pending
	e.pending = nil
	e.state = StateReady

	if strings.TrimSpace(content) == "" {
		return annotation.Annotation{}, false, nil
	}

	a := annotation.New(annotation.Text, p.rect.X, p.rect.Y, p.rect.Width, p.rect.Height, e.color)
	a.Content = content
	a.FontSize = e.fontSize
	a.FontFamily = e.fontFamily
	e.insert(p.page, a, "Add text")
	return a, true, nil
}

// CancelText drops the pending text rectangle.
func (e *Editor) CancelText() bool {
	if e.state != StateAwaitingTextInput {
		return false
	}
	e.pending = nil
	e.state = StateReady
	return true
}

// AddAnnotation inserts a on page n with the same history semantics as a
// drawn annotation. An empty ID is assigned a fresh one.
func (e *Editor) AddAnnotation(n int, a annotation.Annotation) (annotation.Annotation, error) {
	if err := e.checkReady(); err != nil {
		return annotation.Annotation{}, err
	}
	if err := e.checkPage(n); err != nil {
		return annotation.Annotation{}, err
	}
	if a.ID == "" {
		a.ID = annotation.NewID()
	} else if _, found := e.find(a.ID); found {
		return annotation.Annotation{}, fmt.Errorf("duplicate annotation id %q", a.ID)
	}
	norm := annotation.New(a.Type, a.X, a.Y, a.Width, a.Height, a.Color)
	a.X, a.Y, a.Width, a.Height = norm.X, norm.Y, norm.Width, norm.Height
	if err := a.Validate(); err != nil {
		return annotation.Annotation{}, err
	}
	e.insert(n, a, "Add "+string(a.Type))
	return a, nil
}

func (e *Editor) insert(n int, a annotation.Annotation, description string) {
	e.pages[n-1].Annotations = append(e.pages[n-1].Annotations, a)
	e.history.AddState(e.pages, description)
	e.logger.Debug("annotation added", "page", n, "id", a.ID, "type", a.Type)
}

func (e *Editor) find(id string) (int, bool) {
	for _, p := range e.pages {
		if _, ok := p.Find(id); ok {
			return p.Number, true
		}
	}
	return 0, false
}

// DeleteSelected removes the selected annotation from the current page and
// clears the selection. It reports whether anything was removed.
func (e *Editor) DeleteSelected() bool {
	if e.state != StateReady || e.selected == "" {
		return false
	}
	id := e.selected
	e.selected = ""

	page, removed := e.pages[e.current-1].Without(id)
	if !removed {
		return false
	}
	e.pages[e.current-1] = page
	e.history.AddState(e.pages, "Delete annotation")
	e.logger.Debug("annotation deleted", "page", e.current, "id", id)
	return true
}

// Select selects the annotation with the given id on the current page.
func (e *Editor) Select(id string) bool {
	if e.state != StateReady {
		return false
	}
	if _, ok := e.pages[e.current-1].Find(id); !ok {
		return false
	}
	e.selected = id
	return true
}

// ClearSelection deselects any annotation.
func (e *Editor) ClearSelection() { e.selected = "" }

// Undo restores the previous history entry and clears the selection. It
// reports false when there is nothing to undo.
func (e *Editor) Undo() bool {
	if e.state != StateReady {
		return false
	}
	pages, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.pages = pages
	e.selected = ""
	return true
}

// Redo re-applies the next history entry and clears the selection. It
// reports false when there is nothing to redo.
func (e *Editor) Redo() bool {
	if e.state != StateReady {
		return false
	}
	pages, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.pages = pages
	e.selected = ""
	return true
}

func (e *Editor) CanUndo() bool { return e.state == StateReady && e.history.CanUndo() }

func (e *Editor) CanRedo() bool { return e.state == StateReady && e.history.CanRedo() }

// SetTool selects the tool used by the next pointer press. An unfinished
// drag is abandoned.
func (e *Editor) SetTool(t annotation.Type) error {
	if _, err := annotation.ParseType(string(t)); err != nil {
		return err
	}
	e.tool = t
	e.drag = nil
	return nil
}

// SetColor sets the color of new annotations.
func (e *Editor) SetColor(c annotation.Color) { e.color = c }

// SetFontSize sets the font size of new text annotations.
func (e *Editor) SetFontSize(size float64) error {
	if size <= 0 {
		return fmt.Errorf("invalid font size %v", size)
	}
	e.fontSize = size
	return nil
}

// SetFontFamily sets the font family of new text annotations.
func (e *Editor) SetFontFamily(family string) error {
	if strings.TrimSpace(family) == "" {
		return fmt.Errorf("empty font family")
	}
	e.fontFamily = family
	return nil
}
