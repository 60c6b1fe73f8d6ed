package pdfannot

import (
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/files"
	"github.com/digitorus/pdfannot/history"
)

// displayNameLimit is the length at which file names are shortened for
// display.
const displayNameLimit = 40

// Snapshot is a read-only view of an Editor for front ends.
type Snapshot struct {
	State       State               `json:"state"`
	FileName    string              `json:"fileName,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
	Info        common.DocumentInfo `json:"info"`
	PageCount   int                 `json:"pageCount"`
	CurrentPage int                 `json:"currentPage"`
	Zoom        float64             `json:"zoom"`
	Tool        annotation.Type     `json:"tool"`
	Color       annotation.Color    `json:"color"`
	FontSize    float64             `json:"fontSize"`
	FontFamily  string              `json:"fontFamily"`
	Selected    string              `json:"selected,omitempty"`
	PendingText *coords.Rect        `json:"pendingText,omitempty"`
	Pages       []annotation.Page   `json:"pages"`
	History     history.Info        `json:"history"`
	LastError   string              `json:"lastError,omitempty"`
}

// Snapshot returns the current session state. The returned pages are a copy.
func (e *Editor) Snapshot() Snapshot {
	s := Snapshot{
		State:       e.state,
		FileName:    e.name,
		DisplayName: files.TruncateName(e.name, displayNameLimit),
		Info:        e.info,
		PageCount:   len(e.pages),
		CurrentPage: e.current,
		Zoom:        e.zoom,
		Tool:        e.tool,
		Color:       e.color,
		FontSize:    e.fontSize,
		FontFamily:  e.fontFamily,
		Selected:    e.selected,
		Pages:       annotation.ClonePages(e.pages),
		History:     e.HistoryInfo(),
	}
	if e.pending != nil {
		r := e.pending.rect
		s.PendingText = &r
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}
	return s
}

// HistoryInfo describes the undo history.
func (e *Editor) HistoryInfo() history.Info {
	return e.history.Info()
}

// HistoryEntries lists the descriptions and timestamps of the history, oldest
// first.
func (e *Editor) HistoryEntries() []history.Entry {
	return e.history.Entries()
}
