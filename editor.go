package pdfannot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/canvas"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/config"
	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/files"
	"github.com/digitorus/pdfannot/history"
	"github.com/digitorus/pdfannot/keymap"
	"github.com/digitorus/pdfannot/mutate"
	"github.com/digitorus/pdfannot/raster"
)

// Zoom limits and step.
const (
	MinZoom  = config.MinZoom
	MaxZoom  = config.MaxZoom
	ZoomStep = 0.25
)

// File is a document handed to Load. An empty MIME is sniffed from Data.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Output is an exported document.
type Output struct {
	Name string
	MIME string
	Data []byte
}

// Options configures an Editor. Zero values select defaults.
type Options struct {
	Settings config.Config
	Logger   *slog.Logger
	// Now is used for history and annotation timestamps.
	Now func() time.Time
	// Keys replaces the default key bindings.
	Keys keymap.Map
}

// pendingText is a drawn text rectangle waiting for its content.
type pendingText struct {
	page int
	rect coords.Rect // Unit coordinates
}

// Editor is a single-document annotation session.
//
// An Editor is not safe for concurrent use, with one exception: a Load
// issued while another Load is running fails with ErrLoadInProgress instead
// of waiting.
type Editor struct {
	loader   raster.Acquirer
	settings config.Config
	logger   *slog.Logger
	now      func() time.Time
	keys     keymap.Map
	renderer *canvas.Renderer

	loading atomic.Bool
	state   State
	lastErr error

	name    string
	info    common.DocumentInfo
	raster  raster.Document
	mutable *mutate.Document

	pages    []annotation.Page
	history  *history.Manager
	current  int
	zoom     float64
	selected string

	tool       annotation.Type
	color      annotation.Color
	fontSize   float64
	fontFamily string

	drag     *coords.Point // Device position of the pointer-down
	pending  *pendingText
	surfaces map[string]*canvas.Surface
}

// New returns an empty editor that acquires its rasterization engine from
// loader.
func New(loader raster.Acquirer, opts Options) *Editor {
	settings := opts.Settings
	if settings == (config.Config{}) {
		settings = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = newNopLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	keys := opts.Keys
	if keys == nil {
		keys = keymap.Default()
	}

	e := &Editor{
		loader:     loader,
		settings:   settings,
		logger:     logger,
		now:        now,
		keys:       keys,
		renderer:   canvas.NewRenderer(logger),
		zoom:       clampZoom(settings.DefaultZoom),
		tool:       annotation.Select,
		color:      annotation.Red,
		fontSize:   settings.DefaultFontSize,
		fontFamily: settings.DefaultFontFamily,
		surfaces:   make(map[string]*canvas.Surface),
	}
	if t, err := annotation.ParseType(settings.DefaultTool); err == nil {
		e.tool = t
	}
	if c, err := annotation.ParseHex(settings.DefaultColor); err == nil {
		e.color = c
	}
	if e.fontSize <= 0 {
		e.fontSize = annotation.DefaultFontSize
	}
	if e.fontFamily == "" {
		e.fontFamily = annotation.DefaultFontFamily
	}
	e.history = e.newHistory()
	return e
}

func (e *Editor) newHistory() *history.Manager {
	h := history.New(e.settings.MaxHistoryStates)
	h.Now = e.now
	return h
}

// Load replaces the session with the document in f. The file is validated
// before parsing; a file that fails validation leaves the current session
// untouched. Once parsing starts, any failure leaves the editor empty. The
// error is also available from LastError.
func (e *Editor) Load(ctx context.Context, f File) error {
	if !e.loading.CompareAndSwap(false, true) {
		return ErrLoadInProgress
	}
	defer e.loading.Store(false)

	mimeType := f.MIME
	if mimeType == "" {
		mimeType = files.DetectMIME(f.Data)
	}
	if err := files.Validate(f.Name, mimeType, int64(len(f.Data)), e.settings.MaxUploadSize); err != nil {
		e.lastErr = err
		e.logger.Info("document rejected", "name", f.Name, "error", err)
		return err
	}

	e.state = StateLoading
	rdoc, mdoc, err := e.open(ctx, f.Data)
	if err != nil {
		e.unload()
		e.lastErr = err
		e.logger.Error("failed to load document", "name", f.Name, "error", err)
		return err
	}

	e.unload()
	e.name = f.Name
	e.raster = rdoc
	e.mutable = mdoc
	e.mutable.Now = e.now
	e.info = mdoc.Info()
	e.pages = annotation.NewPages(mdoc.PageCount())
	e.current = 1
	e.zoom = clampZoom(e.settings.DefaultZoom)
	e.history.Reset(e.pages, "Document loaded")
	e.state = StateReady
	e.lastErr = nil

	e.logger.Info("document loaded", "name", f.Name, "pages", len(e.pages))
	return nil
}

// open parses data with both the rasterization engine and the mutation
// library. Both must succeed.
func (e *Editor) open(ctx context.Context, data []byte) (raster.Document, *mutate.Document, error) {
	if e.loader == nil {
		return nil, nil, common.Errorf(common.ErrLoaderUnavailable, "no loader configured")
	}
	engine, err := e.loader.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, common.Wrap(common.ErrLoaderUnavailable, "failed to acquire engine", err)
	}
	rdoc, err := engine.Open(ctx, data)
	if err != nil {
		return nil, nil, common.Wrap(common.ErrParseFailure, "failed to open document for rendering", err)
	}
	mdoc, err := mutate.Open(data)
	if err != nil {
		return nil, nil, err
	}
	if rdoc.PageCount() != mdoc.PageCount() {
		return nil, nil, common.Errorf(common.ErrParseFailure, "page count mismatch: %d rendered, %d editable",
			rdoc.PageCount(), mdoc.PageCount())
	}
	return rdoc, mdoc, nil
}

// unload discards the document and everything tied to it.
func (e *Editor) unload() {
	e.state = StateEmpty
	e.name = ""
	e.info = common.DocumentInfo{}
	e.raster = nil
	e.mutable = nil
	e.pages = nil
	e.current = 0
	e.selected = ""
	e.drag = nil
	e.pending = nil
	e.history = e.newHistory()
	for _, s := range e.surfaces {
		s.Reset()
	}
}

// Close discards the loaded document.
func (e *Editor) Close() {
	e.unload()
	e.lastErr = nil
}

// State returns the lifecycle state.
func (e *Editor) State() State { return e.state }

// LastError returns the error of the last failed Load or Export, or nil.
func (e *Editor) LastError() error { return e.lastErr }

// FileName returns the name of the loaded document.
func (e *Editor) FileName() string { return e.name }

// PageCount returns the number of pages of the loaded document.
func (e *Editor) PageCount() int { return len(e.pages) }

// CurrentPage returns the 1-based number of the displayed page, or 0 when no
// document is loaded.
func (e *Editor) CurrentPage() int { return e.current }

// Zoom returns the zoom factor.
func (e *Editor) Zoom() float64 { return e.zoom }

// Tool returns the active tool.
func (e *Editor) Tool() annotation.Type { return e.tool }

// Color returns the active color.
func (e *Editor) Color() annotation.Color { return e.color }

// Selected returns the ID of the selected annotation, or "".
func (e *Editor) Selected() string { return e.selected }

// Pages returns a copy of every page record.
func (e *Editor) Pages() []annotation.Page { return annotation.ClonePages(e.pages) }

// Annotations returns a copy of the annotations of page n.
func (e *Editor) Annotations(n int) ([]annotation.Annotation, error) {
	if err := e.checkPage(n); err != nil {
		return nil, err
	}
	return append([]annotation.Annotation(nil), e.pages[n-1].Annotations...), nil
}

func (e *Editor) loaded() bool {
	return e.state == StateReady || e.state == StateAwaitingTextInput
}

func (e *Editor) checkReady() error {
	switch e.state {
	case StateReady:
		return nil
	case StateAwaitingTextInput:
		return ErrNotReady
	}
	return ErrNoDocument
}

func (e *Editor) checkPage(n int) error {
	if !e.loaded() {
		return ErrNoDocument
	}
	if n < 1 || n > len(e.pages) {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, len(e.pages))
	}
	return nil
}
