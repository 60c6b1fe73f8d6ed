package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/config"
	"github.com/digitorus/pdfannot/internal/testpdf"
	"github.com/digitorus/pdfannot/raster"
	"github.com/gofiber/fiber/v3"
)

type failingLoader struct{}

func (failingLoader) Acquire(context.Context) (raster.Engine, error) {
	return nil, errors.New("engine offline")
}

// gatedLoader blocks every acquisition until release is closed.
type gatedLoader struct {
	once     sync.Once
	started  chan struct{}
	release  chan struct{}
	acquired atomic.Int32
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{started: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedLoader) Acquire(ctx context.Context) (raster.Engine, error) {
	l.acquired.Add(1)
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
		return raster.PaperEngine{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Loader == nil {
		opts.Loader = raster.DefaultLoader(nil)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	}
	return New(opts)
}

func do(t *testing.T, s *Server, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doJSON(t *testing.T, s *Server, method, path string, v any) *http.Response {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}
	return do(t, s, method, path, fiber.MIMEApplicationJSON, body)
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, want, body)
	}
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	resp := do(t, s, http.MethodPost, "/api/v1/sessions", "", nil)
	expectStatus(t, resp, fiber.StatusCreated)
	var out struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &out)
	if out.ID == "" {
		t.Fatal("session without id")
	}
	return out.ID
}

func uploadRequest(t *testing.T, id, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/document", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	return req
}

func uploadFile(t *testing.T, s *Server, id, name, contentType string, data []byte) *http.Response {
	t.Helper()
	resp, err := s.App().Test(uploadRequest(t, id, name, contentType, data), fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func loadSession(t *testing.T, s *Server, pages int) string {
	t.Helper()
	id := createSession(t, s)
	resp := uploadFile(t, s, id, "report.pdf", "application/pdf", testpdf.Build(testpdf.Options{Pages: pages}))
	expectStatus(t, resp, fiber.StatusOK)
	return id
}

type state struct {
	State       string `json:"state"`
	PageCount   int    `json:"pageCount"`
	CurrentPage int    `json:"currentPage"`
	Tool        string `json:"tool"`
	Selected    string `json:"selected"`
	Zoom        float64
	Pages       []struct {
		Annotations []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"annotations"`
	} `json:"pages"`
}

func sessionState(t *testing.T, s *Server, id string) state {
	t.Helper()
	resp := do(t, s, http.MethodGet, "/api/v1/sessions/"+id, "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var st state
	decodeBody(t, resp, &st)
	return st
}

var extent = map[string]float64{"bitmapWidth": 1000, "bitmapHeight": 1000}

func pointer(t *testing.T, s *Server, id, dir string, x, y float64) *http.Response {
	t.Helper()
	return doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/pointer/"+dir, map[string]any{"x": x, "y": y, "extent": extent})
}

func TestHealth(t *testing.T) {
	s := newServer(t, Options{})

	resp := do(t, s, http.MethodGet, "/health/live", "", nil)
	expectStatus(t, resp, fiber.StatusOK)

	resp = do(t, s, http.MethodGet, "/health/ready", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var out map[string]string
	decodeBody(t, resp, &out)
	if out["status"] != "ready" || out["engine"] != "content" {
		t.Errorf("ready = %v", out)
	}

	s = newServer(t, Options{Loader: failingLoader{}})
	resp = do(t, s, http.MethodGet, "/health/ready", "", nil)
	expectStatus(t, resp, fiber.StatusServiceUnavailable)
}

func TestSessionLifecycle(t *testing.T) {
	s := newServer(t, Options{})
	id := createSession(t, s)

	if st := sessionState(t, s, id); st.State != "empty" || st.Tool != "select" {
		t.Errorf("new session = %+v", st)
	}
	if s.Sessions() != 1 {
		t.Errorf("Sessions() = %d", s.Sessions())
	}

	expectStatus(t, do(t, s, http.MethodDelete, "/api/v1/sessions/"+id, "", nil), fiber.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodGet, "/api/v1/sessions/"+id, "", nil), fiber.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodDelete, "/api/v1/sessions/"+id, "", nil), fiber.StatusNotFound)
}

func TestSessionLimit(t *testing.T) {
	settings := config.Default()
	settings.MaxSessions = 1
	s := newServer(t, Options{Settings: settings})

	createSession(t, s)
	expectStatus(t, do(t, s, http.MethodPost, "/api/v1/sessions", "", nil), fiber.StatusTooManyRequests)
}

func TestUploadErrors(t *testing.T) {
	settings := config.Default()
	settings.MaxUploadSize = 1024

	tests := []struct {
		name        string
		loader      raster.Acquirer
		file        string
		contentType string
		data        []byte
		want        int
	}{
		{"text file", nil, "notes.txt", "text/plain", []byte("hello"), fiber.StatusUnsupportedMediaType},
		{"too large", nil, "big.pdf", "application/pdf", make([]byte, 2048), fiber.StatusRequestEntityTooLarge},
		{"malformed", nil, "bad.pdf", "application/pdf", []byte("%PDF-1.7 nothing"), fiber.StatusUnprocessableEntity},
		{"loader unavailable", failingLoader{}, "a.pdf", "application/pdf", []byte("%PDF-1.7 nothing"), fiber.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, Options{Settings: settings, Loader: tt.loader})
			id := createSession(t, s)
			resp := uploadFile(t, s, id, tt.file, tt.contentType, tt.data)
			expectStatus(t, resp, tt.want)

			var out map[string]string
			decodeBody(t, resp, &out)
			if out["error"] == "" {
				t.Error("error response without message")
			}
			if st := sessionState(t, s, id); st.State != "empty" {
				t.Errorf("state after failed upload = %q", st.State)
			}
		})
	}
}

func TestConcurrentUploadRejected(t *testing.T) {
	l := newGatedLoader()
	s := newServer(t, Options{Loader: l})
	id := createSession(t, s)
	data := testpdf.Build(testpdf.Options{})

	type result struct {
		resp *http.Response
		err  error
	}
	first := make(chan result, 1)
	req := uploadRequest(t, id, "first.pdf", "application/pdf", data)
	go func() {
		resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
		first <- result{resp, err}
	}()

	select {
	case <-l.started:
	case <-time.After(10 * time.Second):
		t.Fatal("first upload never reached the loader")
	}

	resp := uploadFile(t, s, id, "second.pdf", "application/pdf", data)
	expectStatus(t, resp, fiber.StatusConflict)

	close(l.release)
	r := <-first
	if r.err != nil {
		t.Fatalf("first upload: %v", r.err)
	}
	defer r.resp.Body.Close()
	expectStatus(t, r.resp, fiber.StatusOK)

	if n := l.acquired.Load(); n != 1 {
		t.Errorf("loader acquisitions = %d, want 1", n)
	}
	if st := sessionState(t, s, id); st.State != "ready" {
		t.Errorf("state = %q, want ready", st.State)
	}

	// The flag is released once the first upload finishes.
	resp = uploadFile(t, s, id, "third.pdf", "application/pdf", data)
	expectStatus(t, resp, fiber.StatusOK)
}

func TestUploadWithoutFile(t *testing.T) {
	s := newServer(t, Options{})
	id := createSession(t, s)
	resp := do(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/document", fiber.MIMEApplicationJSON, strings.NewReader("{}"))
	expectStatus(t, resp, fiber.StatusBadRequest)
}

func exportedAnnotations(t *testing.T, s *Server, id string, page int) int {
	t.Helper()
	resp := do(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/document", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	if got := resp.Header.Get(fiber.HeaderContentDisposition); got != `attachment; filename="report_edited.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := resp.Header.Get(fiber.HeaderContentType); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("export is not a readable PDF: %v", err)
	}
	return r.Page(page).V.Key("Annots").Len()
}

func TestAnnotateSelectDeleteExport(t *testing.T) {
	s := newServer(t, Options{})
	id := loadSession(t, s, 3)
	base := "/api/v1/sessions/" + id

	expectStatus(t, doJSON(t, s, http.MethodPut, base+"/page", map[string]any{"page": 2}), fiber.StatusOK)
	expectStatus(t, doJSON(t, s, http.MethodPut, base+"/tool", map[string]any{"tool": "rectangle"}), fiber.StatusOK)

	expectStatus(t, pointer(t, s, id, "down", 100, 100), fiber.StatusOK)
	resp := pointer(t, s, id, "up", 300, 300)
	expectStatus(t, resp, fiber.StatusOK)
	var created struct {
		Created    bool `json:"created"`
		Annotation struct {
			ID string `json:"id"`
		} `json:"annotation"`
	}
	decodeBody(t, resp, &created)
	if !created.Created || created.Annotation.ID == "" {
		t.Fatalf("pointer up = %+v", created)
	}

	if n := exportedAnnotations(t, s, id, 2); n != 1 {
		t.Fatalf("page 2 exported with %d annotations, want 1", n)
	}

	expectStatus(t, doJSON(t, s, http.MethodPut, base+"/tool", map[string]any{"tool": "select"}), fiber.StatusOK)
	pointer(t, s, id, "down", 200, 200)
	if st := sessionState(t, s, id); st.Selected != created.Annotation.ID {
		t.Fatalf("selected %q, want %q", st.Selected, created.Annotation.ID)
	}

	resp = do(t, s, http.MethodDelete, base+"/selection", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	decodeBody(t, resp, &deleted)
	if !deleted.Deleted {
		t.Fatal("selection not deleted")
	}

	if n := exportedAnnotations(t, s, id, 2); n != 0 {
		t.Errorf("deleted annotation exported: %d annotations", n)
	}
}

func TestDownloadName(t *testing.T) {
	s := newServer(t, Options{})
	id := loadSession(t, s, 1)
	base := "/api/v1/sessions/" + id + "/document"

	tests := []struct {
		query string
		want  string
	}{
		{"", `filename="report_edited.pdf"`},
		{"?unique=false", `filename="report_edited.pdf"`},
		{"?unique=true", `filename="report_edited_2026-05-01T12-00-00.pdf"`},
		{"?unique=1", `filename="report_edited_2026-05-01T12-00-00.pdf"`},
	}
	for _, tt := range tests {
		resp := do(t, s, http.MethodGet, base+tt.query, "", nil)
		expectStatus(t, resp, fiber.StatusOK)
		if got := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(got, tt.want) {
			t.Errorf("GET %s: Content-Disposition = %q, want %s", tt.query, got, tt.want)
		}
	}

	resp := do(t, s, http.MethodGet, base+"?unique=maybe", "", nil)
	expectStatus(t, resp, fiber.StatusBadRequest)
}

func TestPalette(t *testing.T) {
	s := newServer(t, Options{})
	resp := do(t, s, http.MethodGet, "/api/v1/palette", "", nil)
	expectStatus(t, resp, fiber.StatusOK)

	var colors []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	decodeBody(t, resp, &colors)
	if len(colors) != 10 {
		t.Fatalf("palette has %d colors, want 10", len(colors))
	}
	if colors[0].Name != "Red" || colors[0].Color != "#ff0000" {
		t.Errorf("first color = %+v", colors[0])
	}
	if colors[7].Name != "Orange" || colors[7].Color != "#ffa500" {
		t.Errorf("orange = %+v", colors[7])
	}
}

func TestTextAnnotation(t *testing.T) {
	s := newServer(t, Options{})
	id := loadSession(t, s, 1)
	base := "/api/v1/sessions/" + id

	doJSON(t, s, http.MethodPut, base+"/tool", map[string]any{"tool": "text"})
	pointer(t, s, id, "down", 100, 100)
	pointer(t, s, id, "up", 400, 150)
	if st := sessionState(t, s, id); st.State != "awaiting-text-input" {
		t.Fatalf("state = %q", st.State)
	}

	resp := doJSON(t, s, http.MethodPost, base+"/text", map[string]any{"content": "Hello"})
	expectStatus(t, resp, fiber.StatusOK)
	var out struct {
		Created bool `json:"created"`
	}
	decodeBody(t, resp, &out)
	if !out.Created {
		t.Error("text not created")
	}

	expectStatus(t, do(t, s, http.MethodDelete, base+"/text", "", nil), fiber.StatusConflict)
	expectStatus(t, doJSON(t, s, http.MethodPost, base+"/text", map[string]any{"content": "late"}), fiber.StatusConflict)
}

func TestEditingEndpoints(t *testing.T) {
	s := newServer(t, Options{})
	id := loadSession(t, s, 2)
	base := "/api/v1/sessions/" + id

	resp := doJSON(t, s, http.MethodPost, base+"/annotations", map[string]any{
		"page":       1,
		"annotation": map[string]any{"type": "circle", "x": 0.1, "y": 0.1, "width": 0.2, "height": 0.2, "color": "#00ff00"},
	})
	expectStatus(t, resp, fiber.StatusCreated)

	expectStatus(t, doJSON(t, s, http.MethodPost, base+"/annotations", map[string]any{
		"page": 1, "annotation": map[string]any{"type": "arrow"},
	}), fiber.StatusBadRequest)
	expectStatus(t, doJSON(t, s, http.MethodPost, base+"/annotations", map[string]any{
		"page": 5, "annotation": map[string]any{"type": "circle", "width": 0.1, "height": 0.1},
	}), fiber.StatusNotFound)

	resp = doJSON(t, s, http.MethodPost, base+"/keys", map[string]any{"key": "z", "ctrl": true})
	expectStatus(t, resp, fiber.StatusOK)
	var key struct {
		Action  string `json:"action"`
		Handled bool   `json:"handled"`
	}
	decodeBody(t, resp, &key)
	if key.Action != "undo" || !key.Handled {
		t.Errorf("key = %+v", key)
	}
	if st := sessionState(t, s, id); len(st.Pages[0].Annotations) != 0 {
		t.Error("undo via key did not remove the annotation")
	}

	expectStatus(t, do(t, s, http.MethodPost, base+"/redo", "", nil), fiber.StatusOK)
	if st := sessionState(t, s, id); len(st.Pages[0].Annotations) != 1 {
		t.Error("redo did not restore the annotation")
	}

	resp = do(t, s, http.MethodGet, base+"/history", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var hist struct {
		Entries []struct {
			Description string `json:"description"`
		} `json:"entries"`
	}
	decodeBody(t, resp, &hist)
	if len(hist.Entries) != 2 || hist.Entries[0].Description != "Document loaded" {
		t.Errorf("history = %+v", hist)
	}

	resp = doJSON(t, s, http.MethodPut, base+"/zoom", map[string]any{"action": "in"})
	expectStatus(t, resp, fiber.StatusOK)
	var st state
	decodeBody(t, resp, &st)
	if st.Zoom != 1.25 {
		t.Errorf("zoom = %v", st.Zoom)
	}
	expectStatus(t, doJSON(t, s, http.MethodPut, base+"/zoom", map[string]any{"action": "sideways"}), fiber.StatusBadRequest)

	resp = doJSON(t, s, http.MethodPut, base+"/page", map[string]any{"page": 9})
	expectStatus(t, resp, fiber.StatusOK)
	decodeBody(t, resp, &st)
	if st.CurrentPage != 1 {
		t.Errorf("out of range page moved to %d", st.CurrentPage)
	}

	expectStatus(t, do(t, s, http.MethodPut, base+"/tool", fiber.MIMEApplicationJSON, strings.NewReader("{")), fiber.StatusBadRequest)
	expectStatus(t, doJSON(t, s, http.MethodPut, base+"/tool", map[string]any{"tool": "eraser"}), fiber.StatusBadRequest)
}

func TestRendering(t *testing.T) {
	s := newServer(t, Options{})
	id := loadSession(t, s, 2)
	base := "/api/v1/sessions/" + id

	resp := do(t, s, http.MethodGet, base+"/render", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	if resp.Header.Get(fiber.HeaderContentType) != "image/png" || resp.Header.Get("X-Page") != "1" {
		t.Errorf("headers = %v", resp.Header)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 612 || cfg.Height != 792 {
		t.Errorf("page image %dx%d", cfg.Width, cfg.Height)
	}

	resp = do(t, s, http.MethodGet, base+"/thumbnails/2", "", nil)
	expectStatus(t, resp, fiber.StatusOK)
	if cfg, err = png.DecodeConfig(resp.Body); err != nil || cfg.Width != 123 || cfg.Height != 159 {
		t.Errorf("thumbnail %dx%d, %v", cfg.Width, cfg.Height, err)
	}

	expectStatus(t, do(t, s, http.MethodGet, base+"/thumbnails/3", "", nil), fiber.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodGet, base+"/thumbnails/first", "", nil), fiber.StatusBadRequest)
}

func TestNoDocument(t *testing.T) {
	s := newServer(t, Options{})
	id := createSession(t, s)
	base := "/api/v1/sessions/" + id

	expectStatus(t, do(t, s, http.MethodGet, base+"/document", "", nil), fiber.StatusConflict)
	expectStatus(t, do(t, s, http.MethodGet, base+"/render", "", nil), fiber.StatusConflict)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errUnknownSession, fiber.StatusNotFound},
		{fiber.NewError(fiber.StatusTeapot), fiber.StatusTeapot},
		{pdfannot.ErrLoadInProgress, fiber.StatusConflict},
		{context.Canceled, fiber.StatusRequestTimeout},
		{fmt.Errorf("render: %w", context.DeadlineExceeded), fiber.StatusGatewayTimeout},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
