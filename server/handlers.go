package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"strconv"
	"time"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/canvas"
	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/files"
	"github.com/digitorus/pdfannot/keymap"
	"github.com/gofiber/fiber/v3"
)

func (s *Server) routes() {
	s.app.Get("/health/live", s.liveness)
	s.app.Get("/health/ready", s.readiness)
	s.app.Get("/api/v1/palette", palette)

	api := s.app.Group("/api/v1/sessions")
	api.Post("/", s.create)
	api.Get("/:id", s.withEditor(snapshot))
	api.Delete("/:id", s.remove)

	api.Post("/:id/document", s.withLoad(upload))
	api.Get("/:id/document", s.withEditor(s.download))
	api.Delete("/:id/document", s.withEditor(unload))

	api.Put("/:id/tool", s.withEditor(setTool))
	api.Put("/:id/color", s.withEditor(setColor))
	api.Put("/:id/font", s.withEditor(setFont))
	api.Put("/:id/zoom", s.withEditor(setZoom))
	api.Put("/:id/page", s.withEditor(setPage))

	api.Post("/:id/pointer/down", s.withEditor(pointerDown))
	api.Post("/:id/pointer/up", s.withEditor(pointerUp))
	api.Post("/:id/text", s.withEditor(submitText))
	api.Delete("/:id/text", s.withEditor(cancelText))
	api.Post("/:id/keys", s.withEditor(handleKey))

	api.Post("/:id/annotations", s.withEditor(addAnnotation))
	api.Put("/:id/selection", s.withEditor(selectAnnotation))
	api.Delete("/:id/selection", s.withEditor(deleteSelection))
	api.Post("/:id/undo", s.withEditor(undo))
	api.Post("/:id/redo", s.withEditor(redo))
	api.Get("/:id/history", s.withEditor(historyEntries))

	api.Get("/:id/render", s.withEditor(renderPage))
	api.Get("/:id/thumbnails/:page", s.withEditor(renderThumbnail))
}

// ============================================================
// Health
// ============================================================

func (s *Server) liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// readiness reports whether the rasterization engine can be acquired. The
// first probe triggers the load.
func (s *Server) readiness(c fiber.Ctx) error {
	engine, err := s.loader.Acquire(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
		"engine": engine.Name(),
	})
}

// ============================================================
// Sessions
// ============================================================

func (s *Server) create(c fiber.Ctx) error {
	id, sess, err := s.createSession()
	if err != nil {
		return err
	}
	s.logger.Info("session created", "session", id)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    id,
		"state": sess.editor.Snapshot(),
	})
}

func (s *Server) remove(c fiber.Ctx) error {
	if err := s.closeSession(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func snapshot(c fiber.Ctx, ed *pdfannot.Editor) error {
	return c.JSON(ed.Snapshot())
}

// ============================================================
// Document
// ============================================================

func upload(c fiber.Ctx, ed *pdfannot.Editor) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file required")
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	err = ed.Load(c.Context(), pdfannot.File{
		Name: fh.Filename,
		MIME: fh.Header.Get(fiber.HeaderContentType),
		Data: data,
	})
	if err != nil {
		return err
	}
	return c.JSON(ed.Snapshot())
}

// download exports the session. With ?unique=true the file name carries the
// export time.
func (s *Server) download(c fiber.Ctx, ed *pdfannot.Editor) error {
	unique, err := strconv.ParseBool(c.Query("unique", "false"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid unique flag "+strconv.Quote(c.Query("unique")))
	}
	out, err := ed.Export(c.Context())
	if err != nil {
		return err
	}
	if unique {
		out.Name = files.UniqueName(ed.FileName(), s.now())
	}
	c.Attachment(out.Name)
	c.Set(fiber.HeaderContentType, out.MIME)
	return c.Send(out.Data)
}

func unload(c fiber.Ctx, ed *pdfannot.Editor) error {
	ed.Close()
	return c.JSON(ed.Snapshot())
}

// ============================================================
// Settings
// ============================================================

func palette(c fiber.Ctx) error {
	return c.JSON(annotation.Palette)
}

func decode(c fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON payload")
	}
	return nil
}

func setTool(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Tool annotation.Type `json:"tool"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if err := ed.SetTool(req.Tool); err != nil {
		return badRequest(err)
	}
	return c.JSON(ed.Snapshot())
}

func setColor(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Color annotation.Color `json:"color"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	ed.SetColor(req.Color)
	return c.JSON(ed.Snapshot())
}

func setFont(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Size   float64 `json:"size"`
		Family string  `json:"family"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Size != 0 {
		if err := ed.SetFontSize(req.Size); err != nil {
			return badRequest(err)
		}
	}
	if req.Family != "" {
		if err := ed.SetFontFamily(req.Family); err != nil {
			return badRequest(err)
		}
	}
	return c.JSON(ed.Snapshot())
}

// setZoom accepts either an absolute zoom or one of the actions "in", "out"
// and "reset".
func setZoom(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Zoom   float64 `json:"zoom"`
		Action string  `json:"action"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	switch req.Action {
	case "in":
		ed.ZoomIn()
	case "out":
		ed.ZoomOut()
	case "reset":
		ed.ResetZoom()
	case "":
		ed.SetZoom(req.Zoom)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown zoom action "+strconv.Quote(req.Action))
	}
	return c.JSON(ed.Snapshot())
}

func setPage(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Page   int    `json:"page"`
		Action string `json:"action"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	switch req.Action {
	case "next":
		ed.NextPage()
	case "prev":
		ed.PrevPage()
	case "":
		ed.GoToPage(req.Page)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown page action "+strconv.Quote(req.Action))
	}
	return c.JSON(ed.Snapshot())
}

// ============================================================
// Interaction
// ============================================================

type pointerRequest struct {
	coords.Point
	Extent coords.Extent `json:"extent"`
}

func pointerDown(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req pointerRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	ed.PointerDown(req.Point, req.Extent)
	return c.JSON(ed.Snapshot())
}

func pointerUp(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req pointerRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	a, created := ed.PointerUp(req.Point, req.Extent)
	return c.JSON(createdResult(a, created, ed))
}

func createdResult(a annotation.Annotation, created bool, ed *pdfannot.Editor) fiber.Map {
	m := fiber.Map{
		"created": created,
		"state":   ed.Snapshot(),
	}
	if created {
		m["annotation"] = a
	}
	return m
}

func submitText(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	a, created, err := ed.SubmitText(req.Content)
	if err != nil {
		return err
	}
	return c.JSON(createdResult(a, created, ed))
}

func cancelText(c fiber.Ctx, ed *pdfannot.Editor) error {
	if !ed.CancelText() {
		return pdfannot.ErrNoPendingText
	}
	return c.JSON(ed.Snapshot())
}

func handleKey(c fiber.Ctx, ed *pdfannot.Editor) error {
	var ev keymap.Event
	if err := decode(c, &ev); err != nil {
		return err
	}
	action, handled := ed.HandleKey(ev)
	return c.JSON(fiber.Map{
		"action":  action.String(),
		"handled": handled,
		"state":   ed.Snapshot(),
	})
}

// ============================================================
// Annotations
// ============================================================

func addAnnotation(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		Page       int                   `json:"page"`
		Annotation annotation.Annotation `json:"annotation"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	a, err := ed.AddAnnotation(req.Page, req.Annotation)
	if err != nil {
		return badRequest(err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func selectAnnotation(c fiber.Ctx, ed *pdfannot.Editor) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.ID == "" {
		ed.ClearSelection()
	} else if !ed.Select(req.ID) {
		return fiber.NewError(fiber.StatusNotFound, "no annotation "+strconv.Quote(req.ID)+" on the current page")
	}
	return c.JSON(ed.Snapshot())
}

func deleteSelection(c fiber.Ctx, ed *pdfannot.Editor) error {
	deleted := ed.DeleteSelected()
	return c.JSON(fiber.Map{
		"deleted": deleted,
		"state":   ed.Snapshot(),
	})
}

func undo(c fiber.Ctx, ed *pdfannot.Editor) error {
	ok := ed.Undo()
	return c.JSON(fiber.Map{
		"applied": ok,
		"state":   ed.Snapshot(),
	})
}

func redo(c fiber.Ctx, ed *pdfannot.Editor) error {
	ok := ed.Redo()
	return c.JSON(fiber.Map{
		"applied": ok,
		"state":   ed.Snapshot(),
	})
}

func historyEntries(c fiber.Ctx, ed *pdfannot.Editor) error {
	type entry struct {
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
		Annotations int       `json:"annotations"`
	}
	entries := ed.HistoryEntries()
	out := make([]entry, len(entries))
	for i, e := range entries {
		out[i] = entry{
			Description: e.Description,
			Timestamp:   e.Timestamp,
			Annotations: annotation.Count(e.Pages),
		}
	}
	return c.JSON(fiber.Map{
		"info":    ed.HistoryInfo(),
		"entries": out,
	})
}

// ============================================================
// Rendering
// ============================================================

func renderPage(c fiber.Ctx, ed *pdfannot.Editor) error {
	f, err := ed.RenderPage(c.Context(), pdfannot.MainSurface)
	if err != nil {
		return err
	}
	c.Set("X-Page", strconv.Itoa(f.Page))
	c.Set("X-Zoom", strconv.FormatFloat(f.Zoom, 'f', -1, 64))
	return sendPNG(c, f.Image)
}

func renderThumbnail(c fiber.Ctx, ed *pdfannot.Editor) error {
	n, err := strconv.Atoi(c.Params("page"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page number")
	}
	img, err := ed.RenderThumbnail(c.Context(), n)
	if err != nil {
		return err
	}
	return sendPNG(c, img)
}

func sendPNG(c fiber.Ctx, img image.Image) error {
	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf, img); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}
