// Package server exposes editor sessions over HTTP.
//
// Every session owns one Editor. Requests for the same session are
// serialized by a per-session mutex; different sessions run in parallel and
// share the rasterization engine loader.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digitorus/pdfannot"
	"github.com/digitorus/pdfannot/config"
	"github.com/digitorus/pdfannot/raster"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
)

// AppName is reported by the HTTP server.
const AppName = "pdfannot"

// multipartOverhead is added to the upload limit to leave room for the
// multipart envelope around the document.
const multipartOverhead = 1 << 20

var (
	errUnknownSession  = errors.New("unknown session")
	errTooManySessions = errors.New("session limit reached")
)

// Options configures a Server.
type Options struct {
	Settings config.Config
	// Loader provides the rasterization engine for every session.
	Loader raster.Acquirer
	Logger *slog.Logger
	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
	Now       func() time.Time
}

type session struct {
	mu     sync.Mutex
	editor *pdfannot.Editor

	// loading is set for the duration of an upload, before mu is taken.
	loading atomic.Bool
}

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	settings config.Config
	loader   raster.Acquirer
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds the server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		settings: opts.Settings,
		loader:   opts.Loader,
		logger:   opts.Logger,
		now:      opts.Now,
		sessions: make(map[string]*session),
	}
	if s.settings == (config.Config{}) {
		s.settings = config.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.loader == nil {
		s.loader = raster.DefaultLoader(s.logger)
	}
	if s.now == nil {
		s.now = time.Now
	}

	read, write := s.settings.Timeouts()
	s.app = fiber.New(fiber.Config{
		AppName:      AppName,
		ReadTimeout:  read,
		WriteTimeout: write,
		BodyLimit:    int(s.settings.MaxUploadSize) + multipartOverhead,
		ErrorHandler: s.handleError,
	})

	s.app.Use(recover.New())
	if opts.AccessLog != nil {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
			Stream:     opts.AccessLog,
		}))
	}

	s.routes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured address until ctx is done.
func (s *Server) Listen(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.settings.Listen)
	return s.app.Listen(s.settings.Listen, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	})
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) createSession() (string, *session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.settings.MaxSessions {
		return "", nil, errTooManySessions
	}
	id := uuid.NewString()
	sess := &session{
		editor: pdfannot.New(s.loader, pdfannot.Options{
			Settings: s.settings,
			Logger:   s.logger.With("session", id),
			Now:      s.now,
		}),
	}
	s.sessions[id] = sess
	return id, sess, nil
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errUnknownSession
	}
	return sess, nil
}

func (s *Server) closeSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return errUnknownSession
	}
	sess.mu.Lock()
	sess.editor.Close()
	sess.mu.Unlock()
	return nil
}

// editorHandler is a handler that runs with exclusive access to the editor
// of the session named in the path.
type editorHandler func(c fiber.Ctx, ed *pdfannot.Editor) error

func (s *Server) withEditor(h editorHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, err := s.lookup(c.Params("id"))
		if err != nil {
			return err
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return h(c, sess.editor)
	}
}

// withLoad is withEditor for document uploads. An upload that arrives while
// another one for the same session is running fails with
// pdfannot.ErrLoadInProgress instead of waiting for the session.
func (s *Server) withLoad(h editorHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, err := s.lookup(c.Params("id"))
		if err != nil {
			return err
		}
		if !sess.loading.CompareAndSwap(false, true) {
			return pdfannot.ErrLoadInProgress
		}
		defer sess.loading.Store(false)

		sess.mu.Lock()
		defer sess.mu.Unlock()
		return h(c, sess.editor)
	}
}
