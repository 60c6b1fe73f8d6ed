package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/digitorus/pdfannot/common"
)

// State is the lifecycle state of a Loader.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source acquires an engine. Load may block, for example while fetching or
// initializing resources.
type Source struct {
	Name string
	Load func(ctx context.Context) (Engine, error)
}

// attempt is one acquisition. done is closed once engine or err is set.
type attempt struct {
	done   chan struct{}
	engine Engine
	err    error
}

// Loader acquires an engine once and shares it. Acquisition tries the
// primary source and, if that fails, the fallback source exactly once.
//
// A Loader is safe for concurrent use. Callers that arrive while an
// acquisition is running wait for it instead of starting another one. A
// failed acquisition is retried by the next Acquire.
type Loader struct {
	primary  Source
	fallback Source
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	current *attempt
}

// NewLoader returns a loader for the given sources. A nil logger discards
// log output.
func NewLoader(primary, fallback Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{primary: primary, fallback: fallback, logger: logger}
}

// DefaultLoader returns a loader that prefers the ContentEngine and falls
// back to the PaperEngine.
func DefaultLoader(logger *slog.Logger) *Loader {
	return NewLoader(
		Source{Name: "content", Load: func(context.Context) (Engine, error) { return NewContentEngine() }},
		Source{Name: "paper", Load: func(context.Context) (Engine, error) { return PaperEngine{}, nil }},
		logger,
	)
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Acquire returns the engine, starting an acquisition when none has
// succeeded yet. Cancelling ctx stops the wait but not the acquisition,
// which stays available to later callers.
func (l *Loader) Acquire(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	if l.state == StateUninitialized || l.state == StateFailed {
		l.state = StateLoading
		l.current = &attempt{done: make(chan struct{})}
		go l.load(context.WithoutCancel(ctx), l.current)
	}
	a := l.current
	l.mu.Unlock()

	select {
	case <-a.done:
		return a.engine, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) load(ctx context.Context, a *attempt) {
	engine, err := l.try(ctx, l.primary)
	if err != nil {
		l.logger.Warn("primary rasterization engine failed, trying fallback",
			"source", l.primary.Name, "error", err)

		var ferr error
		engine, ferr = l.try(ctx, l.fallback)
		if ferr != nil {
			err = common.Wrap(common.ErrLoaderUnavailable, "no engine could be acquired", errors.Join(err, ferr))
		} else {
			err = nil
		}
	}

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.logger.Error("rasterization engine unavailable", "error", err)
	} else {
		l.state = StateReady
		l.logger.Info("rasterization engine ready", "engine", engine.Name())
	}
	a.engine, a.err = engine, err
	l.mu.Unlock()
	close(a.done)
}

func (l *Loader) try(ctx context.Context, src Source) (engine Engine, err error) {
	if src.Load == nil {
		return nil, fmt.Errorf("source %q is not configured", src.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("source %q panicked: %v", src.Name, r)
		}
	}()
	engine, err = src.Load(ctx)
	if err == nil && engine == nil {
		err = fmt.Errorf("source %q returned no engine", src.Name)
	}
	return engine, err
}
