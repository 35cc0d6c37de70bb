// Package ocr owns the lifecycle of the optical character recognition engine.
// The engine is initialized at most once per process and may fail; a failed
// engine stays failed.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// State of the engine handle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var (
	ErrNotReady           = errors.New("ocr engine not ready")
	ErrBusy               = errors.New("ocr engine busy")
	ErrAlreadyInitialized = errors.New("ocr engine already initialized")
)

// Options configure the recognizer. They are passed through verbatim.
type Options struct {
	Language    string
	Whitelist   string
	PageSegMode int
}

// Recognizer is a loaded OCR model.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// Factory loads a Recognizer. It may block for a long time.
type Factory func(ctx context.Context, opts Options) (Recognizer, error)

// Engine is the process-wide OCR handle.
type Engine struct {
	factory Factory
	opts    Options
	logger  *slog.Logger

	state    atomic.Int32
	initDone chan struct{}

	mu  sync.Mutex // guards rec and state writes
	rec Recognizer

	busy atomic.Bool
}

// NewEngine returns an Uninitialized engine.
func NewEngine(factory Factory, opts Options, logger *slog.Logger) *Engine {
	return &Engine{factory: factory, opts: opts, logger: logger, initDone: make(chan struct{})}
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Ready reports whether Recognize may be called.
func (e *Engine) Ready() bool { return e.State() == StateReady }

// Start begins initialization in the background and returns immediately.
// Only the first call has any effect; later calls return
// ErrAlreadyInitialized. A load failure is logged and leaves the engine in
// StateFailed for good.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.State() != StateUninitialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	e.state.Store(int32(StateInitializing))
	e.mu.Unlock()

	go e.initialize(ctx)
	return nil
}

// Wait blocks until initialization has finished or ctx is done. It returns
// nil when the engine ended up Ready.
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.initDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	if st := e.State(); st != StateReady {
		return fmt.Errorf("%w: %s", ErrNotReady, st)
	}
	return nil
}

func (e *Engine) initialize(ctx context.Context) {
	defer close(e.initDone)
	rec, err := e.load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StateInitializing {
		// Terminated while loading.
		if rec != nil {
			_ = rec.Close()
		}
		return
	}
	if err != nil {
		e.state.Store(int32(StateFailed))
		if e.logger != nil {
			e.logger.Warn("ocr init failed, text recognition disabled", "error", err)
		}
		return
	}
	e.rec = rec
	e.state.Store(int32(StateReady))
	if e.logger != nil {
		e.logger.Info("ocr engine ready", "language", e.opts.Language)
	}
}

func (e *Engine) load(ctx context.Context) (rec Recognizer, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("ocr factory panic: %v", r)
			if e.logger != nil {
				e.logger.Error("ocr factory panic", "error", r, "stack", string(debug.Stack()))
			}
		}
	}()
	if e.factory == nil {
		return nil, errors.New("no ocr factory")
	}
	rec, err = e.factory(ctx, e.opts)
	if err == nil && rec == nil {
		err = errors.New("ocr factory returned no recognizer")
	}
	return rec, err
}

// Recognize runs one recognition. Overlapping calls fail fast with ErrBusy;
// calls outside StateReady fail with ErrNotReady.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StateReady || e.rec == nil {
		return "", ErrNotReady
	}
	if img == nil {
		return "", errors.New("ocr: nil image")
	}
	return e.rec.Recognize(ctx, img)
}

// Terminate releases the recognizer. It waits for a running initialization
// (bounded by ctx) and for an in-flight Recognize. Idempotent.
func (e *Engine) Terminate(ctx context.Context) error {
	if e.State() == StateInitializing {
		select {
		case <-e.initDone:
		case <-ctx.Done():
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.State()
	if prev == StateTerminated {
		return nil
	}
	e.state.Store(int32(StateTerminated))
	var err error
	if e.rec != nil {
		err = e.rec.Close()
		e.rec = nil
	}
	if e.logger != nil {
		e.logger.Debug("ocr engine terminated", "from", prev.String())
	}
	return err
}
