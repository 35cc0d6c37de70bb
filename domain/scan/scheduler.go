package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/soocke/serialscan/domain/capture"
	"github.com/soocke/serialscan/domain/decode"
	"github.com/soocke/serialscan/observe"
)

// State of the scanning loop.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var ErrAlreadyScanning = errors.New("scan already in progress")

// Listener is called after each state transition, outside any lock.
type Listener func(prev, next State)

// Job describes one scanning session.
type Job struct {
	// Next returns the newest frame, or false if none is available yet.
	Next func() (capture.Frame, bool)
	// OnFound receives the single successful result of the session.
	OnFound func(decode.Result)
	// Release frees the session's resources. It runs exactly once, before
	// OnFound on success and when the loop exits on every other path.
	Release func()
}

// run is the owned record of one session.
type run struct {
	job     Job
	metrics *Metrics
	work    context.Context
	stop    chan struct{}
	done    chan struct{}

	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (r *run) release() {
	r.releaseOnce.Do(func() {
		if r.job.Release != nil {
			r.job.Release()
		}
	})
}

// Scheduler advances one pipeline step per frame clock tick. At most one
// loop runs at a time and a loop never overlaps its own steps.
type Scheduler struct {
	pipeline    *Pipeline
	clock       FrameClock
	logger      *slog.Logger
	instruments *observe.Metrics

	mu        sync.Mutex
	state     atomic.Int32
	current   *run
	metrics   atomic.Pointer[Metrics]
	listeners []Listener
}

func NewScheduler(p *Pipeline, clock FrameClock, logger *slog.Logger, instruments *observe.Metrics) *Scheduler {
	s := &Scheduler{pipeline: p, clock: clock, logger: logger, instruments: instruments}
	s.metrics.Store(&Metrics{})
	return s
}

// State returns the current state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Metrics snapshots the counters of the current or last session.
func (s *Scheduler) Metrics() MetricsSnapshot { return s.metrics.Load().Snapshot() }

// AddListener registers l for future transitions.
func (s *Scheduler) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Start resets metrics and launches the loop for job. The returned channel
// closes when the loop has exited and job.Release has run. Until the previous
// loop has exited, Start returns an error wrapping ErrAlreadyScanning.
func (s *Scheduler) Start(ctx context.Context, job Job) (<-chan struct{}, error) {
	s.mu.Lock()
	if s.State() == StateScanning {
		s.mu.Unlock()
		return nil, ErrAlreadyScanning
	}
	if s.current != nil && !closed(s.current.done) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: previous loop still exiting", ErrAlreadyScanning)
	}
	r := &run{
		job:     job,
		metrics: &Metrics{},
		work:    context.WithoutCancel(ctx),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.current = r
	s.metrics.Store(r.metrics)
	prev := s.transition(StateScanning)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, prev, StateScanning)
	go s.loop(r)
	return r.done, nil
}

// Stop ends the current session. A result still being computed is dropped.
// Safe to call at any time and repeatedly.
func (s *Scheduler) Stop() { s.stopRun(nil) }

// stopRun stops target, or whichever session is current when target is nil.
func (s *Scheduler) stopRun(target *run) {
	s.mu.Lock()
	if s.State() != StateScanning || (target != nil && s.current != target) {
		s.mu.Unlock()
		return
	}
	r := s.current
	prev := s.transition(StateStopped)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	r.stopOnce.Do(func() { close(r.stop) })
	notify(listeners, prev, StateStopped)
	if s.logger != nil {
		s.logger.Info("scan stopped", "frames", r.metrics.FrameCount(), "ocr_attempts", r.metrics.OCRAttempts())
	}
}

// Done returns the exit channel of the current or last session. It is
// already closed when no session was ever started.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return s.current.done
}

func (s *Scheduler) loop(r *run) {
	defer close(r.done)
	defer r.release()
	defer func() {
		if rec := recover(); rec != nil {
			if s.logger != nil {
				s.logger.Error("scan loop panic", "error", rec, "stack", string(debug.Stack()))
			}
			s.stopRun(r)
		}
	}()
	frames := s.clock.Frames()
	for {
		select {
		case <-r.stop:
			return
		case _, ok := <-frames:
			if !ok {
				s.stopRun(r)
				return
			}
		}
		if !s.isCurrent(r) {
			return
		}
		if s.step(r) {
			return
		}
	}
}

// step runs one iteration and reports whether the session is over.
func (s *Scheduler) step(r *run) bool {
	f, ok := r.job.Next()
	if !ok {
		return false
	}
	n := r.metrics.nextFrame()
	s.instruments.RecordFrame(r.work)
	res := s.pipeline.Process(r.work, f, r.metrics)
	if !res.Found {
		return false
	}
	if !s.complete(r) {
		if s.logger != nil {
			s.logger.Debug("result discarded after stop", "source", res.Source)
		}
		return true
	}
	r.release()
	if s.logger != nil {
		s.logger.Info("serial found", "source", res.Source, "frame", n, "ocr_attempts", r.metrics.OCRAttempts())
	}
	s.instruments.RecordScan(r.work, res.Source)
	if r.job.OnFound != nil {
		func() {
			defer recoverLog(s.logger, "scan callback panic")
			r.job.OnFound(res)
		}()
	}
	return true
}

// complete moves r from Scanning to Stopped; false if a Stop won the race.
func (s *Scheduler) complete(r *run) bool {
	s.mu.Lock()
	if s.current != r || s.State() != StateScanning {
		s.mu.Unlock()
		return false
	}
	prev := s.transition(StateStopped)
	listeners := s.listenersLocked()
	s.mu.Unlock()
	r.stopOnce.Do(func() { close(r.stop) })
	notify(listeners, prev, StateStopped)
	return true
}

func (s *Scheduler) isCurrent(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == r && s.State() == StateScanning
}

// transition must be called with s.mu held.
func (s *Scheduler) transition(next State) State {
	prev := State(s.state.Swap(int32(next)))
	if s.logger != nil && prev != next {
		s.logger.Debug("scan state transition", "from", prev.String(), "to", next.String())
	}
	return prev
}

func (s *Scheduler) listenersLocked() []Listener {
	return append([]Listener(nil), s.listeners...)
}

func notify(ls []Listener, prev, next State) {
	if prev == next {
		return
	}
	for _, l := range ls {
		l(prev, next)
	}
}

func closed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
