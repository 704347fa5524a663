package remotedev

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/remotedev/internal/buffer"
	"github.com/aretw0/remotedev/internal/trigger"
	"github.com/aretw0/remotedev/internal/watcher"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/ports"
	"github.com/aretw0/remotedev/pkg/transport"
)

// ErrClosed is reported through OnFailed for reports released after Close.
var ErrClosed = errors.New("store is closed")

// Store is a ports.Store whose dispatches are observed and reported.
type Store struct {
	next   ports.Store
	enh    *Enhancer
	logger *slog.Logger

	// mu guards buffer, trigger and seeded. Record, evaluate and snapshot
	// happen in one critical section.
	mu      sync.Mutex
	buffer  *buffer.Buffer
	trigger *trigger.Evaluator
	seeded  bool

	ctx     context.Context
	cancel  context.CancelFunc
	watcher *watcher.Watcher

	// sendMu guards inflight and closed, so no send can start once Close
	// has begun waiting.
	sendMu   sync.Mutex
	sendDone *sync.Cond
	inflight int
	closed   bool
}

var _ ports.Store = (*Store)(nil)

// Dispatch forwards the action to the underlying store and observes it.
// The result is the underlying store's. A panic raised by the underlying
// store propagates unchanged and nothing is recorded.
func (s *Store) Dispatch(action domain.Action) any {
	// Filtered actions never become the baseline of a batch.
	if s.enh.filter.Allows(action.Type) {
		s.seed()
	}
	result := s.next.Dispatch(action)
	s.observe(action, "")
	return result
}

// GetState returns the underlying store's state.
func (s *Store) GetState() any {
	return s.next.GetState()
}

// ReplaceReducer swaps the underlying store's reducer.
func (s *Store) ReplaceReducer(r ports.Reducer) {
	s.next.ReplaceReducer(r)
}

// ReportError records a synthetic error action and sends a report carrying
// err, whatever the trigger rules say. Nil errors are ignored.
func (s *Store) ReportError(err error) {
	if err == nil {
		return
	}
	s.logger.Debug("reporting host error", "error", err)
	s.seed()
	s.observe(domain.NewErrorAction(err), err.Error())
}

// Recover reports a panic in progress and re-panics with the same value.
// Use it as: defer store.Recover()
func (s *Store) Recover() {
	r := recover()
	if r == nil {
		return
	}
	s.ReportError(watcher.FromRecover(r))
	panic(r)
}

// Wait blocks until every report handed to a transport has completed.
func (s *Store) Wait() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	for s.inflight > 0 {
		s.sendDone.Wait()
	}
}

// Close stops the error watcher and waits for in-flight sends, or for ctx.
// Reports released by BeforeSending after Close are dropped.
func (s *Store) Close(ctx context.Context) error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return nil
	}
	s.closed = true
	s.sendMu.Unlock()

	if s.watcher != nil {
		s.watcher.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// History returns a copy of the retained entries and the preloaded state.
func (s *Store) History() buffer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Snapshot()
}

// seed captures the state right before the first observed dispatch.
func (s *Store) seed() {
	if s.enh.mode != ModeBatched {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("seeding preloaded state failed", "error", watcher.FromRecover(r))
		}
	}()
	s.mu.Lock()
	seeded := s.seeded
	s.mu.Unlock()
	if seeded {
		return
	}

	state := s.safeState(s.next.GetState())

	s.mu.Lock()
	if !s.seeded {
		if s.buffer.Seed(state) {
			s.logger.Debug("preloaded state seeded")
		}
		s.seeded = true
	}
	s.mu.Unlock()
}

// observe runs the observation pipeline. exception is non-empty for host
// errors, which always flush. Failures here are logged and never reach the host.
func (s *Store) observe(action domain.Action, exception string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observation failed", "action", action.Type, "error", watcher.FromRecover(r))
		}
	}()

	allowed := s.enh.filter.Allows(action.Type)
	s.enh.metrics.ObserveAction(!allowed)
	if !allowed && exception == "" {
		return
	}

	state := s.next.GetState()
	o := observation{action: action, state: state, label: action.Type, allowed: allowed, forced: exception != ""}
	o.baseline = s.sanitizeState(state)
	if allowed {
		sanitized := action
		if fn := s.enh.cfg.ActionSanitizer; fn != nil {
			sanitized = fn(action)
		}
		o.label = sanitized.Type
		o.entry = sanitized
		if s.enh.cfg.WithState {
			o.entry = domain.StateEntry{State: o.baseline, Action: sanitized}
		}
	}

	snap, send := s.record(o)
	if !send {
		return
	}
	var single any
	if s.enh.mode == ModeEvery && allowed {
		single = o.entry
	}
	report := s.enh.buildReport(o.label, snap, single, single != nil)
	report.Exception = exception
	s.deliver(report)
}

// observation is one action ready to be recorded.
type observation struct {
	action   domain.Action
	state    any
	label    string
	entry    domain.Entry
	baseline any
	allowed  bool
	forced   bool
}

// record updates the history and evaluates the triggers in one critical
// section. It returns the snapshot to send, if any.
func (s *Store) record(o observation) (buffer.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Host errors flush without consulting the triggers, so the latched
	// condition is left untouched.
	send := o.forced
	switch s.enh.mode {
	case ModeEvery:
		if o.allowed {
			send = true
		}
	case ModeOnlyState:
		s.buffer.SetPreloaded(o.baseline)
		if !send && o.allowed {
			send = s.evaluate(o)
		}
	default:
		if o.allowed {
			s.buffer.Record(o.entry, o.baseline)
			if !send {
				send = s.evaluate(o)
			}
		}
	}
	if !send {
		return buffer.Snapshot{}, false
	}
	return s.buffer.Snapshot(), true
}

// evaluate runs the send rules. Callers hold mu.
func (s *Store) evaluate(o observation) bool {
	latched := s.trigger.Fired()
	send := s.trigger.ShouldSend(o.state, o.action)
	if !latched && s.trigger.Fired() {
		s.logger.Debug("send condition latched", "action", o.label)
	}
	return send
}

func (s *Store) sanitizeState(state any) any {
	if fn := s.enh.cfg.StateSanitizer; fn != nil {
		return fn(state)
	}
	return state
}

// safeState sanitizes state, falling back to the raw state if the sanitizer panics.
func (s *Store) safeState(state any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state sanitizer failed", "error", watcher.FromRecover(r))
			out = state
		}
	}()
	return s.sanitizeState(state)
}

// deliver hands the report to BeforeSending, or directly to the transport.
func (s *Store) deliver(report *domain.Report) {
	if fn := s.enh.cfg.BeforeSending; fn != nil {
		fn(report.Clone(), s.send)
		return
	}
	s.send(report)
}

// send starts one asynchronous delivery.
func (s *Store) send(report *domain.Report) {
	hooks := s.enh.metrics.Hooks(s.enh.cfg.SendingStatus)
	if report == nil {
		hooks.Failed(s.ctx, transport.ErrNilReport)
		return
	}
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		s.logger.Warn("dropping report released after close", "type", report.Type)
		hooks.Failed(s.ctx, ErrClosed)
		return
	}
	s.inflight++
	s.sendMu.Unlock()
	s.enh.metrics.Triggered(report.Type)

	req := transport.Request{
		Report:  report,
		SendTo:  s.enh.cfg.SendTo,
		Headers: s.enh.cfg.Headers,
		Hooks:   hooks,
		Store:   s,
	}

	go func() {
		defer s.finishSend()
		defer func() {
			if r := recover(); r != nil {
				err := watcher.FromRecover(r)
				s.logger.Error("sender panicked", "error", err)
				hooks.Failed(s.ctx, err)
			}
		}()
		s.enh.sender.Send(s.ctx, req)
	}()
}

func (s *Store) finishSend() {
	s.sendMu.Lock()
	s.inflight--
	if s.inflight == 0 {
		s.sendDone.Broadcast()
	}
	s.sendMu.Unlock()
}
