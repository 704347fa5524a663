// Package trigger decides when buffered history must be sent.
package trigger

import "github.com/aretw0/remotedev/pkg/domain"

// Predicate inspects the state produced by an action.
type Predicate func(state any, action domain.Action) bool

// Evaluator holds the send-on rules. The latched condition fires at most once
// for the lifetime of the evaluator.
//
// It is not safe for concurrent use.
type Evaluator struct {
	types     map[string]struct{}
	fn        Predicate
	condition Predicate
	fired     bool
}

// New creates an evaluator.
// sendOn lists action types that always trigger; fn is evaluated on every
// action; condition is latched after its first true result.
func New(sendOn []string, fn, condition Predicate) *Evaluator {
	types := make(map[string]struct{}, len(sendOn))
	for _, t := range sendOn {
		types[t] = struct{}{}
	}
	return &Evaluator{types: types, fn: fn, condition: condition}
}

// ShouldSend reports whether the action just applied must flush the history.
func (e *Evaluator) ShouldSend(state any, action domain.Action) bool {
	if _, ok := e.types[action.Type]; ok {
		return true
	}
	if e.fn != nil && e.fn(state, action) {
		return true
	}
	if e.condition != nil && !e.fired && e.condition(state, action) {
		e.fired = true
		return true
	}
	return false
}

// Fired reports whether the latched condition already triggered.
func (e *Evaluator) Fired() bool {
	return e.fired
}

// Empty reports whether no rule is configured, in which case only host errors
// can flush the history.
func (e *Evaluator) Empty() bool {
	return len(e.types) == 0 && e.fn == nil && e.condition == nil
}
