// Package store provides a minimal dispatch-based store.
//
// It exists for hosts that have no store of their own, for the CLI demo and
// for tests. Any type satisfying ports.Store can be observed instead.
package store

import (
	"sync"

	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/ports"
)

// Listener is notified after every dispatch.
type Listener func()

// Store implements ports.Store in memory.
// Safe for concurrent use; dispatches are serialized. Reducers must not
// dispatch.
type Store struct {
	mu        sync.RWMutex
	reducer   ports.Reducer
	state     any
	listeners map[int]Listener
	nextID    int
}

// New creates a store and dispatches domain.ActionInit so reducers can
// produce their initial state.
func New(reducer ports.Reducer, preloaded any) *Store {
	s := &Store{
		reducer:   reducer,
		state:     preloaded,
		listeners: make(map[int]Listener),
	}
	s.Dispatch(domain.Action{Type: domain.ActionInit})
	return s
}

// Create builds a store and decorates it with the given enhancers, the first
// one being the outermost.
func Create(reducer ports.Reducer, preloaded any, enhancers ...ports.Enhancer) ports.Store {
	return ports.Compose(enhancers...)(New(reducer, preloaded))
}

// Dispatch applies the action and returns it.
// A panicking reducer leaves the state unchanged and the panic propagates.
func (s *Store) Dispatch(action domain.Action) any {
	s.reduce(action)
	s.notify()
	return action
}

func (s *Store) reduce(action domain.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.reducer(s.state, action)
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l()
	}
}

// GetState returns the current state.
func (s *Store) GetState() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ReplaceReducer swaps the reducer and dispatches domain.ActionReplace.
func (s *Store) ReplaceReducer(next ports.Reducer) {
	s.mu.Lock()
	s.reducer = next
	s.mu.Unlock()
	s.Dispatch(domain.Action{Type: domain.ActionReplace})
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
