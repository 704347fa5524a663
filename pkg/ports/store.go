package ports

import "github.com/aretw0/remotedev/pkg/domain"

// Reducer computes the next state from the current state and an action.
// Reducers must not mutate the state they receive.
type Reducer func(state any, action domain.Action) any

// StateReader exposes the current state of a store.
type StateReader interface {
	GetState() any
}

// Store defines the dispatch-based store contract.
type Store interface {
	StateReader

	// Dispatch applies the action and returns the store's dispatch result.
	// Panics raised by the reducer propagate to the caller.
	Dispatch(action domain.Action) any

	// ReplaceReducer hot-swaps the reducer used for subsequent dispatches.
	ReplaceReducer(next Reducer)
}
