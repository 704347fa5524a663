package store

import "github.com/aretw0/remotedev/pkg/domain"

// Counter action types understood by CounterReducer.
const (
	Increment = "INCREMENT"
	Decrement = "DECREMENT"
)

// CounterReducer is a small integer reducer. A nil state starts at 0.
// Any other action type leaves the state unchanged.
func CounterReducer(state any, action domain.Action) any {
	n, _ := state.(int)
	switch action.Type {
	case Increment:
		return n + 1
	case Decrement:
		return n - 1
	}
	return n
}
