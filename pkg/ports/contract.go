package ports

import (
	"testing"

	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory builds the store under test from a reducer and a preloaded state.
type StoreFactory func(reducer Reducer, preloaded any) Store

func contractReducer(state any, action domain.Action) any {
	n, _ := state.(int)
	switch action.Type {
	case "INCREMENT":
		return n + 1
	case "DECREMENT":
		return n - 1
	case "BOOM":
		panic("reducer failure")
	}
	return n
}

// RunStoreContract runs a suite of tests to verify that a Store implementation
// (or a decorated one) adheres to the dispatch contract.
func RunStoreContract(t *testing.T, create StoreFactory) {
	t.Run("Initial State", func(t *testing.T) {
		s := create(contractReducer, 5)
		assert.Equal(t, 5, s.GetState())
	})

	t.Run("Dispatch Applies Reducer", func(t *testing.T) {
		s := create(contractReducer, 0)

		result := s.Dispatch(domain.Action{Type: "INCREMENT"})
		assert.Equal(t, domain.Action{Type: "INCREMENT"}, result, "Dispatch should return the action")
		s.Dispatch(domain.Action{Type: "INCREMENT"})
		s.Dispatch(domain.Action{Type: "DECREMENT"})
		assert.Equal(t, 1, s.GetState())
	})

	t.Run("Unknown Actions Keep State", func(t *testing.T) {
		s := create(contractReducer, 3)
		s.Dispatch(domain.Action{Type: "UNKNOWN"})
		assert.Equal(t, 3, s.GetState())
	})

	t.Run("Reducer Panic Propagates", func(t *testing.T) {
		s := create(contractReducer, 2)
		assert.PanicsWithValue(t, "reducer failure", func() {
			s.Dispatch(domain.Action{Type: "BOOM"})
		})
		assert.Equal(t, 2, s.GetState(), "state should be unchanged after a failing reducer")

		// The store stays usable.
		s.Dispatch(domain.Action{Type: "INCREMENT"})
		assert.Equal(t, 3, s.GetState())
	})

	t.Run("Replace Reducer", func(t *testing.T) {
		s := create(contractReducer, 0)
		s.Dispatch(domain.Action{Type: "INCREMENT"})

		s.ReplaceReducer(func(state any, action domain.Action) any {
			n, _ := state.(int)
			if action.Type == "INCREMENT" {
				return n + 10
			}
			return n
		})
		s.Dispatch(domain.Action{Type: "INCREMENT"})
		require.Equal(t, 11, s.GetState())
	})
}
