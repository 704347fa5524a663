package domain

// Entry is one observed unit kept in the history buffer.
// It holds either an Action or a StateEntry, depending on the report mode.
type Entry any

// StateEntry pairs an action with the state the store produced for it.
type StateEntry struct {
	State  any    `json:"state"`
	Action Action `json:"action"`
}
