package domain

// Action is a discrete event dispatched to a store, shaped as a Flux Standard Action.
type Action struct {
	Type    string         `json:"type"`
	Payload any            `json:"payload,omitempty"`
	Error   bool           `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Reserved action types emitted by the library itself.
const (
	// ActionInit is dispatched by the reference store when it is created.
	ActionInit = "@@remotedev/INIT"

	// ActionReplace is dispatched by the reference store after a reducer hot-swap.
	ActionReplace = "@@remotedev/REPLACE"

	// ActionError is the synthetic action recorded when a host error is reported.
	// Payload: map with a "message" key.
	ActionError = "@@remotedev/ERROR"
)

// NewErrorAction builds the synthetic action describing a host error.
func NewErrorAction(err error) Action {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Action{
		Type:    ActionError,
		Payload: map[string]any{"message": msg},
		Error:   true,
	}
}
