package domain

// ReportType identifies what a report's payload contains.
type ReportType string

const (
	// ReportState carries only the latest state in PreloadedState. Payload is absent.
	ReportState ReportType = "STATE"
	// ReportAction carries a single serialized entry, sent as soon as it is observed.
	ReportAction ReportType = "ACTION"
	// ReportActions carries the buffered actions.
	ReportActions ReportType = "ACTIONS"
	// ReportStates carries the buffered {state, action} pairs.
	ReportStates ReportType = "STATES"
)

// Valid reports whether t belongs to the fixed report vocabulary.
func (t ReportType) Valid() bool {
	switch t {
	case ReportState, ReportAction, ReportActions, ReportStates:
		return true
	}
	return false
}
