package domain

import "context"

// StatusHooks defines callbacks that follow the delivery of a report.
// Any of them may be nil.
type StatusHooks struct {
	// OnStarted fires when the report is handed to the transport.
	OnStarted func(context.Context, *Report)
	// OnDone fires when the collector acknowledged the report with an ID.
	OnDone func(ctx context.Context, reportID string)
	// OnFailed fires on network, encoding or collector errors.
	OnFailed func(context.Context, error)
}

// Started invokes OnStarted if set.
func (h StatusHooks) Started(ctx context.Context, r *Report) {
	if h.OnStarted != nil {
		h.OnStarted(ctx, r)
	}
}

// Done invokes OnDone if set.
func (h StatusHooks) Done(ctx context.Context, reportID string) {
	if h.OnDone != nil {
		h.OnDone(ctx, reportID)
	}
}

// Failed invokes OnFailed if set.
func (h StatusHooks) Failed(ctx context.Context, err error) {
	if h.OnFailed != nil {
		h.OnFailed(ctx, err)
	}
}
