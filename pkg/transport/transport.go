// Package transport delivers reports to a remote collector.
//
// Delivery is best-effort: outcomes are reported through domain.StatusHooks
// and never surface as errors to the code that triggered the send.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/ports"
)

var (
	// ErrNilReport is reported when a send is attempted without a report.
	ErrNilReport = errors.New("report is nil")
	// ErrMissingID is wrapped by ResponseError when the collector answered without an id.
	ErrMissingID = errors.New("collector response has no report id")
)

// Request carries everything a Sender needs for one delivery.
type Request struct {
	Report  *domain.Report
	SendTo  string
	Headers map[string]string
	Hooks   domain.StatusHooks
	// Store gives custom senders access to the state at send time.
	Store ports.StateReader
}

// Sender delivers a report. Implementations report their outcome through
// req.Hooks and must not panic on delivery failures.
type Sender interface {
	Send(ctx context.Context, req Request)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request)

// Send calls f(ctx, req).
func (f SenderFunc) Send(ctx context.Context, req Request) {
	f(ctx, req)
}

// ResponseError describes a collector answer that did not acknowledge the report.
type ResponseError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("collector responded %d: %s", e.StatusCode, msg)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
