package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aretw0/remotedev/internal/logging"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/serialize"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// maxResponseSize caps how much of a collector response is read.
const maxResponseSize = 1 << 20

// HTTPSender POSTs reports as JSON. It is safe for concurrent use.
type HTTPSender struct {
	client  *http.Client
	timeout time.Duration
	tracing bool
	logger  *slog.Logger
}

// HTTPOption configures an HTTPSender.
type HTTPOption func(*HTTPSender)

// WithHTTPClient sets the client used for deliveries.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each delivery. Zero disables the per-send timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSender) {
		s.timeout = d
	}
}

// WithLogger sets the structured logger for delivery diagnostics.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(s *HTTPSender) {
		s.logger = l
	}
}

// WithTracing instruments outgoing requests with OpenTelemetry.
func WithTracing() HTTPOption {
	return func(s *HTTPSender) {
		s.tracing = true
	}
}

// NewHTTPSender creates an HTTPSender.
func NewHTTPSender(opts ...HTTPOption) *HTTPSender {
	s := &HTTPSender{
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)

	if s.tracing {
		base := s.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		traced := *s.client
		traced.Transport = otelhttp.NewTransport(base)
		s.client = &traced
	}
	return s
}

// Send delivers req.Report and reports the outcome through req.Hooks.
func (s *HTTPSender) Send(ctx context.Context, req Request) {
	req.Hooks.Started(ctx, req.Report)

	id, err := s.Post(ctx, req.SendTo, req.Headers, req.Report)
	if err != nil {
		s.logger.Warn("report delivery failed", "url", req.SendTo, "error", err)
		req.Hooks.Failed(ctx, err)
		return
	}

	s.logger.Debug("report delivered", "url", req.SendTo, "id", id, "type", req.Report.Type)
	req.Hooks.Done(ctx, id)
}

// Post sends the report and returns the id the collector assigned to it.
func (s *HTTPSender) Post(ctx context.Context, url string, headers map[string]string, report *domain.Report) (string, error) {
	if report == nil {
		return "", ErrNilReport
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to post report: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read collector response: %w", err)
	}

	return parseResponse(resp.StatusCode, data)
}

// collectorResponse is the inbound contract: {"id": "..."} on success,
// {"error": ...} otherwise.
type collectorResponse struct {
	ID    any `json:"id"`
	Error any `json:"error"`
}

func parseResponse(status int, data []byte) (string, error) {
	var out collectorResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &ResponseError{
			StatusCode: status,
			Message:    snippet(data),
			Err:        fmt.Errorf("invalid collector response: %w", err),
		}
	}

	if out.Error != nil {
		return "", &ResponseError{StatusCode: status, Message: errorMessage(out.Error)}
	}
	if status < 200 || status > 299 {
		return "", &ResponseError{StatusCode: status, Message: snippet(data)}
	}

	switch id := out.ID.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	}
	return "", &ResponseError{StatusCode: status, Err: ErrMissingID}
}

func errorMessage(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if m, ok := v.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok {
			return msg
		}
	}
	return serialize.Stringify(v)
}

func snippet(data []byte) string {
	const limit = 256
	s := string(bytes.TrimSpace(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
