package remotedev

import (
	"context"
	"log/slog"

	"github.com/aretw0/remotedev/pkg/metrics"
	"github.com/aretw0/remotedev/pkg/transport"
)

// Option defines a functional option for configuring the Enhancer.
type Option func(*Enhancer)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enhancer) {
		e.logger = logger
	}
}

// WithHTTPSender replaces the default HTTP transport used with Config.SendTo.
// It is ignored when Config.Sender is set.
func WithHTTPSender(s *transport.HTTPSender) Option {
	return func(e *Enhancer) {
		e.httpSender = s
	}
}

// WithErrorSource registers a channel of host errors. Each error is reported
// when Config.SendOnError is set. Every store enhanced afterwards consumes
// the same channel, so hosts usually enhance a single store per source.
func WithErrorSource(src <-chan error) Option {
	return func(e *Enhancer) {
		e.errors = src
	}
}

// WithMetrics records activity on the given Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enhancer) {
		e.metrics = m
	}
}

// WithContext sets the parent context for deliveries and the error watcher.
// Cancelling it aborts in-flight sends.
func WithContext(ctx context.Context) Option {
	return func(e *Enhancer) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}
