// Package metrics exposes Prometheus counters for observed actions and report delivery.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/remotedev/pkg/domain"
)

const namespace = "remotedev"

// Metrics groups the counters recorded by the enhancer and the collector.
// A nil *Metrics records nothing.
type Metrics struct {
	ActionsObserved  prometheus.Counter
	ActionsFiltered  prometheus.Counter
	ReportsTriggered *prometheus.CounterVec
	ReportsSent      prometheus.Counter
	ReportsFailed    prometheus.Counter
	ReportsReceived  *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_observed_total",
			Help:      "Total number of dispatched actions seen by the enhancer",
		}),
		ActionsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_filtered_total",
			Help:      "Total number of actions excluded by the allow or deny lists",
		}),
		ReportsTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_triggered_total",
			Help:      "Total number of reports handed to a transport",
		}, []string{"type"}),
		ReportsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_sent_total",
			Help:      "Total number of reports acknowledged by a collector",
		}),
		ReportsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_failed_total",
			Help:      "Total number of reports that failed to deliver",
		}),
		ReportsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_reports_received_total",
			Help:      "Total number of reports stored by the collector",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ActionsObserved,
			m.ActionsFiltered,
			m.ReportsTriggered,
			m.ReportsSent,
			m.ReportsFailed,
			m.ReportsReceived,
		)
	}
	return m
}

// ObserveAction counts one dispatched action.
func (m *Metrics) ObserveAction(filtered bool) {
	if m == nil {
		return
	}
	m.ActionsObserved.Inc()
	if filtered {
		m.ActionsFiltered.Inc()
	}
}

// Triggered counts a report about to be sent.
func (m *Metrics) Triggered(t domain.ReportType) {
	if m == nil {
		return
	}
	m.ReportsTriggered.WithLabelValues(string(t)).Inc()
}

// Received counts a report accepted by the collector.
func (m *Metrics) Received(t domain.ReportType) {
	if m == nil {
		return
	}
	m.ReportsReceived.WithLabelValues(string(t)).Inc()
}

// Hooks wraps next so that delivery outcomes are counted before next runs.
func (m *Metrics) Hooks(next domain.StatusHooks) domain.StatusHooks {
	if m == nil {
		return next
	}
	return domain.StatusHooks{
		OnStarted: next.OnStarted,
		OnDone: func(ctx context.Context, id string) {
			m.ReportsSent.Inc()
			next.Done(ctx, id)
		},
		OnFailed: func(ctx context.Context, err error) {
			m.ReportsFailed.Inc()
			next.Failed(ctx, err)
		},
	}
}
