package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Reconciliation outcomes recorded per delivery.
const (
	OutcomeProcessed         = "processed"
	OutcomeIgnored           = "ignored"
	OutcomeSkippedIdentity   = "skipped_identity"
	OutcomeSkippedPeriod     = "skipped_period"
	OutcomeDuplicate         = "duplicate"
	OutcomeFailed            = "failed"
	OutcomeRejectedSignature = "rejected_signature"
)

// WebhookMetrics exposes webhook reconciliation instruments. A nil receiver is
// a no-op so callers never have to guard.
type WebhookMetrics struct {
	eventsTotal        *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
}

// NewWebhookMetrics registers the webhook instruments on reg.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	factory := promauto.With(reg)

	return &WebhookMetrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fanvault",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Total number of webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),

		processingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fanvault",
			Subsystem: "webhook",
			Name:      "processing_duration_seconds",
			Help:      "Duration of webhook delivery processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
}

func (m *WebhookMetrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *WebhookMetrics) RecordDuration(eventType string, d time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.processingDuration.WithLabelValues(eventType).Observe(d.Seconds())
}

// Module registers webhook metrics on the default prometheus registerer.
var Module = fx.Module("observability.metrics",
	fx.Provide(func() *WebhookMetrics {
		return NewWebhookMetrics(prometheus.DefaultRegisterer)
	}),
)
