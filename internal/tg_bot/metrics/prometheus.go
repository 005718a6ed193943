// Package metrics holds the prometheus metrics of the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconcile outcomes used as the "outcome" label of SubscriptionsProcessed.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeChanged   = "changed"
	OutcomeDeparted  = "departed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics holds all prometheus metrics of the bot. A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpdatesReceived        *prometheus.CounterVec
	SubscriptionsProcessed *prometheus.CounterVec
	NotificationsSent      prometheus.Counter
	ReconcileDuration      prometheus.Histogram
}

// NewMetrics registers the bot metrics in reg under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdatesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_received_total",
			Help:      "The total number of received Telegram updates",
		}, []string{"kind"}),
		SubscriptionsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_processed_total",
			Help:      "The total number of processed subscriptions by outcome",
		}, []string{"outcome"}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notifications sent by the reconciler",
		}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time taken by one reconciliation pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// UpdateReceived counts an incoming update of the given kind (message, callback).
func (m *Metrics) UpdateReceived(kind string) {
	if m == nil {
		return
	}
	m.UpdatesReceived.WithLabelValues(kind).Inc()
}

// SubscriptionProcessed counts a processed subscription with its outcome.
func (m *Metrics) SubscriptionProcessed(outcome string) {
	if m == nil {
		return
	}
	m.SubscriptionsProcessed.WithLabelValues(outcome).Inc()
}

// NotificationSent counts a notification sent to a chat.
func (m *Metrics) NotificationSent() {
	if m == nil {
		return
	}
	m.NotificationsSent.Inc()
}

// ObserveReconcile records the duration of a reconciliation pass in seconds.
func (m *Metrics) ObserveReconcile(seconds float64) {
	if m == nil {
		return
	}
	m.ReconcileDuration.Observe(seconds)
}
