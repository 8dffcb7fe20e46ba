package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	SessionsStarted        prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	RegistrationsCancelled prometheus.Counter
	ValidationFailures     *prometheus.CounterVec
	Verifications          *prometheus.CounterVec
	Notifications          *prometheus.CounterVec
	RequestDuration        prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ebirth_sessions_started_total",
			Help: "Total number of USSD sessions that reached the root menu",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ebirth_registrations_completed_total",
			Help: "Total number of birth registrations finalized",
		}),
		RegistrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ebirth_registrations_cancelled_total",
			Help: "Total number of registrations cancelled at the confirm step",
		}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ebirth_validation_failures_total",
			Help: "Field validation failures by field name",
		}, []string{"field"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ebirth_verifications_total",
			Help: "UBRN verification lookups by result",
		}, []string{"result"}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ebirth_notifications_total",
			Help: "Outbound SMS notifications by outcome",
		}, []string{"outcome"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ebirth_ussd_request_duration_seconds",
			Help:    "Latency of USSD callback handling",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncValidationFailure records one validation failure for the named field.
func (m *Metrics) IncValidationFailure(field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// IncVerification records one verification lookup with the given result.
func (m *Metrics) IncVerification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

// IncNotification records one notification attempt with the given outcome.
func (m *Metrics) IncNotification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}
