// Package metrics holds the service's prometheus collectors
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "idcard"

type metrics struct {
	requestsSubmitted *prometheus.CounterVec
	statusUpdates     *prometheus.CounterVec
	wizardTransitions *prometheus.CounterVec
	cameraDenials     prometheus.Counter
	storeSaveLatency  *prometheus.HistogramVec
	httpLatency       *prometheus.HistogramVec
	activeSessions    *prometheus.GaugeVec
	eventClients      prometheus.Gauge
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		requestsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_submitted_total",
			Help:      "Total number of reissuance requests submitted through the wizard.",
		}, []string{"reason"}),
		statusUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Total number of admin status updates.",
		}, []string{"status"}),
		wizardTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_transitions_total",
			Help:      "Total number of wizard state transitions.",
		}, []string{"from", "to"}),
		cameraDenials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_denials_total",
			Help:      "Total number of failed capture device acquisitions.",
		}),
		storeSaveLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_save_latency_seconds",
			Help:      "Latency distribution for full-list store writes.",
			Buckets: []float64{
				0.0005, 0.001, 0.002, 0.005,
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5, 1,
			},
		}, []string{"key", "result"}),
		httpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		activeSessions: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Current number of open wizard and console sessions.",
		}, []string{"kind"}),
		eventClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_clients",
			Help:      "Current number of connected websocket event clients.",
		}),
	}
})

func get() *metrics {
	return metricsSingleton()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RequestSubmitted counts one wizard submission
func RequestSubmitted(reason string) {
	get().requestsSubmitted.WithLabelValues(reason).Inc()
}

// StatusUpdated counts one admin status change
func StatusUpdated(status string) {
	get().statusUpdates.WithLabelValues(status).Inc()
}

// WizardTransition counts one state change
func WizardTransition(from, to string) {
	get().wizardTransitions.WithLabelValues(from, to).Inc()
}

// CameraDenied counts one failed device acquisition
func CameraDenied() {
	get().cameraDenials.Inc()
}

// ObserveStoreSave records a store write
func ObserveStoreSave(key string, started time.Time, err error) {
	get().storeSaveLatency.WithLabelValues(key, resultLabel(err)).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one handled request
func ObserveHTTP(method, route, code string, elapsed time.Duration) {
	get().httpLatency.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// SetActiveSessions sets the open session gauge for kind ("wizard" or "console")
func SetActiveSessions(kind string, n int) {
	get().activeSessions.WithLabelValues(kind).Set(float64(n))
}

// SetEventClients sets the websocket client gauge
func SetEventClients(n int) {
	get().eventClients.Set(float64(n))
}
