package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	formRequestsTotal    *prometheus.CounterVec
	formLatencySeconds   *prometheus.HistogramVec
	formErrorsTotal      *prometheus.CounterVec
	formSubmissionsTotal *prometheus.CounterVec
	placesRequestsTotal  *prometheus.CounterVec
	placesLatencySeconds *prometheus.HistogramVec
	submissionsCacheHits *prometheus.CounterVec
	formSessionsActive   prometheus.Gauge
	imageRejectedTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the form service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		formRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "form_requests_total",
			Help: "Total number of form API requests served.",
		}, []string{"method", "route", "status"})

		formLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "form_latency_seconds",
			Help:    "Latency distribution for form API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		formErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "form_errors_total",
			Help: "Total number of error responses returned by form endpoints.",
		}, []string{"method", "route", "status"})

		formSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Submit actions by mode and outcome.",
		}, []string{"mode", "outcome"})

		placesRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "places_upstream_requests_total",
			Help: "Requests sent to the places backend by operation and status.",
		}, []string{"operation", "status"})

		placesLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "places_upstream_latency_seconds",
			Help:    "Latency of places backend calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"operation"})

		submissionsCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_cache_requests_total",
			Help: "Submission list cache lookups by result.",
		}, []string{"result"})

		formSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "form_sessions_active",
			Help: "Number of live form controllers.",
		})

		imageRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "form_image_rejected_total",
			Help: "Selected images refused before reaching the draft, by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			formRequestsTotal,
			formLatencySeconds,
			formErrorsTotal,
			formSubmissionsTotal,
			placesRequestsTotal,
			placesLatencySeconds,
			submissionsCacheHits,
			formSessionsActive,
			imageRejectedTotal,
		)
	})
}

// FormRequests exposes the counter for form API requests.
func FormRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return formRequestsTotal
}

// FormLatency exposes the latency histogram for form API requests.
func FormLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return formLatencySeconds
}

// FormErrors exposes the counter for form API error responses.
func FormErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return formErrorsTotal
}

// FormSubmissions counts submit actions.
func FormSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return formSubmissionsTotal
}

// PlacesRequests counts upstream calls.
func PlacesRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return placesRequestsTotal
}

// PlacesLatency exposes the upstream latency histogram.
func PlacesLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return placesLatencySeconds
}

// SubmissionsCache counts list cache lookups.
func SubmissionsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsCacheHits
}

// FormSessions tracks live controllers.
func FormSessions() prometheus.Gauge {
	RegisterMetrics()
	return formSessionsActive
}

// ImageRejected counts refused image selections.
func ImageRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return imageRejectedTotal
}
