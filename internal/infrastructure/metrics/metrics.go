package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookdrop",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "uploads_total",
			Help:      "Total uploaded items by outcome",
		},
		[]string{"content_type", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "upload_bytes_total",
			Help:      "Total bytes accepted for storage",
		},
		[]string{"content_type"},
	)

	// Conversion counters
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "conversions_total",
			Help:      "Total external converter runs",
		},
		[]string{"converter", "status"},
	)

	// Conversion duration
	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookdrop",
			Name:      "conversion_duration_seconds",
			Help:      "External converter run duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"converter"},
	)

	// Session lifecycle
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bookdrop",
			Name:      "sessions_active",
			Help:      "Number of currently live sessions",
		},
	)

	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "sessions_created_total",
			Help:      "Total sessions created",
		},
	)

	SessionExpiriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdrop",
			Name:      "session_expiries_total",
			Help:      "Total session expiries by reason",
		},
		[]string{"reason"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records an uploaded item outcome
func RecordUpload(contentType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(contentType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(contentType).Add(float64(bytes))
	}
}

// RecordConversion records an external converter run
func RecordConversion(converter, status string, durationSec float64) {
	ConversionsTotal.WithLabelValues(converter, status).Inc()
	ConversionDuration.WithLabelValues(converter).Observe(durationSec)
}
