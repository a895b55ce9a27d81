package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_received_total",
			Help: "Total number of leads received from the partner",
		},
		[]string{"result"},
	)

	duplicateLeads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_leads_total",
			Help: "Total number of duplicate lead submissions detected",
		},
	)

	introEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intro_emails_total",
			Help: "Total number of intro email send attempts",
		},
		[]string{"status"},
	)

	speedToLead = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "speed_to_lead_seconds",
			Help:    "Time from lead receipt to pipeline completion",
			Buckets: prometheus.DefBuckets,
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordLeadReceived(result string) {
	leadsReceived.WithLabelValues(result).Inc()
}

func RecordDuplicateLead() {
	duplicateLeads.Inc()
}

func RecordIntroEmail(status string) {
	introEmails.WithLabelValues(status).Inc()
}

func RecordSpeedToLead(ms int64) {
	speedToLead.Observe(float64(ms) / 1000)
}
