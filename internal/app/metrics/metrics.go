// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vestapay",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestapay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vestapay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	dispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestapay",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total number of dispatched API operations.",
		},
		[]string{"resource", "action", "outcome"},
	)

	ledgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestapay",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Total number of ledger transactions written.",
		},
		[]string{"type"},
	)

	maturations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vestapay",
			Subsystem: "investments",
			Name:      "maturations_total",
			Help:      "Total number of investments matured by the sweeper.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		dispatchRequests,
		ledgerEntries,
		maturations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordDispatch records the outcome of one dispatched API operation.
func RecordDispatch(resource, action string, status int) {
	outcome := "ok"
	if status >= 400 {
		outcome = "error"
	}
	dispatchRequests.WithLabelValues(resource, action, outcome).Inc()
}

// RecordLedgerEntry counts a written ledger transaction by type.
func RecordLedgerEntry(txType string) {
	if txType == "" {
		txType = "unknown"
	}
	ledgerEntries.WithLabelValues(txType).Inc()
}

// RecordMaturations counts investments matured by a sweep.
func RecordMaturations(n int) {
	if n > 0 {
		maturations.Add(float64(n))
	}
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, r.URL.Path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
