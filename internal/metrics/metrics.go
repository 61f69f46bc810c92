package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pigpay",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigpay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pigpay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigpay",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by final state and error kind.",
		},
		[]string{"op", "state", "reason"},
	)

	ledgerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pigpay",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Time from validation to the final state of a ledger operation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"op", "state"},
	)

	ledgerRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigpay",
			Subsystem: "ledger",
			Name:      "retries_total",
			Help:      "Ledger operations re-run after a concurrency conflict.",
		},
		[]string{"op"},
	)

	ledgerVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pigpay",
			Subsystem: "ledger",
			Name:      "volume_total",
			Help:      "Committed gross amount and fees in minor units.",
		},
		[]string{"op", "kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOperations,
		ledgerDuration,
		ledgerRetries,
		ledgerVolume,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
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

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// LedgerObserver feeds engine state transitions into the ledger metrics.
type LedgerObserver struct{}

func (LedgerObserver) Observe(ev ledger.Event) {
	op := string(ev.Op)
	switch ev.State {
	case ledger.StateValidating:
		if ev.Attempt > 0 {
			ledgerRetries.WithLabelValues(op).Inc()
		}
	case ledger.StateCommitted:
		ledgerOperations.WithLabelValues(op, ev.State.String(), "").Inc()
		ledgerDuration.WithLabelValues(op, ev.State.String()).Observe(ev.Elapsed.Seconds())
		if ev.Entry != nil {
			ledgerVolume.WithLabelValues(op, "gross").Add(float64(ev.Entry.Amount))
			ledgerVolume.WithLabelValues(op, "fee").Add(float64(ev.Entry.Fee))
		}
	case ledger.StateRejected:
		ledgerOperations.WithLabelValues(op, ev.State.String(), Reason(ev.Err)).Inc()
		ledgerDuration.WithLabelValues(op, ev.State.String()).Observe(ev.Elapsed.Seconds())
	}
}

// Reason maps an engine error onto a bounded label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, ledger.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ledger.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, ledger.ErrStorage):
		return "storage"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
