package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the counters the rest of
// the application reports into.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	moderationTotal *prometheus.CounterVec
	tokensMoved     *prometheus.CounterVec
	mailQueued      prometheus.Counter
	mailFailed      prometheus.Counter
}

// NewMetricsService registers the application collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	moderationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_decisions_total",
		Help: "Moderation decisions grouped by content kind and outcome",
	}, []string{"kind", "decision"})

	tokensMoved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gc_tokens_moved_total",
		Help: "GC-Tokens moved through the ledger by direction",
	}, []string{"direction"})

	mailQueued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mail_queued_total",
		Help: "Emails accepted into the delivery queue",
	})

	mailFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mail_failed_total",
		Help: "Emails that exhausted delivery retries",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, moderationTotal, tokensMoved, mailQueued, mailFailed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		moderationTotal: moderationTotal,
		tokensMoved:     tokensMoved,
		mailQueued:      mailQueued,
		mailFailed:      mailFailed,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordModeration counts one moderation decision.
func (m *MetricsService) RecordModeration(kind, decision string) {
	if m == nil {
		return
	}
	m.moderationTotal.WithLabelValues(kind, decision).Inc()
}

// RecordTokens counts ledger movement by direction ("earned" or "spent").
func (m *MetricsService) RecordTokens(direction string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.tokensMoved.WithLabelValues(direction).Add(amount)
}

// RecordMailQueued counts an accepted outbound email.
func (m *MetricsService) RecordMailQueued() {
	if m == nil {
		return
	}
	m.mailQueued.Inc()
}

// RecordMailFailed counts an email that ran out of retries.
func (m *MetricsService) RecordMailFailed() {
	if m == nil {
		return
	}
	m.mailFailed.Inc()
}
