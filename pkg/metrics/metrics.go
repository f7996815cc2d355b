package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	CasesStartedTotal  *prometheus.CounterVec
	CaseOutcomesTotal  *prometheus.CounterVec
	OrdersTotal        *prometheus.CounterVec
	OrderOutcomesTotal *prometheus.CounterVec

	ModelRequestsTotal  *prometheus.CounterVec
	ModelDuration       *prometheus.HistogramVec
	ExtractorTiersTotal *prometheus.CounterVec

	FeedEventsTotal   prometheus.Counter
	FeedEventsDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		CasesStartedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "game",
			Name:      "cases_started_total",
			Help:      "Total cases started by case type.",
		}, []string{"case_type"}),

		CaseOutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "game",
			Name:      "case_outcomes_total",
			Help:      "Terminal case outcomes (deceased, cured, abandoned).",
		}, []string{"outcome"}),

		OrdersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "game",
			Name:      "orders_total",
			Help:      "Total orders placed by kind.",
		}, []string{"kind"}),

		OrderOutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "game",
			Name:      "order_outcomes_total",
			Help:      "Order evaluations by outcome (appropriate, unnecessary, harmful, unscored).",
		}, []string{"outcome"}),

		ModelRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "model",
			Name:      "requests_total",
			Help:      "Completion requests by operation and status.",
		}, []string{"operation", "status"}),

		ModelDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "model",
			Name:      "request_duration_seconds",
			Help:      "Completion request latency distribution.",
			Buckets:   []float64{0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 30.0, 60.0},
		}, []string{"operation"}),

		ExtractorTiersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "model",
			Name:      "extractor_tiers_total",
			Help:      "Structured extractions by recovery tier. Alert on sustained regex/default rates.",
		}, []string{"operation", "tier"}),

		FeedEventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Total presentation feed events published.",
		}),

		FeedEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "feed",
			Name:      "events_dropped_total",
			Help:      "Feed events dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
