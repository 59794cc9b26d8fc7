package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Data provider metrics
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	// Analysis metrics
	indicatorComputes *prometheus.CounterVec
	recommendations   *prometheus.CounterVec
	analysesTotal     prometheus.Counter
	analysisDuration  prometheus.Histogram
	holdingsAnalyzed  prometheus.Counter
	reportsWritten    *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksage_provider_fetches_total",
			Help: "Total number of market data fetches",
		},
		[]string{"provider", "operation", "status"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stocksage_provider_fetch_duration_seconds",
			Help:    "Market data fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)
	r.indicatorComputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksage_indicator_computes_total",
			Help: "Total number of indicator computations",
		},
		[]string{"status"},
	)
	r.recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksage_recommendations_total",
			Help: "Total number of recommendations issued",
		},
		[]string{"action"},
	)
	r.analysesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksage_portfolio_analyses_total",
			Help: "Total number of portfolio analyses completed",
		},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stocksage_portfolio_analysis_duration_seconds",
			Help:    "Portfolio analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.holdingsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stocksage_holdings_analyzed_total",
			Help: "Total number of holdings analyzed",
		},
	)
	r.reportsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocksage_reports_written_total",
			Help: "Total number of report runs archived",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.indicatorComputes)
	reg.MustRegister(r.recommendations)
	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.holdingsAnalyzed)
	reg.MustRegister(r.reportsWritten)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordFetch records one provider call.
func (r *Registry) RecordFetch(provider, operation, status string, seconds float64) {
	r.fetchesTotal.WithLabelValues(provider, operation, status).Inc()
	r.fetchDuration.WithLabelValues(provider, operation).Observe(seconds)
}

// RecordIndicators records one indicator computation.
func (r *Registry) RecordIndicators(status string) {
	r.indicatorComputes.WithLabelValues(status).Inc()
}

// RecordRecommendation records an issued recommendation.
func (r *Registry) RecordRecommendation(action string) {
	r.recommendations.WithLabelValues(action).Inc()
}

// RecordAnalysis records a completed portfolio analysis.
func (r *Registry) RecordAnalysis(holdings int, seconds float64) {
	r.analysesTotal.Inc()
	r.holdingsAnalyzed.Add(float64(holdings))
	r.analysisDuration.Observe(seconds)
}

// RecordReport records an archived report run.
func (r *Registry) RecordReport(status string) {
	r.reportsWritten.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
