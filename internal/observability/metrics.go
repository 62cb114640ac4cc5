package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis service.
type Metrics struct {
	AnalysesStarted   prometheus.Counter
	AnalysesCompleted prometheus.Counter
	AnalysesFailed    prometheus.Counter
	AnalysesRunning   prometheus.Gauge

	AnalysisDuration   prometheus.Histogram
	PatchesPerAnalysis prometheus.Histogram
	AreaPerAnalysis    prometheus.Histogram

	// Re-modeling metrics.
	RemodelRequests *prometheus.CounterVec // labels: scenario, outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Notification metrics.
	NotificationsPublished prometheus.Counter
	NotificationErrors     prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesStarted,
		m.AnalysesCompleted,
		m.AnalysesFailed,
		m.AnalysesRunning,
		m.AnalysisDuration,
		m.PatchesPerAnalysis,
		m.AreaPerAnalysis,
		m.RemodelRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.NotificationsPublished,
		m.NotificationErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "analyses_started_total",
			Help:      "Total analysis jobs that entered the RUNNING state.",
		}),
		AnalysesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "analyses_completed_total",
			Help:      "Total analysis jobs that reached COMPLETED.",
		}),
		AnalysesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "analyses_failed_total",
			Help:      "Total analysis jobs that reached FAILED.",
		}),
		AnalysesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "deforestation_alerts",
			Name:      "analyses_running",
			Help:      "Number of pipelines currently executing.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deforestation_alerts",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one full analysis pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PatchesPerAnalysis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deforestation_alerts",
			Name:      "patches_per_analysis",
			Help:      "Patch count of completed analyses.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		AreaPerAnalysis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deforestation_alerts",
			Name:      "area_hectares_per_analysis",
			Help:      "Total deforested area in hectares of completed analyses.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		RemodelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "remodel_requests_total",
			Help:      "Re-modeling requests by scenario and outcome.",
		}, []string{"scenario", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "notifications_published_total",
			Help:      "Completion notifications successfully published.",
		}),
		NotificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deforestation_alerts",
			Name:      "notification_errors_total",
			Help:      "Completion notification publish failures.",
		}),
	}
}
