package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for FetchesTotal.
const (
	OutcomeOK              = "ok"
	OutcomeCached          = "cached"
	OutcomeFetchFailed     = "fetch_failed"
	OutcomeNormalizeFailed = "normalize_failed"
)

// Scoring run Prometheus metrics.
var (
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitescore",
			Name:      "fetches_total",
			Help:      "Fetched URLs by outcome",
		},
		[]string{"outcome"},
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitescore",
			Name:      "fetch_duration_seconds",
			Help:      "Fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitescore",
			Name:      "fetch_cache_total",
			Help:      "Fetch cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CorpusDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitescore",
			Name:      "corpus_documents",
			Help:      "Documents included in the last corpus",
		},
	)

	CorpusBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitescore",
			Name:      "corpus_bytes",
			Help:      "Byte size of the last indexed corpus",
		},
	)

	IndexBuildDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitescore",
			Name:      "index_build_duration_seconds",
			Help:      "Duration of the last index build",
		},
	)

	Scores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sitescore",
			Name:      "scores",
			Help:      "Similarity scores of included documents",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		},
	)
)

var runMetricsRegistered bool

// RegisterRunMetrics registers the scoring run metrics. Must be called
// once from main.
func RegisterRunMetrics() {
	if runMetricsRegistered {
		return
	}
	prometheus.MustRegister(FetchesTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(CorpusDocuments)
	prometheus.MustRegister(CorpusBytes)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(Scores)
	runMetricsRegistered = true
}
