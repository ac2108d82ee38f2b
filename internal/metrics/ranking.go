package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking Prometheus metrics.
var (
	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "rank_requests_total",
			Help:      "Total number of rank calls",
		},
		[]string{"strategy", "status"}, // status: ok / degraded / error
	)

	RankDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dimrank",
			Name:      "rank_duration_seconds",
			Help:      "Rank call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RankTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "rank_timeouts_total",
			Help:      "Rank calls where the processing budget truncated dimension scoring",
		},
	)

	RankFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "rank_fallbacks_total",
			Help:      "Rank calls served by the similarity-only fallback path",
		},
	)

	CandidatesFetched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dimrank",
			Name:      "candidates_fetched",
			Help:      "Candidates fetched from the similarity index per rank call",
			Buckets:   []float64{5, 10, 20, 50, 100, 200, 500},
		},
	)

	AlignmentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "alignment_cache_total",
			Help:      "Alignment score cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Embedding provider Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dimrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dimrank",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

// RegisterRankingMetrics registers all ranking and embedding metrics.
// Called explicitly from the composition root (no init()) so tests can
// use the collectors without touching the default registry.
func RegisterRankingMetrics() {
	prometheus.MustRegister(
		RankRequestsTotal,
		RankDuration,
		RankTimeoutsTotal,
		RankFallbacksTotal,
		CandidatesFetched,
		AlignmentCacheTotal,
		EmbeddingCacheTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
	)
}
