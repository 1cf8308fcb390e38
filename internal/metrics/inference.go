package metrics

import "github.com/prometheus/client_golang/prometheus"

// Inference Prometheus metrics.
var (
	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "inference_requests_total",
			Help:      "Total number of inference backend requests",
		},
		[]string{"provider", "model", "status"},
	)

	InferenceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neurapipe",
			Name:      "inference_request_duration_seconds",
			Help:      "Inference backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	InferenceTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "inference_tokens_total",
			Help:      "Total inference tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	InferenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "inference_errors_total",
			Help:      "Total inference backend errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	InferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "inference_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PipelineDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "pipeline_documents_total",
			Help:      "Documents processed per pipeline",
		},
		[]string{"pipeline", "status"},
	)

	PipelineTextUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neurapipe",
			Name:      "pipeline_text_units_total",
			Help:      "Text units extracted and enriched per pipeline",
		},
		[]string{"pipeline"},
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers Prometheus inference metrics. Must be called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceRequestDuration)
	prometheus.MustRegister(InferenceTokensTotal)
	prometheus.MustRegister(InferenceErrorsTotal)
	prometheus.MustRegister(InferenceCacheTotal)
	prometheus.MustRegister(PipelineDocumentsTotal)
	prometheus.MustRegister(PipelineTextUnitsTotal)
	inferenceMetricsRegistered = true
}
