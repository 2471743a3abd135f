package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreport_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adreport_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// pipeline runs by outcome (analyzed, no_data, insufficient_data, error)
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreport_pipeline_runs_total",
			Help: "Total report pipeline executions by outcome",
		},
		[]string{"outcome"},
	)

	// end-to-end pipeline latency
	PipelineLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adreport_pipeline_duration_seconds",
			Help:    "Histogram of end-to-end pipeline latencies",
			Buckets: prometheus.DefBuckets,
		},
	)

	// warehouse queries per source table and status
	WarehouseQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreport_warehouse_queries_total",
			Help: "Total warehouse queries issued",
		},
		[]string{"table", "status"},
	)

	// warehouse query latency per source table
	WarehouseQueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adreport_warehouse_query_duration_seconds",
			Help:    "Histogram of warehouse query latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	// text-generation calls per stage (interpret, recommend) and outcome
	GenerationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreport_generation_calls_total",
			Help: "Total text-generation service calls",
		},
		[]string{"stage", "outcome"},
	)

	// text-generation latency per stage
	GenerationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adreport_generation_duration_seconds",
			Help:    "Histogram of text-generation call latencies",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"stage"},
	)

	// extraction fallback retries after an empty first pass
	ExtractionFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreport_extraction_fallbacks_total",
			Help: "Total 90-day fallback extractions after an empty result",
		},
	)

	// errors persisting reports to the archive
	ArchivePersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adreport_archive_persist_errors_total",
			Help: "Total report archive persistence errors",
		},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		PipelineRuns,
		PipelineLatency,
		WarehouseQueries,
		WarehouseQueryLatency,
		GenerationCalls,
		GenerationLatency,
		ExtractionFallbacks,
		ArchivePersistErrors,
	)
}
