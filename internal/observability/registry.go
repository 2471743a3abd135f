package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components take the interface rather than touching the global Prometheus
// collectors directly, so tests can inject the no-op implementation.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Pipeline metrics
	IncrementPipelineRuns(outcome string)
	RecordPipelineLatency(duration time.Duration)
	IncrementExtractionFallbacks()

	// Warehouse metrics
	IncrementWarehouseQueries(table, status string)
	RecordWarehouseQueryLatency(table string, duration time.Duration)

	// Text-generation metrics
	IncrementGenerationCalls(stage, outcome string)
	RecordGenerationLatency(stage string, duration time.Duration)

	// Archive metrics
	IncrementArchivePersistErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementPipelineRuns(outcome string) {
	PipelineRuns.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordPipelineLatency(duration time.Duration) {
	PipelineLatency.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementExtractionFallbacks() {
	ExtractionFallbacks.Inc()
}

func (r *PrometheusRegistry) IncrementWarehouseQueries(table, status string) {
	WarehouseQueries.WithLabelValues(table, status).Inc()
}

func (r *PrometheusRegistry) RecordWarehouseQueryLatency(table string, duration time.Duration) {
	WarehouseQueryLatency.WithLabelValues(table).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementGenerationCalls(stage, outcome string) {
	GenerationCalls.WithLabelValues(stage, outcome).Inc()
}

func (r *PrometheusRegistry) RecordGenerationLatency(stage string, duration time.Duration) {
	GenerationLatency.WithLabelValues(stage).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementArchivePersistErrors() {
	ArchivePersistErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementPipelineRuns(outcome string)                                 {}
func (r *NoOpRegistry) RecordPipelineLatency(duration time.Duration)                         {}
func (r *NoOpRegistry) IncrementExtractionFallbacks()                                        {}
func (r *NoOpRegistry) IncrementWarehouseQueries(table, status string)                       {}
func (r *NoOpRegistry) RecordWarehouseQueryLatency(table string, duration time.Duration)     {}
func (r *NoOpRegistry) IncrementGenerationCalls(stage, outcome string)                       {}
func (r *NoOpRegistry) RecordGenerationLatency(stage string, duration time.Duration)         {}
func (r *NoOpRegistry) IncrementArchivePersistErrors()                                       {}
