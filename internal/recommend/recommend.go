// Package recommend turns an analysis report into structured client-facing
// recommendations via the external text-generation service. The report
// text is the sole factual payload sent out; the response is consumed
// through the brace-extraction rule and degrades to an explicit error
// object when it cannot be structured.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/llm"
	"github.com/mktops/adreport/internal/observability"
)

const promptTemplate = `The campaign analysis report is the following:
%s

Report the campaign results to the client based on the data and the
analyst's comments above. Include suggestions on budget adjustments,
bidding strategy changes and audience targeting recommendations. Return
the information as a structured JSON object.`

// Recommender wraps the recommendation call to the text-generation service.
type Recommender struct {
	generator llm.Generator
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
}

// New constructs a Recommender.
func New(generator llm.Generator, logger *zap.Logger, metrics observability.MetricsRegistry) *Recommender {
	return &Recommender{generator: generator, logger: logger, metrics: metrics}
}

// Recommend produces the recommendation object for a report. Responses
// carrying no parseable JSON degrade to the error object; only transport
// failures return an error.
func (r *Recommender) Recommend(ctx context.Context, reportText string) (map[string]any, error) {
	start := time.Now()
	raw, err := r.generator.Generate(ctx, fmt.Sprintf(promptTemplate, reportText))
	r.metrics.RecordGenerationLatency("recommend", time.Since(start))
	if err != nil {
		r.metrics.IncrementGenerationCalls("recommend", "error")
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	obj, err := llm.ExtractObject(raw)
	if err != nil {
		r.metrics.IncrementGenerationCalls("recommend", "malformed")
		r.logger.Warn("recommendation response not parseable", zap.Error(err))
		return llm.ErrorObject(), nil
	}

	r.metrics.IncrementGenerationCalls("recommend", "ok")
	return obj, nil
}
