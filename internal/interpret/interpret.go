// Package interpret turns a natural-language reporting request into the
// loosely-structured parameter object the extraction pipeline consumes.
// The heavy lifting happens in the external text-generation service; this
// package only builds the prompt and applies the brace-extraction rule to
// whatever comes back.
package interpret

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/llm"
	"github.com/mktops/adreport/internal/observability"
)

const promptTemplate = `The user has requested: %s

Extract the advertising platform, the time period, the required metrics and
any additional filters (for example device_platform) that apply across the
campaign data. Use these keys: "advertising_platform", "time_period" (either
a phrase like "last 90 days" or an object with "start_date" and "end_date"),
"metrics" (a list of metric names) and "filters" (an object of column/value
pairs). Respond with a structured JSON object only.`

// Interpreter wraps the interpretation call to the text-generation service.
type Interpreter struct {
	generator llm.Generator
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
}

// New constructs an Interpreter.
func New(generator llm.Generator, logger *zap.Logger, metrics observability.MetricsRegistry) *Interpreter {
	return &Interpreter{generator: generator, logger: logger, metrics: metrics}
}

// Interpret asks the service to structure the user's request. A response
// with no parseable JSON degrades to the explicit error object; only
// transport failures return an error.
func (i *Interpreter) Interpret(ctx context.Context, userPrompt string) (map[string]any, error) {
	start := time.Now()
	raw, err := i.generator.Generate(ctx, fmt.Sprintf(promptTemplate, userPrompt))
	i.metrics.RecordGenerationLatency("interpret", time.Since(start))
	if err != nil {
		i.metrics.IncrementGenerationCalls("interpret", "error")
		return nil, fmt.Errorf("interpret request: %w", err)
	}

	obj, err := llm.ExtractObject(raw)
	if err != nil {
		i.metrics.IncrementGenerationCalls("interpret", "malformed")
		i.logger.Warn("interpretation response not parseable", zap.Error(err))
		return llm.ErrorObject(), nil
	}

	i.metrics.IncrementGenerationCalls("interpret", "ok")
	return obj, nil
}
