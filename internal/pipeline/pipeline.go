// Package pipeline wires the reporting stages together: interpretation,
// normalization, planning, extraction, analysis and recommendations. The
// stages run sequentially; each consumes the previous stage's output and
// nothing is shared mutably across them.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/analysis"
	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/request"
	"github.com/mktops/adreport/internal/store"
	"github.com/mktops/adreport/internal/warehouse"
)

// fallbackDays is the fixed window retried once when extraction comes back
// empty. There is no further retry and no backoff.
const fallbackDays = 90

// Pipeline holds the stage dependencies for report generation.
type Pipeline struct {
	Interpreter *interpret.Interpreter
	Planner     *planner.Planner
	Extractor   *warehouse.Extractor
	Recommender *recommend.Recommender
	Archive     *store.Archive
	Logger      *zap.Logger
	Metrics     observability.MetricsRegistry

	// Now is the clock used for the fallback range; tests pin it.
	Now func() time.Time
}

// Result is one finished pipeline run.
type Result struct {
	RunID           string           `json:"run_id"`
	Prompt          string           `json:"prompt"`
	Platform        string           `json:"platform,omitempty"`
	Analysis        *analysis.Report `json:"analysis"`
	Report          string           `json:"report"`
	Recommendations map[string]any   `json:"recommendations,omitempty"`
	UsedFallback    bool             `json:"used_fallback,omitempty"`
}

// Run executes the full pipeline for one natural-language request. Data
// insufficiency is reported inside the Result, never as an error; errors
// are reserved for failed collaborators (warehouse, text generation) and
// unusable interpretation output.
func (p *Pipeline) Run(ctx context.Context, userPrompt string) (*Result, error) {
	ctx, span := observability.Tracer("pipeline").Start(ctx, "pipeline.run")
	defer span.End()

	start := time.Now()
	runID := uuid.NewString()
	logger := p.Logger.With(zap.String("run_id", runID))

	result, err := p.run(ctx, logger, runID, userPrompt)
	p.Metrics.RecordPipelineLatency(time.Since(start))
	if err != nil {
		p.Metrics.IncrementPipelineRuns("error")
		return nil, err
	}
	p.Metrics.IncrementPipelineRuns(outcome(result.Analysis))

	logger.Info("pipeline run complete",
		zap.String("outcome", outcome(result.Analysis)),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger *zap.Logger, runID, userPrompt string) (*Result, error) {
	raw, err := p.Interpreter.Interpret(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	spec, err := request.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize request: %w", err)
	}
	logger.Info("request normalized",
		zap.String("platform", spec.Platform),
		zap.Strings("metrics", spec.Metrics),
		zap.Any("filters", spec.Filters))

	series, err := p.Extractor.Extract(ctx, p.Planner.Plan(spec))
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	usedFallback := false
	if series.Empty() {
		// One fixed retry over the trailing 90 days, then give up.
		p.Metrics.IncrementExtractionFallbacks()
		usedFallback = true
		today := p.now()
		fallback := request.ExplicitRange(
			today.AddDate(0, 0, -fallbackDays).Format("2006-01-02"),
			today.Format("2006-01-02"),
		)
		logger.Info("empty extraction, retrying with fallback period",
			zap.String("start", fallback.Start),
			zap.String("end", fallback.End))
		spec = spec.WithPeriod(fallback)
		series, err = p.Extractor.Extract(ctx, p.Planner.Plan(spec))
		if err != nil {
			return nil, fmt.Errorf("fallback extract: %w", err)
		}
	}

	report := analysis.Analyze(series)
	result := &Result{
		RunID:        runID,
		Prompt:       userPrompt,
		Platform:     spec.Platform,
		Analysis:     report,
		Report:       report.Render(),
		UsedFallback: usedFallback,
	}
	if report.State == analysis.StateEmpty {
		return result, nil
	}

	recommendations, err := p.Recommender.Recommend(ctx, result.Report)
	if err != nil {
		return nil, err
	}
	result.Recommendations = recommendations

	p.archive(ctx, logger, result)
	return result, nil
}

// archive persists the finished run when an archive is configured. Failing
// to persist degrades to a logged error; the run itself succeeded.
func (p *Pipeline) archive(ctx context.Context, logger *zap.Logger, result *Result) {
	if p.Archive == nil {
		return
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		recommendations = nil
	}
	rec := store.ReportRecord{
		ID:              result.RunID,
		CreatedAt:       p.now(),
		Prompt:          result.Prompt,
		Platform:        result.Platform,
		Report:          result.Report,
		Recommendations: recommendations,
	}
	if err := p.Archive.Save(ctx, rec); err != nil {
		p.Metrics.IncrementArchivePersistErrors()
		logger.Error("archive report", zap.Error(err))
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// outcome labels a run for metrics.
func outcome(report *analysis.Report) string {
	switch report.State {
	case analysis.StateAnalyzed:
		return "analyzed"
	case analysis.StateEmpty:
		return "no_data"
	default:
		return "insufficient_data"
	}
}
