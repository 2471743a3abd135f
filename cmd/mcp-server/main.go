package main

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/analysis"
	"github.com/mktops/adreport/internal/config"
	"github.com/mktops/adreport/internal/export"
	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/llm"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/pipeline"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/request"
	"github.com/mktops/adreport/internal/store"
	"github.com/mktops/adreport/internal/warehouse"
)

type GenerateReportInput struct {
	Prompt string `json:"prompt"`
	Export bool   `json:"export,omitempty"`
}

type GenerateReportOutput struct {
	RunID           string         `json:"run_id"`
	Platform        string         `json:"platform,omitempty"`
	State           string         `json:"state"`
	Report          string         `json:"report"`
	Recommendations map[string]any `json:"recommendations,omitempty"`
	Markdown        string         `json:"markdown,omitempty"`
	UsedFallback    bool           `json:"used_fallback,omitempty"`
}

type AnalyzeRangeInput struct {
	Metrics   []string          `json:"metrics"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Filters   map[string]string `json:"filters,omitempty"`
}

type AnalyzeRangeOutput struct {
	State  string `json:"state"`
	Report string `json:"report"`
}

// ReportServer holds the pipeline dependencies shared by the tools.
type ReportServer struct {
	pipeline  *pipeline.Pipeline
	planner   *planner.Planner
	extractor *warehouse.Extractor
	logger    *zap.Logger
}

// GenerateReport runs the full reporting pipeline for a natural-language
// request, the same path the HTTP API takes.
func (s *ReportServer) GenerateReport(ctx context.Context, req *mcp.CallToolRequest, input GenerateReportInput) (*mcp.CallToolResult, GenerateReportOutput, error) {
	if input.Prompt == "" {
		return nil, GenerateReportOutput{}, fmt.Errorf("prompt is required")
	}

	result, err := s.pipeline.Run(ctx, input.Prompt)
	if err != nil {
		return nil, GenerateReportOutput{}, fmt.Errorf("report generation failed: %w", err)
	}

	out := GenerateReportOutput{
		RunID:           result.RunID,
		Platform:        result.Platform,
		State:           result.Analysis.State.String(),
		Report:          result.Report,
		Recommendations: result.Recommendations,
		UsedFallback:    result.UsedFallback,
	}
	if input.Export {
		out.Markdown = export.Document(result.Report, result.Recommendations)
	}
	return nil, out, nil
}

// AnalyzeRange runs extraction and trend analysis for an explicit metric set
// and date range, skipping the interpretation stage entirely.
func (s *ReportServer) AnalyzeRange(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeRangeInput) (*mcp.CallToolResult, AnalyzeRangeOutput, error) {
	if len(input.Metrics) == 0 {
		return nil, AnalyzeRangeOutput{}, fmt.Errorf("metrics are required")
	}
	if input.StartDate == "" || input.EndDate == "" {
		return nil, AnalyzeRangeOutput{}, fmt.Errorf("start_date and end_date are required")
	}

	filters := make(map[string]string, len(input.Filters))
	for k, v := range input.Filters {
		filters[k] = v
	}
	spec := request.Spec{
		Period:  request.ExplicitRange(input.StartDate, input.EndDate),
		Metrics: input.Metrics,
		Filters: filters,
	}

	series, err := s.extractor.Extract(ctx, s.planner.Plan(spec))
	if err != nil {
		return nil, AnalyzeRangeOutput{}, fmt.Errorf("extraction failed: %w", err)
	}

	report := analysis.Analyze(series)
	return nil, AnalyzeRangeOutput{State: report.State.String(), Report: report.Render()}, nil
}

func main() {
	// stdio carries the MCP protocol, so logs go to stderr
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("adreport-mcp").With(zap.String("service", "adreport-mcp"))

	cfg := config.Load()
	metrics := observability.NewNoOpRegistry()

	ch, err := warehouse.InitClickHouse(cfg.ClickHouseDSN, warehouse.PoolConfig{
		MaxOpenConns:    cfg.CHMaxOpenConns,
		MaxIdleConns:    cfg.CHMaxIdleConns,
		ConnMaxLifetime: cfg.CHConnMaxLifetime,
		ConnMaxIdleTime: cfg.CHConnMaxIdleTime,
	}, cfg.QueryTimeout, logger, metrics)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer ch.Close()

	var archive *store.Archive
	if cfg.ArchiveEnabled {
		archive, err = store.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			logger.Warn("Failed to connect to Postgres, reports will not be archived", zap.Error(err))
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	generator := llm.NewGemini(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMEndpoint, cfg.LLMTimeout, logger)
	plnr := planner.New(cfg.WarehouseDatabase, cfg.InsightsTable, cfg.ActionsTable)
	extractor := warehouse.NewExtractor(ch, logger)

	srv := &ReportServer{
		pipeline: &pipeline.Pipeline{
			Interpreter: interpret.New(generator, logger, metrics),
			Planner:     plnr,
			Extractor:   extractor,
			Recommender: recommend.New(generator, logger, metrics),
			Archive:     archive,
			Logger:      logger,
			Metrics:     metrics,
		},
		planner:   plnr,
		extractor: extractor,
		logger:    logger,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "adreport",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate a campaign performance report from a natural-language request",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language reporting request, e.g. 'clicks and spend for the last 15 days'",
				},
				"export": map[string]interface{}{
					"type":        "boolean",
					"description": "Also return the report as a Markdown document (optional)",
				},
			},
			"required": []string{"prompt"},
		},
	}, srv.GenerateReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_range",
		Description: "Run two-period trend analysis for an explicit metric set and date range",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"metrics": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Metric names, e.g. impressions, clicks, spend, conversions, cpc, ctr",
				},
				"start_date": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "Range start date (YYYY-MM-DD)",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "Range end date (YYYY-MM-DD)",
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Equality filters applied to the warehouse tables (optional)",
				},
			},
			"required": []string{"metrics", "start_date", "end_date"},
		},
	}, srv.AnalyzeRange)

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
