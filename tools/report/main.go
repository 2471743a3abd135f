// Report Tool generates a campaign performance report from a natural-language
// request, running the same pipeline as the HTTP service but printing the
// result to stdout.
//
// Usage:
//
//	go run ./tools/report -prompt="clicks and spend for the last 15 days"
//
// Configuration:
//
//	-prompt: Required. The natural-language reporting request
//	-export: Optional. Path to write the report as a Markdown document
//	-timeout: Optional. Overall run timeout (default: 2m)
//
// Environment Variables:
//
//	CLICKHOUSE_DSN: warehouse connection string
//	LLM_API_KEY:    text-generation service API key
//	POSTGRES_DSN:   report archive connection string (ARCHIVE_ENABLED=true)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/config"
	"github.com/mktops/adreport/internal/export"
	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/llm"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/pipeline"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/store"
	"github.com/mktops/adreport/internal/warehouse"
)

func main() {
	var (
		prompt     = flag.String("prompt", "", "Natural-language reporting request")
		exportPath = flag.String("export", "", "Write the report as a Markdown document to this path")
		timeout    = flag.Duration("timeout", 2*time.Minute, "Overall run timeout")
	)
	flag.Parse()

	if *prompt == "" {
		fmt.Fprintf(os.Stderr, "Error: prompt is required\n")
		flag.Usage()
		os.Exit(1)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	metrics := observability.NewNoOpRegistry()

	ch, err := warehouse.InitClickHouse(cfg.ClickHouseDSN, warehouse.PoolConfig{
		MaxOpenConns:    cfg.CHMaxOpenConns,
		MaxIdleConns:    cfg.CHMaxIdleConns,
		ConnMaxLifetime: cfg.CHConnMaxLifetime,
		ConnMaxIdleTime: cfg.CHConnMaxIdleTime,
	}, cfg.QueryTimeout, logger, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to ClickHouse: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := ch.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close warehouse connection: %v\n", err)
		}
	}()

	var archive *store.Archive
	if cfg.ArchiveEnabled {
		archive, err = store.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: archive unavailable, report will not be persisted: %v\n", err)
			archive = nil
		} else {
			defer func() { _ = archive.Close() }()
		}
	}

	generator := llm.NewGemini(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMEndpoint, cfg.LLMTimeout, logger)

	pipe := &pipeline.Pipeline{
		Interpreter: interpret.New(generator, logger, metrics),
		Planner:     planner.New(cfg.WarehouseDatabase, cfg.InsightsTable, cfg.ActionsTable),
		Extractor:   warehouse.NewExtractor(ch, logger),
		Recommender: recommend.New(generator, logger, metrics),
		Archive:     archive,
		Logger:      logger,
		Metrics:     metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := pipe.Run(ctx, *prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Report)
	if len(result.Recommendations) > 0 {
		fmt.Println()
		fmt.Println("Recommendations:")
		pretty, err := json.MarshalIndent(result.Recommendations, "", "  ")
		if err == nil {
			fmt.Println(string(pretty))
		}
	}

	if *exportPath != "" {
		doc := export.Document(result.Report, result.Recommendations)
		if err := os.WriteFile(*exportPath, []byte(doc), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *exportPath)
	}
}
