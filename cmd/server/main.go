// Reporting server exposes the campaign reporting pipeline over HTTP.
//
// POST /report runs the full pipeline for a natural-language request;
// GET /reports and GET /reports/{id} read the archive; /metrics serves
// Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/api"
	"github.com/mktops/adreport/internal/config"
	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/llm"
	"github.com/mktops/adreport/internal/middleware"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/pipeline"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/store"
	"github.com/mktops/adreport/internal/warehouse"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metricsRegistry := observability.NewPrometheusRegistry()

	ch, err := warehouse.InitClickHouse(cfg.ClickHouseDSN, warehouse.PoolConfig{
		MaxOpenConns:    cfg.CHMaxOpenConns,
		MaxIdleConns:    cfg.CHMaxIdleConns,
		ConnMaxLifetime: cfg.CHConnMaxLifetime,
		ConnMaxIdleTime: cfg.CHConnMaxIdleTime,
	}, cfg.QueryTimeout, logger, metricsRegistry)
	if err != nil {
		return fmt.Errorf("failed to connect clickhouse: %w", err)
	}
	defer func() { _ = ch.Close() }()

	var archive *store.Archive
	if cfg.ArchiveEnabled {
		archive, err = store.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer func() { _ = archive.Close() }()
	}

	generator := llm.NewGemini(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMEndpoint, cfg.LLMTimeout, logger)

	pipe := &pipeline.Pipeline{
		Interpreter: interpret.New(generator, logger, metricsRegistry),
		Planner:     planner.New(cfg.WarehouseDatabase, cfg.InsightsTable, cfg.ActionsTable),
		Extractor:   warehouse.NewExtractor(ch, logger),
		Recommender: recommend.New(generator, logger, metricsRegistry),
		Archive:     archive,
		Logger:      logger,
		Metrics:     metricsRegistry,
	}

	srvDeps := api.NewServer(logger, pipe, archive, metricsRegistry, cfg)

	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))
	r.HandleFunc("/report", srvDeps.GenerateReportHandler).Methods("POST")
	r.HandleFunc("/reports", srvDeps.ListReportsHandler).Methods("GET")
	r.HandleFunc("/reports/{id}", srvDeps.GetReportHandler).Methods("GET")
	r.HandleFunc("/health", srvDeps.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "adreport-http"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Report server running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
