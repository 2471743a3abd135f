// Package api exposes the reporting pipeline over HTTP.
package api

import (
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/config"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/pipeline"
	"github.com/mktops/adreport/internal/store"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline
	Archive  *store.Archive
	Metrics  observability.MetricsRegistry
	Config   config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, p *pipeline.Pipeline, archive *store.Archive, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	return &Server{
		Logger:   logger,
		Pipeline: p,
		Archive:  archive,
		Metrics:  metrics,
		Config:   cfg,
	}
}
