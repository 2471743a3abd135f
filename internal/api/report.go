package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/auth"
	"github.com/mktops/adreport/internal/export"
	"github.com/mktops/adreport/internal/middleware"
	"github.com/mktops/adreport/internal/request"
)

// reportRequest is the body of POST /report.
type reportRequest struct {
	Prompt string `json:"prompt"`
	// Export adds the rendered Markdown document to the response.
	Export bool `json:"export,omitempty"`
}

// reportResponse wraps a pipeline result for the API.
type reportResponse struct {
	RunID           string         `json:"run_id"`
	Platform        string         `json:"platform,omitempty"`
	Report          string         `json:"report"`
	Recommendations map[string]any `json:"recommendations,omitempty"`
	UsedFallback    bool           `json:"used_fallback,omitempty"`
	Document        string         `json:"document,omitempty"`
	ShareToken      string         `json:"share_token,omitempty"`
}

// GenerateReportHandler handles POST /report: it runs the full pipeline for
// the natural-language prompt in the body and returns the analysis text
// plus recommendations.
func (s *Server) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/report"
	method := r.Method
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	result, err := s.Pipeline.Run(r.Context(), req.Prompt)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, request.ErrUpstream) {
			// The interpretation step produced nothing usable.
			status = http.StatusUnprocessableEntity
		}
		logger.Error("report generation failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "report generation failed", status)
		return
	}

	resp := reportResponse{
		RunID:           result.RunID,
		Platform:        result.Platform,
		Report:          result.Report,
		Recommendations: result.Recommendations,
		UsedFallback:    result.UsedFallback,
	}
	if req.Export {
		resp.Document = export.Document(result.Report, result.Recommendations)
	}
	if s.Config.ShareSecret != "" {
		token, err := auth.Generate(result.RunID, []byte(s.Config.ShareSecret))
		if err != nil {
			logger.Error("generate share token", zap.Error(err))
		} else {
			resp.ShareToken = token
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("encode report response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	logger.Info("report generated",
		zap.String("run_id", result.RunID),
		zap.Bool("used_fallback", result.UsedFallback))
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
