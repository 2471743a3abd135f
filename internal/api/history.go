package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/auth"
	"github.com/mktops/adreport/internal/store"
)

// ListReportsHandler handles GET /reports: recent archived runs, newest first.
//
// Query Parameters:
//   - limit: maximum number of reports to return (default: 20, max: 100)
func (s *Server) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/reports"
	method := r.Method

	if s.Archive == nil {
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "report archive unavailable", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if param := r.URL.Query().Get("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	records, err := s.Archive.List(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list reports", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.Logger.Error("encode report list", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// GetReportHandler handles GET /reports/{id}: one archived run.
func (s *Server) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/reports/{id}"
	method := r.Method

	id := mux.Vars(r)["id"]
	if s.Config.ShareSecret != "" {
		reportID, err := auth.Verify(r.URL.Query().Get("token"), []byte(s.Config.ShareSecret), s.Config.ShareTokenTTL)
		if err != nil || reportID != id {
			s.Metrics.IncrementRequests(endpoint, method, "403")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid share token", http.StatusForbidden)
			return
		}
	}

	if s.Archive == nil {
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "report archive unavailable", http.StatusServiceUnavailable)
		return
	}

	record, err := s.Archive.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.IncrementRequests(endpoint, method, "404")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Error("load report", zap.String("id", id), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		s.Logger.Error("encode report", zap.String("id", id), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
