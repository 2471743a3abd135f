package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/config"
	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/pipeline"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/warehouse"
)

type scriptedGenerator struct {
	responses []string
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.calls >= len(g.responses) {
		return "", nil
	}
	resp := g.responses[g.calls]
	g.calls++
	return resp, nil
}

type fixedQuerier struct {
	rows []warehouse.Row
}

func (q *fixedQuerier) Query(ctx context.Context, plan planner.QueryPlan) (*warehouse.TableResult, error) {
	return &warehouse.TableResult{
		Table:   plan.Table,
		Columns: []string{"clicks", "spend"},
		Rows:    q.rows,
	}, nil
}

func seriesRows() []warehouse.Row {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]warehouse.Row, 0, 10)
	for i := 0; i < 10; i++ {
		clicks := float64(10 + i)
		spend := 4.0
		rows = append(rows, warehouse.Row{
			Key: warehouse.Key{
				CampaignID:   "c1",
				CampaignName: "Brand",
				Date:         base.AddDate(0, 0, i),
			},
			Metrics: map[string]*float64{"clicks": &clicks, "spend": &spend},
		})
	}
	return rows
}

func newTestServer(gen *scriptedGenerator, rows []warehouse.Row) *Server {
	logger := zap.NewNop()
	metrics := observability.NewNoOpRegistry()
	pipe := &pipeline.Pipeline{
		Interpreter: interpret.New(gen, logger, metrics),
		Planner:     planner.New("facebook", "facebook_ad_insights", "facebook_ad_insights_action"),
		Extractor:   warehouse.NewExtractor(&fixedQuerier{rows: rows}, logger),
		Recommender: recommend.New(gen, logger, metrics),
		Logger:      logger,
		Metrics:     metrics,
	}
	return NewServer(logger, pipe, nil, metrics, config.Config{})
}

func TestGenerateReportHandler_Success(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"advertising_platform": "Facebook", "metrics": ["clicks", "spend"], "time_period": "last 10 days"}`,
		`{"recommendations": {"budget": "hold"}}`,
	}}
	s := newTestServer(gen, seriesRows())

	req := httptest.NewRequest(http.MethodPost, "/report",
		strings.NewReader(`{"prompt": "clicks and spend for the last 10 days"}`))
	w := httptest.NewRecorder()
	s.GenerateReportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		RunID           string         `json:"run_id"`
		Platform        string         `json:"platform"`
		Report          string         `json:"report"`
		Recommendations map[string]any `json:"recommendations"`
		Document        string         `json:"document"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "Facebook", resp.Platform)
	assert.Contains(t, resp.Report, "Campaign Performance Trend Report")
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Document)
}

func TestGenerateReportHandler_ExportIncludesDocument(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"metrics": ["clicks", "spend"]}`,
		`{"recommendations": {"budget": "hold"}}`,
	}}
	s := newTestServer(gen, seriesRows())

	req := httptest.NewRequest(http.MethodPost, "/report",
		strings.NewReader(`{"prompt": "how are campaigns doing?", "export": true}`))
	w := httptest.NewRecorder()
	s.GenerateReportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Document string `json:"document"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Document, "# Campaign Analysis Report")
	assert.Contains(t, resp.Document, "# Recommendations")
}

func TestGenerateReportHandler_InvalidBody(t *testing.T) {
	s := newTestServer(&scriptedGenerator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.GenerateReportHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReportHandler_EmptyPrompt(t *testing.T) {
	s := newTestServer(&scriptedGenerator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(`{"prompt": "  "}`))
	w := httptest.NewRecorder()
	s.GenerateReportHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReportHandler_UnusableInterpretation(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"no structure here at all"}}
	s := newTestServer(gen, seriesRows())

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(`{"prompt": "???"}`))
	w := httptest.NewRecorder()
	s.GenerateReportHandler(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
