package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/interpret"
	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/planner"
	"github.com/mktops/adreport/internal/recommend"
	"github.com/mktops/adreport/internal/request"
	"github.com/mktops/adreport/internal/warehouse"
)

// scriptedGenerator returns queued responses in order; the first call is
// the interpretation, the second the recommendation.
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

// capturingQuerier records every plan and returns canned rows starting at
// call emptyUntil.
type capturingQuerier struct {
	plans      []planner.QueryPlan
	rows       []warehouse.Row
	emptyUntil int
	calls      int
}

func (q *capturingQuerier) Query(ctx context.Context, plan planner.QueryPlan) (*warehouse.TableResult, error) {
	q.plans = append(q.plans, plan)
	q.calls++
	if q.calls <= q.emptyUntil {
		return &warehouse.TableResult{Table: plan.Table}, nil
	}
	return &warehouse.TableResult{
		Table:   plan.Table,
		Columns: []string{"clicks", "spend"},
		Rows:    q.rows,
	}, nil
}

func tenDays() []warehouse.Row {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]warehouse.Row, 0, 10)
	for i := 0; i < 10; i++ {
		clicks := float64(10 + i)
		spend := 5.0
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

func newTestPipeline(gen *scriptedGenerator, q *capturingQuerier) *Pipeline {
	logger := zap.NewNop()
	metrics := observability.NewNoOpRegistry()
	return &Pipeline{
		Interpreter: interpret.New(gen, logger, metrics),
		Planner:     planner.New("facebook", "facebook_ad_insights", "facebook_ad_insights_action"),
		Extractor:   warehouse.NewExtractor(q, logger),
		Recommender: recommend.New(gen, logger, metrics),
		Logger:      logger,
		Metrics:     metrics,
		Now: func() time.Time {
			return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"advertising_platform": "Facebook", "time_period": "last 15 days", "metrics": ["clicks", "spend"]}`,
		`{"recommendations": {"budget": "hold"}}`,
	}}
	q := &capturingQuerier{rows: tenDays()}
	p := newTestPipeline(gen, q)

	result, err := p.Run(context.Background(), "clicks and spend for the last 15 days")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Facebook", result.Platform)
	assert.True(t, result.Analysis.Analyzed())
	assert.Contains(t, result.Report, "Campaign Performance Trend Report")
	assert.NotNil(t, result.Recommendations)
	assert.False(t, result.UsedFallback)

	require.Len(t, q.plans, 1)
	assert.Equal(t, []any{15}, q.plans[0].Args)
	assert.Equal(t, 2, gen.calls)
}

func TestRun_EmptyExtractionRetriesWithNinetyDayRange(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"metrics": ["clicks", "spend"], "time_period": "last 7 days"}`,
		`{"recommendations": {}}`,
	}}
	q := &capturingQuerier{rows: tenDays(), emptyUntil: 1}
	p := newTestPipeline(gen, q)

	result, err := p.Run(context.Background(), "how did we do recently?")
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	require.Len(t, q.plans, 2)
	assert.Contains(t, q.plans[1].SQL, "BETWEEN ? AND ?")
	assert.Equal(t, []any{"2025-01-01", "2025-04-01"}, q.plans[1].Args)
}

func TestRun_EmptyAfterFallbackSkipsRecommendations(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"metrics": ["clicks"]}`,
	}}
	q := &capturingQuerier{emptyUntil: 99}
	p := newTestPipeline(gen, q)

	result, err := p.Run(context.Background(), "anything out there?")
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	assert.Equal(t, "No data found for the requested period.", result.Report)
	assert.Nil(t, result.Recommendations)
	assert.Equal(t, 1, gen.calls)
}

func TestRun_UpstreamErrorObjectFailsRun(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"sorry, I have no idea what you mean",
	}}
	q := &capturingQuerier{}
	p := newTestPipeline(gen, q)

	_, err := p.Run(context.Background(), "???")
	require.Error(t, err)
	assert.ErrorIs(t, err, request.ErrUpstream)
	assert.Empty(t, q.plans)
}
