package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mktops/adreport/internal/catalog"
	"github.com/mktops/adreport/internal/request"
)

func newTestPlanner() *Planner {
	return New("facebook", "facebook_ad_insights", "facebook_ad_insights_action")
}

func TestPlan_SingleTableRelativePeriod(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodRelative, Days: 15},
		Metrics: []string{"impressions", "clicks"},
	})

	require.Len(t, plans, 1)
	assert.Equal(t, catalog.InsightsTable, plans[0].Table)
	assert.Equal(t,
		"SELECT campaign_id, campaign_name, clicks, impressions, metric_date "+
			"FROM facebook.facebook_ad_insights "+
			"WHERE metric_date >= today() - INTERVAL ? DAY",
		plans[0].SQL)
	assert.Equal(t, []any{15}, plans[0].Args)
}

func TestPlan_ExplicitPeriodPassesThroughUnvalidated(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.ExplicitRange("2025-03-31", "2025-01-01"),
		Metrics: []string{"spend"},
	})

	require.Len(t, plans, 1)
	assert.Contains(t, plans[0].SQL, "WHERE metric_date BETWEEN ? AND ?")
	assert.Equal(t, []any{"2025-03-31", "2025-01-01"}, plans[0].Args)
}

func TestPlan_ConversionsQueryActionsTable(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"conversions"},
	})

	require.Len(t, plans, 1)
	assert.Equal(t, catalog.ActionsTable, plans[0].Table)
	assert.Equal(t,
		"SELECT campaign_id, campaign_name, actions_value AS conversions, metric_date "+
			"FROM facebook.facebook_ad_insights_action "+
			"WHERE metric_date >= today() - INTERVAL ? DAY AND lowerUTF8(actions_action_type) LIKE ?",
		plans[0].SQL)
	assert.Equal(t, []any{30, "%lead%"}, plans[0].Args)
}

func TestPlan_ConversionTypeFilterOverridesDefault(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"conversions"},
		Filters: map[string]string{"conversion_type": "Purchase"},
	})

	require.Len(t, plans, 1)
	assert.Equal(t, []any{30, "%purchase%"}, plans[0].Args)
}

func TestPlan_DeviceFilterExcludedFromInsightsOnly(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"clicks", "conversions"},
		Filters: map[string]string{"device_platform": "mobile"},
	})

	require.Len(t, plans, 2)
	assert.Equal(t, catalog.InsightsTable, plans[0].Table)
	assert.NotContains(t, plans[0].SQL, "device_platform")
	assert.Equal(t, []any{30}, plans[0].Args)

	assert.Equal(t, catalog.ActionsTable, plans[1].Table)
	assert.Contains(t, plans[1].SQL, "device_platform = ?")
	assert.Equal(t, []any{30, "mobile", "%lead%"}, plans[1].Args)
}

func TestPlan_UnknownFilterAppliesToBothTables(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"clicks", "conversions"},
		Filters: map[string]string{"account_id": "42"},
	})

	require.Len(t, plans, 2)
	for _, plan := range plans {
		assert.Contains(t, plan.SQL, "account_id = ?")
	}
	assert.Equal(t, []any{30, "42"}, plans[0].Args)
	assert.Equal(t, []any{30, "42", "%lead%"}, plans[1].Args)
}

func TestPlan_UnknownMetricsDropped(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"clicks", "frequency", "Clicks"},
	})

	require.Len(t, plans, 1)
	assert.NotContains(t, plans[0].SQL, "frequency")
}

func TestPlan_NoResolvableMetricsYieldsNoPlans(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"frequency", "reach"},
	})
	assert.Empty(t, plans)
}

func TestPlan_PostJoinDerivedMetricNeverSelected(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"spend", "clicks", "cpc"},
	})

	require.Len(t, plans, 1)
	assert.NotContains(t, plans[0].SQL, "cpc")
}

func TestPlan_KeyColumnMetricNotDuplicated(t *testing.T) {
	p := newTestPlanner()
	plans := p.Plan(request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodDefault, Days: 30},
		Metrics: []string{"campaign_name"},
	})

	require.Len(t, plans, 1)
	assert.Equal(t,
		"SELECT campaign_id, campaign_name, metric_date "+
			"FROM facebook.facebook_ad_insights "+
			"WHERE metric_date >= today() - INTERVAL ? DAY",
		plans[0].SQL)
}

func TestPlan_Deterministic(t *testing.T) {
	p := newTestPlanner()
	spec := request.Spec{
		Period:  request.PeriodSpec{Kind: request.PeriodRelative, Days: 90},
		Metrics: []string{"spend", "impressions", "clicks", "conversions"},
		Filters: map[string]string{
			"device_platform": "mobile",
			"account_id":      "42",
			"country":         "ES",
		},
	}

	first := p.Plan(spec)
	for i := 0; i < 10; i++ {
		again := p.Plan(spec)
		require.Equal(t, first, again)
	}
}
