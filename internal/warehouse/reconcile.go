package warehouse

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/catalog"
	"github.com/mktops/adreport/internal/planner"
)

// Extractor runs planned queries sequentially and reconciles the results.
type Extractor struct {
	Querier Querier
	Logger  *zap.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(q Querier, logger *zap.Logger) *Extractor {
	return &Extractor{Querier: q, Logger: logger}
}

// Extract executes each plan in order, collapses duplicate rows per
// campaign/date within each table's result, outer-joins the per-table
// aggregates into one series, and computes the post-join derived metrics.
// No plans, or empty results everywhere, yield an explicitly-empty series
// rather than an error.
func (e *Extractor) Extract(ctx context.Context, plans []planner.QueryPlan) (*Series, error) {
	var aggregated []*TableResult
	for _, plan := range plans {
		result, err := e.Querier.Query(ctx, plan)
		if err != nil {
			return nil, err
		}
		if len(result.Rows) == 0 {
			continue
		}
		agg := aggregate(result)
		e.Logger.Debug("table aggregated",
			zap.String("table", plan.Table),
			zap.Int("raw_rows", len(result.Rows)),
			zap.Int("rows", len(agg.Rows)))
		aggregated = append(aggregated, agg)
	}
	if len(aggregated) == 0 {
		return &Series{}, nil
	}

	series := join(aggregated)
	deriveRatios(series)
	return series, nil
}

// aggregate groups a table's rows by campaign/date and sums the metric
// columns within each group. Warehouses can emit several rows for the same
// campaign and day (ad-set fan-out, upstream join duplication), so this
// runs even for tables expected to be pre-aggregated.
func aggregate(result *TableResult) *TableResult {
	grouped := make(map[Key]map[string]*float64)
	var order []Key
	for _, row := range result.Rows {
		metrics, ok := grouped[row.Key]
		if !ok {
			metrics = make(map[string]*float64, len(result.Columns))
			grouped[row.Key] = metrics
			order = append(order, row.Key)
		}
		for col, v := range row.Metrics {
			if v == nil {
				continue
			}
			if sum, ok := metrics[col]; ok && sum != nil {
				total := *sum + *v
				metrics[col] = &total
			} else {
				value := *v
				metrics[col] = &value
			}
		}
	}

	out := &TableResult{Table: result.Table, Columns: result.Columns}
	for _, key := range order {
		out.Rows = append(out.Rows, Row{Key: key, Metrics: grouped[key]})
	}
	return out
}

// join folds the per-table aggregates together with successive full outer
// joins on the campaign/date key. Each table contributes its own metric
// columns, so the fold is symmetric: any table order produces the same row
// set. Rows missing from a table simply lack that table's columns.
func join(results []*TableResult) *Series {
	columnSet := make(map[string]bool)
	merged := make(map[Key]map[string]*float64)
	for _, result := range results {
		for _, col := range result.Columns {
			columnSet[col] = true
		}
		for _, row := range result.Rows {
			metrics, ok := merged[row.Key]
			if !ok {
				metrics = make(map[string]*float64)
				merged[row.Key] = metrics
			}
			for col, v := range row.Metrics {
				metrics[col] = v
			}
		}
	}

	series := &Series{}
	for col := range columnSet {
		series.Columns = append(series.Columns, col)
	}
	sort.Strings(series.Columns)

	for key, metrics := range merged {
		series.Rows = append(series.Rows, Row{Key: key, Metrics: metrics})
	}
	sortRows(series.Rows)
	return series
}

// deriveRatios computes every post-join metric whose input columns made it
// into the joined series. A zero or absent denominator yields null, never
// an error. Ratios whose inputs are missing are skipped without diagnostics.
func deriveRatios(series *Series) {
	for _, ratio := range catalog.PostJoinRatios() {
		if !series.HasColumn(ratio.Numerator) || !series.HasColumn(ratio.Denominator) {
			continue
		}
		for i := range series.Rows {
			row := &series.Rows[i]
			num, numOK := row.Value(ratio.Numerator)
			den, denOK := row.Value(ratio.Denominator)
			if !numOK || !denOK || den == 0 {
				row.Metrics[ratio.Name] = nil
				continue
			}
			value := num / den
			row.Metrics[ratio.Name] = &value
		}
		if !series.HasColumn(ratio.Name) {
			series.Columns = append(series.Columns, ratio.Name)
			sort.Strings(series.Columns)
		}
	}
}
