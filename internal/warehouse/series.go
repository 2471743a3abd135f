package warehouse

import (
	"sort"
	"time"
)

// Key identifies one reconciled observation: a campaign on a date.
type Key struct {
	CampaignID   string
	CampaignName string
	Date         time.Time
}

// Row is one observation with its metric values. A nil value means the
// metric was absent for this row (for example a campaign/date present in
// one source table but not another).
type Row struct {
	Key
	Metrics map[string]*float64
}

// Value returns the metric value for a column, or (0, false) when the
// column is absent or null for this row.
func (r Row) Value(column string) (float64, bool) {
	v, ok := r.Metrics[column]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Series is the unified time series produced by reconciliation. Columns is
// the union of metric columns across all source tables, sorted; Rows are
// ordered by date then campaign ID. A Series is built fresh per pipeline
// run and never persisted.
type Series struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the series carries no observations.
func (s *Series) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// HasColumn reports whether the named metric column exists in the series.
func (s *Series) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// sortRows orders rows by date ascending, then campaign ID, then name, so
// reconciliation output is reproducible regardless of warehouse row order.
func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].CampaignID != rows[j].CampaignID {
			return rows[i].CampaignID < rows[j].CampaignID
		}
		return rows[i].CampaignName < rows[j].CampaignName
	})
}
