// Package analysis compares campaign performance between the two halves of
// the observed date range and renders the result as a fixed-format text
// report. The report text is a wire contract: the recommendation step feeds
// it verbatim to the text-generation service, so labels, ordering and
// decimal precision must not drift.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mktops/adreport/internal/warehouse"
)

// State is the data-sufficiency outcome of an analysis. Every state is
// terminal and reported as plain text; none is an error.
type State int

const (
	// StateAnalyzed is the normal path: two periods were compared.
	StateAnalyzed State = iota
	// StateEmpty means the series carried no rows.
	StateEmpty
	// StateNoKeyMetrics means none of the key metric columns were present.
	StateNoKeyMetrics
	// StateSingleDay means all rows share one date.
	StateSingleDay
	// StateTooShort means the range spans fewer than two days.
	StateTooShort
)

// String returns the state's wire label.
func (s State) String() string {
	switch s {
	case StateAnalyzed:
		return "analyzed"
	case StateEmpty:
		return "empty"
	case StateNoKeyMetrics:
		return "no_key_metrics"
	case StateSingleDay:
		return "single_day"
	case StateTooShort:
		return "too_short"
	default:
		return "unknown"
	}
}

// keyMetrics are the metrics compared between periods, in report order.
var keyMetrics = []string{"impressions", "clicks", "spend", "conversions"}

// Terminal messages for the insufficient-data states.
const (
	msgEmpty        = "No data found for the requested period."
	msgNoKeyMetrics = "No key metrics (impressions, clicks, spend, conversions) found in the data."
	msgSingleDay    = "Only one day of data is available; cannot compare periods."
	msgTooShort     = "The date range is too short for a meaningful comparison."
)

// MetricComparison is one key metric summed per period with its relative change.
type MetricComparison struct {
	Name      string  `json:"name"`
	Period1   float64 `json:"period1_sum"`
	Period2   float64 `json:"period2_sum"`
	PctChange float64 `json:"pct_change"`
}

// Report is the immutable result of analyzing one series.
type Report struct {
	State       State              `json:"-"`
	Message     string             `json:"message,omitempty"`
	RangeStart  time.Time          `json:"range_start,omitempty"`
	RangeEnd    time.Time          `json:"range_end,omitempty"`
	Cutoff      time.Time          `json:"cutoff,omitempty"`
	Comparisons []MetricComparison `json:"comparisons,omitempty"`
}

// Analyzed reports whether the normal comparison path was taken.
func (r *Report) Analyzed() bool {
	return r.State == StateAnalyzed
}

// Analyze splits the series at the midpoint of its observed date range and
// sums each present key metric per half.
func Analyze(series *warehouse.Series) *Report {
	if series.Empty() {
		return &Report{State: StateEmpty, Message: msgEmpty}
	}

	var present []string
	for _, m := range keyMetrics {
		if series.HasColumn(m) {
			present = append(present, m)
		}
	}
	if len(present) == 0 {
		return &Report{State: StateNoKeyMetrics, Message: msgNoKeyMetrics}
	}

	// Rows come back date-sorted from reconciliation, so the range bounds
	// are the first and last rows.
	minDate := series.Rows[0].Date
	maxDate := series.Rows[len(series.Rows)-1].Date
	if minDate.Equal(maxDate) {
		return &Report{State: StateSingleDay, Message: msgSingleDay}
	}
	rangeDays := int(maxDate.Sub(minDate).Hours() / 24)
	if rangeDays < 2 {
		return &Report{State: StateTooShort, Message: msgTooShort}
	}

	cutoff := minDate.AddDate(0, 0, rangeDays/2)

	report := &Report{
		State:      StateAnalyzed,
		RangeStart: minDate,
		RangeEnd:   maxDate,
		Cutoff:     cutoff,
	}
	for _, metric := range present {
		var p1, p2 float64
		for _, row := range series.Rows {
			v, ok := row.Value(metric)
			if !ok {
				continue
			}
			if !row.Date.After(cutoff) {
				p1 += v
			} else {
				p2 += v
			}
		}
		report.Comparisons = append(report.Comparisons, MetricComparison{
			Name:      metric,
			Period1:   p1,
			Period2:   p2,
			PctChange: pctChange(p1, p2),
		})
	}
	return report
}

// pctChange computes the relative change between period sums. A zero first
// period reads as a 100% change when anything appeared in the second, and
// 0% when both are zero.
func pctChange(p1, p2 float64) float64 {
	if p1 == 0 {
		if p2 != 0 {
			return 100
		}
		return 0
	}
	return (p2 - p1) / math.Abs(p1) * 100
}

// Render produces the report text. Insufficient-data states render their
// terminal message; the analyzed state renders the fixed multi-line block
// the recommendation step consumes.
func (r *Report) Render() string {
	if r.State != StateAnalyzed {
		return r.Message
	}

	lines := []string{
		"Campaign Performance Trend Report",
		fmt.Sprintf("Date range analyzed: %s to %s",
			r.RangeStart.Format("2006-01-02"), r.RangeEnd.Format("2006-01-02")),
		fmt.Sprintf("Split into two periods at %s.", r.Cutoff.Format("2006-01-02")),
		"Metric comparisons:",
	}
	for _, c := range r.Comparisons {
		lines = append(lines, fmt.Sprintf("%s: Periodo 1 = %.2f, Periodo 2 = %.2f, cambio = %.2f%%",
			c.Name, c.Period1, c.Period2, c.PctChange))
	}
	return strings.Join(lines, "\n")
}
