package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePeriod_AbsentDefaultsToThirtyDays(t *testing.T) {
	spec := ParsePeriod(nil)
	assert.Equal(t, PeriodDefault, spec.Kind)
	assert.Equal(t, 30, spec.Days)
}

func TestParsePeriod_ExplicitRange(t *testing.T) {
	spec := ParsePeriod(map[string]any{
		"start_date": "2025-01-01",
		"end_date":   "2025-03-31",
	})
	assert.Equal(t, PeriodExplicit, spec.Kind)
	assert.Equal(t, "2025-01-01", spec.Start)
	assert.Equal(t, "2025-03-31", spec.End)
}

func TestParsePeriod_ExplicitRangeUnvalidated(t *testing.T) {
	// Start after end still resolves; it just matches no rows downstream.
	spec := ParsePeriod(map[string]any{
		"start_date": "2025-03-31",
		"end_date":   "2025-01-01",
	})
	assert.Equal(t, PeriodExplicit, spec.Kind)
	assert.Equal(t, "2025-03-31", spec.Start)
	assert.Equal(t, "2025-01-01", spec.End)
}

func TestParsePeriod_PartialMappingDefaults(t *testing.T) {
	spec := ParsePeriod(map[string]any{"start_date": "2025-01-01"})
	assert.Equal(t, PeriodDefault, spec.Kind)
	assert.Equal(t, 30, spec.Days)

	spec = ParsePeriod(map[string]any{"end_date": "2025-01-31"})
	assert.Equal(t, PeriodDefault, spec.Kind)
	assert.Equal(t, 30, spec.Days)
}

func TestParsePeriod_StringDayCount(t *testing.T) {
	cases := []struct {
		input string
		days  int
	}{
		{"last 90 days", 90},
		{"15 days", 15},
		{"últimos 7 días", 7},
		// The first digit run wins even when later numbers appear.
		{"the last 90 days, not 30", 90},
	}
	for _, tc := range cases {
		spec := ParsePeriod(tc.input)
		assert.Equal(t, PeriodRelative, spec.Kind, "input %q", tc.input)
		assert.Equal(t, tc.days, spec.Days, "input %q", tc.input)
	}
}

func TestParsePeriod_StringWithoutDigitsDefaults(t *testing.T) {
	spec := ParsePeriod("last month")
	assert.Equal(t, PeriodDefault, spec.Kind)
	assert.Equal(t, 30, spec.Days)
}

func TestParsePeriod_EmptyStringDefaults(t *testing.T) {
	spec := ParsePeriod("")
	assert.Equal(t, PeriodDefault, spec.Kind)
	assert.Equal(t, 30, spec.Days)
}
