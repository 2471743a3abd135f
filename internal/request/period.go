package request

import (
	"fmt"
	"regexp"
)

// PeriodKind discriminates the PeriodSpec variants.
type PeriodKind int

const (
	// PeriodDefault selects the trailing 30 days.
	PeriodDefault PeriodKind = iota
	// PeriodExplicit selects an inclusive [Start, End] date range.
	PeriodExplicit
	// PeriodRelative selects the trailing Days days.
	PeriodRelative
)

// defaultDays is the trailing window used when no usable period is supplied.
const defaultDays = 30

// PeriodSpec is the resolved form of a caller-supplied period descriptor.
// Explicit ranges carry the literal date strings unvalidated: a start after
// the end passes through as-is and simply matches no rows.
type PeriodSpec struct {
	Kind  PeriodKind
	Start string
	End   string
	Days  int
}

// ExplicitRange builds an explicit inclusive period.
func ExplicitRange(start, end string) PeriodSpec {
	return PeriodSpec{Kind: PeriodExplicit, Start: start, End: end}
}

var digitRun = regexp.MustCompile(`(\d+)`)

// ParsePeriod resolves an untrusted period descriptor into a PeriodSpec.
// Resolution precedence:
//  1. absent or empty input: trailing 30 days
//  2. mapping with both start_date and end_date: explicit inclusive range
//  3. mapping missing either key: trailing 30 days
//  4. string containing digits: the first digit run is a trailing day count
//  5. string without digits: trailing 30 days
func ParsePeriod(input any) PeriodSpec {
	if input == nil {
		return PeriodSpec{Kind: PeriodDefault, Days: defaultDays}
	}

	if m, ok := input.(map[string]any); ok {
		start, _ := m["start_date"].(string)
		end, _ := m["end_date"].(string)
		if start != "" && end != "" {
			return ExplicitRange(start, end)
		}
		return PeriodSpec{Kind: PeriodDefault, Days: defaultDays}
	}

	s := fmt.Sprint(input)
	if s == "" {
		return PeriodSpec{Kind: PeriodDefault, Days: defaultDays}
	}
	if match := digitRun.FindString(s); match != "" {
		days := 0
		for _, c := range match {
			days = days*10 + int(c-'0')
		}
		return PeriodSpec{Kind: PeriodRelative, Days: days}
	}
	return PeriodSpec{Kind: PeriodDefault, Days: defaultDays}
}
