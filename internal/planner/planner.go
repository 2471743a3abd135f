// Package planner turns a normalized request into one warehouse query per
// source table touched. Predicates are parameterized: a plan carries the
// statement with placeholders plus the ordered argument list, never
// interpolated literals.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mktops/adreport/internal/catalog"
	"github.com/mktops/adreport/internal/request"
)

// deviceFilterKey is the segmentation filter the primary performance table
// cannot be reliably partitioned by. It still applies to the actions table.
const deviceFilterKey = "device_platform"

// conversionFilterKey selects the action type matched on the actions table.
const conversionFilterKey = "conversion_type"

// defaultConversionType is matched when the caller supplies no conversion filter.
const defaultConversionType = "Lead"

// keyColumns are always selected and never duplicated from the catalog.
var keyColumns = map[string]bool{
	"campaign_id":   true,
	"campaign_name": true,
	"metric_date":   true,
}

// Predicate is a WHERE clause with placeholders and its bound arguments.
type Predicate struct {
	SQL  string
	Args []any
}

// QueryPlan is one executable statement against a single source table.
type QueryPlan struct {
	Table string // catalog table identifier
	SQL   string
	Args  []any
}

// Planner resolves catalog table identifiers to fully-qualified warehouse
// names fixed at configuration time.
type Planner struct {
	database string
	tables   map[string]string
}

// New constructs a Planner for the given warehouse database and physical
// table names.
func New(database, insightsTable, actionsTable string) *Planner {
	return &Planner{
		database: database,
		tables: map[string]string{
			catalog.InsightsTable: insightsTable,
			catalog.ActionsTable:  actionsTable,
		},
	}
}

// Plan emits one QueryPlan per distinct source table the requested metrics
// resolve to. Metric names absent from the catalog are dropped without
// diagnostics; post-join derived metrics never reach a plan. An empty
// result means no requested metric mapped anywhere and is not an error.
func (p *Planner) Plan(spec request.Spec) []QueryPlan {
	date := datePredicate(spec.Period)
	general, conversion := splitFilters(spec.Filters)

	type tableColumns struct {
		name    string
		columns map[string]bool
	}
	var order []string
	byTable := map[string]*tableColumns{}

	for _, name := range spec.Metrics {
		def, ok := catalog.Resolve(name)
		if !ok {
			continue
		}
		if def.Derived && def.PostJoin {
			continue
		}
		tc, ok := byTable[def.Table]
		if !ok {
			tc = &tableColumns{name: def.Table, columns: map[string]bool{}}
			byTable[def.Table] = tc
			order = append(order, def.Table)
		}
		switch {
		case def.Derived:
			tc.columns[def.Expression] = true
		case keyColumns[def.Column]:
			// already part of the grouping key selection
		case def.Alias != "" && def.Alias != def.Column:
			tc.columns[fmt.Sprintf("%s AS %s", def.Column, def.Alias)] = true
		default:
			tc.columns[def.Column] = true
		}
	}

	plans := make([]QueryPlan, 0, len(order))
	for _, table := range order {
		tc := byTable[table]

		where := Predicate{SQL: date.SQL, Args: append([]any(nil), date.Args...)}
		for _, f := range general {
			if table == catalog.InsightsTable && f.key == deviceFilterKey {
				continue
			}
			where.SQL += " AND " + f.clause
			where.Args = append(where.Args, f.arg)
		}
		if table == catalog.ActionsTable {
			where.SQL += " AND lowerUTF8(actions_action_type) LIKE ?"
			where.Args = append(where.Args, "%"+strings.ToLower(conversion)+"%")
		}

		columns := make([]string, 0, len(tc.columns))
		for c := range tc.columns {
			columns = append(columns, c)
		}
		sort.Strings(columns)

		selectClause := "campaign_id, campaign_name"
		if len(columns) > 0 {
			selectClause += ", " + strings.Join(columns, ", ")
		}
		selectClause += ", metric_date"

		plans = append(plans, QueryPlan{
			Table: table,
			SQL: fmt.Sprintf("SELECT %s FROM %s.%s WHERE %s",
				selectClause, p.database, p.tables[table], where.SQL),
			Args: where.Args,
		})
	}
	return plans
}

// datePredicate renders the metric_date restriction for a resolved period.
// Explicit ranges pass through unvalidated: a start after the end emits a
// BETWEEN that matches nothing.
func datePredicate(period request.PeriodSpec) Predicate {
	if period.Kind == request.PeriodExplicit {
		return Predicate{
			SQL:  "metric_date BETWEEN ? AND ?",
			Args: []any{period.Start, period.End},
		}
	}
	return Predicate{
		SQL:  "metric_date >= today() - INTERVAL ? DAY",
		Args: []any{period.Days},
	}
}

type equalityFilter struct {
	key    string
	clause string
	arg    string
}

// splitFilters separates the conversion-type filter from the simple
// equality filters and orders the latter by key so replanning the same
// request yields byte-identical statements.
func splitFilters(filters map[string]string) ([]equalityFilter, string) {
	conversion := defaultConversionType
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if k == conversionFilterKey {
			conversion = filters[k]
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	general := make([]equalityFilter, 0, len(keys))
	for _, k := range keys {
		general = append(general, equalityFilter{
			key:    k,
			clause: fmt.Sprintf("%s = ?", k),
			arg:    filters[k],
		})
	}
	return general, conversion
}
