// Package catalog maps logical metric names to their physical location in
// the warehouse. The catalog is fixed at configuration time: each entry
// names the source table and column a metric is read from, an optional
// output alias, and whether the metric is derived from other columns
// instead of read directly.
package catalog

// Table identifiers for the two warehouse source tables. The planner
// resolves these to fully-qualified names at query time.
const (
	InsightsTable = "facebook_ad_insights"
	ActionsTable  = "facebook_ad_insights_action"
)

// MetricDefinition is an immutable catalog entry for one logical metric.
type MetricDefinition struct {
	Name       string // logical name, unique key
	Table      string // source table identifier
	Column     string // source column within Table
	Alias      string // optional output rename, empty when none
	Derived    bool   // computed rather than read directly
	Expression string // SQL expression for table-local derived metrics
	PostJoin   bool   // derived after reconciliation, excluded from per-table selection
}

// Ratio describes a post-join derived metric computed as numerator/denominator
// over the reconciled series. A zero denominator yields a null value.
type Ratio struct {
	Name        string
	Numerator   string
	Denominator string
}

// defs is the fixed metric catalog. Non-derived columns are a contract with
// the warehouse schema; nothing here is statically checked against it.
var defs = map[string]MetricDefinition{
	"campaign_name": {Name: "campaign_name", Table: InsightsTable, Column: "campaign_name"},
	"impressions":   {Name: "impressions", Table: InsightsTable, Column: "impressions"},
	"clicks":        {Name: "clicks", Table: InsightsTable, Column: "clicks"},
	"spend":         {Name: "spend", Table: InsightsTable, Column: "spend"},
	"ctr":           {Name: "ctr", Table: InsightsTable, Column: "ctr"},
	// cpc is spend/clicks; its inputs may land in different source tables
	// after reconciliation, so it is computed post-join rather than inside
	// any single table's query.
	"cpc": {Name: "cpc", Table: InsightsTable, Column: "cpc", Derived: true, PostJoin: true},
	"conversions": {
		Name:   "conversions",
		Table:  ActionsTable,
		Column: "actions_value",
		Alias:  "conversions",
	},
}

// Resolve looks up a logical metric name. Lookup is exact-match and
// case-sensitive. The second return value reports whether the name exists.
func Resolve(name string) (MetricDefinition, bool) {
	def, ok := defs[name]
	return def, ok
}

// PostJoinRatios returns the derived metrics computed after reconciliation,
// in a fixed order.
func PostJoinRatios() []Ratio {
	return []Ratio{
		{Name: "cpc", Numerator: "spend", Denominator: "clicks"},
	}
}
