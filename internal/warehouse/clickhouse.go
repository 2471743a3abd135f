// Package warehouse executes planned queries against ClickHouse and
// reconciles the per-table results into one unified time series.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/mktops/adreport/internal/observability"
	"github.com/mktops/adreport/internal/planner"
)

// Querier runs one planned query and returns its raw rows. The ClickHouse
// client implements it; tests substitute a fake.
type Querier interface {
	Query(ctx context.Context, plan planner.QueryPlan) (*TableResult, error)
}

// TableResult holds the raw rows one plan produced, before aggregation.
type TableResult struct {
	Table   string
	Columns []string
	Rows    []Row
}

// ClickHouse wraps a ClickHouse connection for report queries.
type ClickHouse struct {
	DB      *sql.DB
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics observability.MetricsRegistry
}

// PoolConfig carries connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// InitClickHouse connects to ClickHouse and verifies the connection.
func InitClickHouse(dsn string, pool PoolConfig, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) (*ClickHouse, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	logger.Info("Connected to ClickHouse")
	return &ClickHouse{DB: db, Timeout: timeout, Logger: logger, Metrics: metrics}, nil
}

// Close releases the underlying connection pool.
func (c *ClickHouse) Close() error {
	return c.DB.Close()
}

// Query executes one plan and scans its result set. Column sets are dynamic
// per plan, so rows are scanned generically and coerced afterwards: the
// grouping key columns to string/date, everything else to nullable floats.
func (c *ClickHouse) Query(ctx context.Context, plan planner.QueryPlan) (*TableResult, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.DB.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		c.Metrics.IncrementWarehouseQueries(plan.Table, "error")
		return nil, fmt.Errorf("query %s: %w", plan.Table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		c.Metrics.IncrementWarehouseQueries(plan.Table, "error")
		return nil, fmt.Errorf("columns %s: %w", plan.Table, err)
	}

	result := &TableResult{Table: plan.Table}
	for _, col := range columns {
		switch col {
		case "campaign_id", "campaign_name", "metric_date":
		default:
			result.Columns = append(result.Columns, col)
		}
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			c.Metrics.IncrementWarehouseQueries(plan.Table, "error")
			return nil, fmt.Errorf("scan %s: %w", plan.Table, err)
		}
		row := Row{Metrics: make(map[string]*float64, len(result.Columns))}
		for i, col := range columns {
			switch col {
			case "campaign_id":
				row.CampaignID = coerceString(values[i])
			case "campaign_name":
				row.CampaignName = coerceString(values[i])
			case "metric_date":
				d, err := coerceDate(values[i])
				if err != nil {
					c.Metrics.IncrementWarehouseQueries(plan.Table, "error")
					return nil, fmt.Errorf("scan %s: %w", plan.Table, err)
				}
				row.Date = d
			default:
				row.Metrics[col] = coerceFloat(values[i])
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		c.Metrics.IncrementWarehouseQueries(plan.Table, "error")
		return nil, fmt.Errorf("rows %s: %w", plan.Table, err)
	}

	c.Metrics.IncrementWarehouseQueries(plan.Table, "ok")
	c.Metrics.RecordWarehouseQueryLatency(plan.Table, time.Since(start))
	c.Logger.Debug("warehouse query complete",
		zap.String("table", plan.Table),
		zap.Int("rows", len(result.Rows)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// coerceString renders a scanned key column as a string.
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// coerceDate renders a scanned metric_date as a UTC day.
func coerceDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return time.Parse("2006-01-02", t)
	case []byte:
		return time.Parse("2006-01-02", string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported metric_date type %T", v)
	}
}

// coerceFloat renders a scanned numeric column as a nullable float.
func coerceFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
