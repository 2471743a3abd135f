// Package store persists finished report runs to Postgres. Only outputs
// are archived; the reconciled series itself is never stored.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound reports that no archived report matches the given ID.
var ErrNotFound = errors.New("report not found")

// ReportRecord is one archived pipeline run.
type ReportRecord struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Prompt          string          `json:"prompt"`
	Platform        string          `json:"platform"`
	Report          string          `json:"report"`
	Recommendations json.RawMessage `json:"recommendations"`
}

// Archive wraps the Postgres connection holding report history.
type Archive struct {
	DB *sql.DB
}

// schemaSQL sets up the report history table if it doesn't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    prompt TEXT NOT NULL,
    platform TEXT NOT NULL DEFAULT '',
    report TEXT NOT NULL,
    recommendations JSONB
);`

// InitPostgres connects to Postgres, configures pooling and ensures the
// schema exists.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Archive, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	a := &Archive{DB: db}
	if err := a.ensureSchema(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) ensureSchema() error {
	if _, err := a.DB.ExecContext(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("ensure reports schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error {
	return a.DB.Close()
}

// Save inserts one finished run.
func (a *Archive) Save(ctx context.Context, rec ReportRecord) error {
	recommendations := rec.Recommendations
	if recommendations == nil {
		recommendations = json.RawMessage("null")
	}
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, prompt, platform, report, recommendations)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.CreatedAt, rec.Prompt, rec.Platform, rec.Report, []byte(recommendations))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get loads one archived report by ID.
func (a *Archive) Get(ctx context.Context, id string) (*ReportRecord, error) {
	var rec ReportRecord
	var recommendations []byte
	err := a.DB.QueryRowContext(ctx,
		`SELECT id, created_at, prompt, platform, report, recommendations
         FROM reports WHERE id = $1`, id).
		Scan(&rec.ID, &rec.CreatedAt, &rec.Prompt, &rec.Platform, &rec.Report, &recommendations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	rec.Recommendations = recommendations
	return &rec, nil
}

// List returns the most recent archived reports, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, created_at, prompt, platform, report, recommendations
         FROM reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		var recommendations []byte
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Prompt, &rec.Platform, &rec.Report, &recommendations); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rec.Recommendations = recommendations
		records = append(records, rec)
	}
	return records, rows.Err()
}
