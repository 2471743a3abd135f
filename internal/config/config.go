package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string

	// Warehouse (ClickHouse) configuration
	ClickHouseDSN     string
	WarehouseDatabase string
	InsightsTable     string
	ActionsTable      string
	QueryTimeout      time.Duration
	CHMaxOpenConns    int
	CHMaxIdleConns    int
	CHConnMaxLifetime time.Duration
	CHConnMaxIdleTime time.Duration

	// Report archive (Postgres) configuration
	PostgresDSN       string
	ArchiveEnabled    bool
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Text-generation service configuration
	LLMAPIKey   string
	LLMModel    string
	LLMEndpoint string
	LLMTimeout  time.Duration

	// Share-token configuration. An empty secret leaves report retrieval open.
	ShareSecret   string
	ShareTokenTTL time.Duration

	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8788")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	// report generation waits on the text-generation service, so the write
	// timeout is generous compared to a typical API service
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 120*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "adreport")

	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default")
	cfg.WarehouseDatabase = getenv("WAREHOUSE_DATABASE", "facebook")
	cfg.InsightsTable = getenv("WAREHOUSE_INSIGHTS_TABLE", "facebook_ad_insights")
	cfg.ActionsTable = getenv("WAREHOUSE_ACTIONS_TABLE", "facebook_ad_insights_action")
	cfg.QueryTimeout = envDuration("WAREHOUSE_QUERY_TIMEOUT", 30*time.Second)

	// ClickHouse connection pooling configuration
	cfg.CHMaxOpenConns = envInt("CH_MAX_OPEN_CONNS", 25)
	cfg.CHMaxIdleConns = envInt("CH_MAX_IDLE_CONNS", 5)
	cfg.CHConnMaxLifetime = envDuration("CH_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.CHConnMaxIdleTime = envDuration("CH_CONN_MAX_IDLE_TIME", 1*time.Minute)

	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.ArchiveEnabled = envBool("ARCHIVE_ENABLED", true)

	// Postgres connection pooling configuration
	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 2)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	cfg.LLMAPIKey = getenv("LLM_API_KEY", "")
	cfg.LLMModel = getenv("LLM_MODEL", "gemini-2.0-flash")
	cfg.LLMEndpoint = getenv("LLM_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models")
	cfg.LLMTimeout = envDuration("LLM_TIMEOUT", 30*time.Second)

	cfg.ShareSecret = getenv("SHARE_TOKEN_SECRET", "")
	cfg.ShareTokenTTL = envDuration("SHARE_TOKEN_TTL", 7*24*time.Hour)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
