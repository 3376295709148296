package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

// ErrNotConfigured is returned when DATABASE_URL is empty.
// Snapshot history is optional; callers treat this as "feature off".
var ErrNotConfigured = errors.New("database not configured")

// applicationName shows up in pg_stat_activity
const applicationName = "overseas-dashboard"

// DB wraps the pgxpool.Pool used by snapshot history
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool and verifies it with a ping
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func New(cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled() {
		return nil, ErrNotConfigured
	}

	poolConfig, err := parsePoolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// parsePoolConfig applies DB_* pool settings on top of DATABASE_URL
func parsePoolConfig(dc config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dc.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// A dashboard needs few connections; only override what was set
	if dc.MaxConns > 0 {
		poolConfig.MaxConns = int32(dc.MaxConns)
	}
	if dc.MinConns > 0 && int32(dc.MinConns) <= poolConfig.MaxConns {
		poolConfig.MinConns = int32(dc.MinConns)
	}
	if dc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = dc.MaxConnLifetime
	}
	if dc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = dc.MaxConnIdleTime
	}

	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return poolConfig, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// HealthCheck pings the database and reports pool usage.
// The status is returned even when the ping fails.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{CheckedAt: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.Latency = time.Since(start)

	stats := db.Pool.Stat()
	status.Healthy = true
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.MaxConns = stats.MaxConns()

	return status, nil
}

// HealthStatus is the database part of /health
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	CheckedAt  time.Time     `json:"checked_at"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
	TotalConns int32         `json:"total_conns"`
	IdleConns  int32         `json:"idle_conns"`
	MaxConns   int32         `json:"max_conns"`
}
