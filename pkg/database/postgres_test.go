package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(&config.Config{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{URL: "://not-a-url"}}

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

func TestParsePoolConfig(t *testing.T) {
	pc, err := parsePoolConfig(config.DatabaseConfig{
		URL:             "postgres://user:pw@localhost:5432/dash",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, 10*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestParsePoolConfig_KeepsURLSettings(t *testing.T) {
	pc, err := parsePoolConfig(config.DatabaseConfig{
		URL:      "postgres://localhost/dash?application_name=ops&pool_max_conns=7",
		MinConns: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, "ops", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.NotEqual(t, int32(9), pc.MinConns, "min above max is ignored")
}

func TestHealthCheck(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("skipping integration test (TEST_DATABASE_URL not set)")
	}

	db, err := New(&config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1}})
	require.NoError(t, err, "database connection failed")
	defer db.Close()

	status, err := db.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(2), status.MaxConns)
}
