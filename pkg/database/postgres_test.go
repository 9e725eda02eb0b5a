package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/astrobet/pkg/config"
)

func TestNewRejectsEmptyURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{})
	require.Error(t, err)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}

func TestPoolConfigDefaults(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		URL:             "postgres://user:pw@localhost:5432/astro",
		MaxConns:        7,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, ApplicationName, pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigKeepsURLApplicationName(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{URL: "postgres://localhost/astro?application_name=cron"})
	require.NoError(t, err)
	assert.Equal(t, "cron", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestHealthCheck(t *testing.T) {
	// Skip if DATABASE_URL is not set
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), status.Stats.MaxConns)
	assert.Equal(t, len(status.MissingTables) == 0, status.Healthy)
}
