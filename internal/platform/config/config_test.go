package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, name := range []string{"LIBRARY_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "LOAN_OVERDUE_AFTER_DAYS", "SWEEP_INTERVAL", "SWEEP_ENABLED"} {
		t.Setenv(name, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Lending.OverdueAfterDays)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Sweep.Interval)
	assert.Empty(t, cfg.Sweep.Message, "blank selects the sweep's built-in notice")
	assert.Equal(t, 5*time.Minute, cfg.Redis.BookCacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("LOAN_OVERDUE_AFTER_DAYS", "7")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_INTERVAL", "1h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Lending.OverdueAfterDays)
	assert.False(t, cfg.Sweep.Enabled)
	assert.Equal(t, time.Hour, cfg.Sweep.Interval)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("LOAN_OVERDUE_AFTER_DAYS", "three")
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOAN_OVERDUE_AFTER_DAYS")
	assert.Contains(t, err.Error(), "STORE_TIMEOUT")
}

func TestFromEnvRejectsZeroOverdueDays(t *testing.T) {
	t.Setenv("LOAN_OVERDUE_AFTER_DAYS", "0")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOAN_OVERDUE_AFTER_DAYS must be at least 1")
}
