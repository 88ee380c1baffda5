package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigurationDefaults(t *testing.T) {
	cfg, err := NewConfiguration()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SecretConfig.SecretKey)
	assert.Equal(t, 2, cfg.MailConfig.WorkerNumber)
	assert.Equal(t, "5.00", cfg.PolicyConfig.DefaultCommissionRate)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":9999")
	t.Setenv("DATABASE_URI", "postgres://localhost/pxsm")
	t.Setenv("DEFAULT_COMMISSION_RATE", "7.50")
	cfg, err := NewConfiguration()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ServerConfig.ServerAddress)
	assert.Equal(t, "postgres://localhost/pxsm", cfg.StorageConfig.DatabaseDSN)
	assert.True(t, cfg.PolicyConfig.CommissionRate().Equal(decimal.RequireFromString("7.50")))
}
