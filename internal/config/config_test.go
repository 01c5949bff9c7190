package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "APP_PORT", "AUTH_JWT_SECRET", "AUTH_BCRYPT_COST", "REDIS_DB",
		"WORKFLOW_DEFAULT_SLA_DAYS", "WORKFLOW_CLOSE_AFTER_DAYS", "REPORT_MONTHS_WINDOW",
		"S3_BUCKET", "S3_REGION", "S3_MAX_UPLOAD_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vital-portal", cfg.App.Name)
	assert.Equal(t, 3, cfg.Workflow.DefaultSLADays)
	assert.Equal(t, 7, cfg.Workflow.CloseAfterDays)
	assert.Equal(t, 6, cfg.Report.MonthsWindow)
	assert.Equal(t, "ap-south-1", cfg.S3.Region)
	assert.Equal(t, int64(5<<20), cfg.S3.MaxUploadBytes)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKFLOW_DEFAULT_SLA_DAYS", "5")
	t.Setenv("REPORT_MONTHS_WINDOW", "12")
	t.Setenv("S3_BUCKET", "vital-photos")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workflow.DefaultSLADays)
	assert.Equal(t, 12, cfg.Report.MonthsWindow)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Workflow.DefaultSLADays = 0
	bad.Report.MonthsWindow = 0
	bad.Auth.BcryptCost = 2
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKFLOW_DEFAULT_SLA_DAYS")
	assert.Contains(t, err.Error(), "REPORT_MONTHS_WINDOW")
	assert.Contains(t, err.Error(), "AUTH_BCRYPT_COST")

	prod := *cfg
	prod.App.Env = "production"
	assert.ErrorContains(t, prod.Validate(), "production")
}
