package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.False(t, cfg.DB.Enabled())
	assert.InDelta(t, 0.70, cfg.Engine.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 1000000.0, cfg.Engine.HighValueThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Engine.PassWithWarningsMaxFailures)
	assert.InDelta(t, 0.80, cfg.Engine.PassWithWarningsMinConfidence, 1e-9)
	assert.Equal(t, 3, cfg.Engine.MultipleFailuresThreshold)
	assert.Equal(t, 4, cfg.Engine.BatchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Engine.ReasonerTimeout)
	assert.Equal(t, 2, cfg.Engine.ReasonerMaxAttempts)
	assert.Equal(t, "27AABCU9603R1ZM", cfg.Company.GSTIN)
	assert.Equal(t, 180, cfg.Company.MaxInvoiceAgeDays)
	assert.Equal(t, "files", cfg.RefData.Source)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Empty(t, cfg.Reasoner.Providers())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINGUARD_ENGINE_HIGH_VALUE_THRESHOLD", "250000")
	t.Setenv("FINGUARD_ENGINE_BATCH_CONCURRENCY", "0")
	t.Setenv("FINGUARD_COMPANY_GSTIN", " 29aabct1332l1zz ")
	t.Setenv("FINGUARD_REASONER_PRIMARY_PROVIDER", "claude")
	t.Setenv("FINGUARD_REASONER_SECONDARY_PROVIDER", "openai")
	t.Setenv("FINGUARD_EMAIL_REVIEWERS", "ap@example.com, controller@example.com")
	t.Setenv("FINGUARD_DB_HOST", "db.internal")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.InDelta(t, 250000.0, cfg.Engine.HighValueThreshold, 1e-9)
	assert.Equal(t, 1, cfg.Engine.BatchConcurrency)
	assert.Equal(t, "29AABCT1332L1ZZ", cfg.Company.GSTIN)
	assert.Equal(t, []string{"ap@example.com", "controller@example.com"}, cfg.Email.Reviewers)
	assert.True(t, cfg.DB.Enabled())

	providers := cfg.Reasoner.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "claude", providers[0].Provider)
	assert.Equal(t, "openai", providers[1].Provider)
	assert.Equal(t, 60, providers[1].TimeoutSecs)
}

func TestLoad_PortFromPlatform(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("confidence threshold out of range", func(t *testing.T) {
		t.Setenv("FINGUARD_ENGINE_CONFIDENCE_THRESHOLD", "1.5")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("unknown refdata source", func(t *testing.T) {
		t.Setenv("FINGUARD_REFDATA_SOURCE", "s3")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  multiple_failures_threshold: 5\ncompany:\n  march_grace_until: \"2025-04-15\"\n"), 0o600))
	t.Setenv("FINGUARD_CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.MultipleFailuresThreshold)
	assert.Equal(t, "2025-04-15", cfg.Company.MarchGraceUntil)
}
