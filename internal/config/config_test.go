package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warehouse", cfg.Warehouse.Root)
	assert.Equal(t, "datasets.yaml", cfg.Catalog.Path)
	assert.Equal(t, 48, cfg.Freshness.Default.WarnAfterHours)
	assert.Equal(t, 168, cfg.Freshness.Default.ErrorAfterHours)
	assert.Equal(t, 0.30, cfg.Coverage.RowDeltaThreshold)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
store:
  driver: postgres
  database_url: postgres://localhost/warehouse
freshness:
  default:
    warn_after_hours: 24
    error_after_hours: 72
  sources:
    liveodds:
      warn_after_hours: 6
      error_after_hours: 24
consensus:
  weights:
    statsinc: 2.0
    liveodds: 1.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 24, cfg.Freshness.Default.WarnAfterHours)
	assert.Equal(t, 6, cfg.Freshness.Sources["liveodds"].WarnAfterHours)
	assert.Equal(t, 2.0, cfg.Consensus.Weights["statsinc"])
}

func TestThresholdsFallback(t *testing.T) {
	cfg := &Config{Freshness: FreshnessConfig{
		Default: SourceThresholds{WarnAfterHours: 48, ErrorAfterHours: 168},
		Sources: map[string]SourceThresholds{
			"liveodds": {WarnAfterHours: 6, ErrorAfterHours: 24},
		},
	}}

	assert.Equal(t, 6, cfg.Thresholds("liveodds").WarnAfterHours)
	assert.Equal(t, 48, cfg.Thresholds("statsinc").WarnAfterHours)
}

func TestSourceThresholdDurations(t *testing.T) {
	st := SourceThresholds{WarnAfterHours: 48, ErrorAfterHours: 168}
	assert.Equal(t, 48*time.Hour, st.WarnAfter())
	assert.Equal(t, 7*24*time.Hour, st.ErrorAfter())
}
