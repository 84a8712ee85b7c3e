package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"LOG_LEVEL", "API_PORT", "API_ENV", "REVENUE_FILE", "REVENUE_DATE", "REVENUE_BATCH_SIZE"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultFilePath, c.Input.FilePath)
	assert.Equal(t, DefaultDate, c.Input.Date)
	assert.Equal(t, DefaultBatchSize, c.Input.BatchSize)
	assert.Equal(t, 5*time.Minute, c.IntervalLength())

	d, err := c.TargetDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
input:
  file_path: data/dispatch.csv
  batch_size: 5000
ledger:
  path: results/ledger.csv
logging:
  format: json
api:
  result_ttl: 15m
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/dispatch.csv", c.Input.FilePath)
	assert.Equal(t, DefaultDate, c.Input.Date)
	assert.Equal(t, 5000, c.Input.BatchSize)
	assert.Equal(t, "results/ledger.csv", c.Ledger.Path)
	assert.Equal(t, "json", c.Logging.Format)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 15*time.Minute, c.API.ResultTTL)
	assert.Equal(t, "8080", c.API.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REVENUE_DATE", "2024-04-02")
	t.Setenv("REVENUE_BATCH_SIZE", "7")
	t.Setenv("API_PORT", "9090")

	c, err := Load(writeConfig(t, "input:\n  date: \"2024-04-03\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", c.Input.Date)
	assert.Equal(t, 7, c.Input.BatchSize)
	assert.Equal(t, "9090", c.API.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"date":     "input:\n  date: 01/04/2024\n",
		"batch":    "input:\n  batch_size: -1\n",
		"interval": "interval_minutes: -5\n",
		"yaml":     "input: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeKeepsBaseForZeroFields(t *testing.T) {
	base := Default()
	out := Merge(base, Config{Input: InputConfig{Date: "2024-05-05"}})
	assert.Equal(t, "2024-05-05", out.Input.Date)
	assert.Equal(t, base.Input.BatchSize, out.Input.BatchSize)
	assert.Equal(t, base.API.AllowedOrigins, out.API.AllowedOrigins)
}

func TestLoadRejectsBadBatchSizeEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REVENUE_BATCH_SIZE", "ten")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVENUE_BATCH_SIZE")
}
