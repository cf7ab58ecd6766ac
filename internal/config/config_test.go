package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOLIO_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 34.0, cfg.FallbackUSDTRY)
	assert.Equal(t, 3, cfg.LedgerMaxConflictRetries)
	assert.Equal(t, 5*time.Minute, cfg.MarketData.QuoteCacheTTL)
	assert.Equal(t, 3, cfg.MarketData.MaxRetries)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, filepath.Join(cfg.DataDir, "ledger.db"), cfg.LedgerPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "client_data.db"), cfg.ClientDataPath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FOLIO_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("QUOTE_CACHE_TTL", "90s")
	t.Setenv("FALLBACK_USD_TRY", "41.5")
	t.Setenv("YAHOO_MAX_RETRIES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.MarketData.QuoteCacheTTL)
	assert.Equal(t, 41.5, cfg.FallbackUSDTRY)
	// Unparseable values fall back to the default
	assert.Equal(t, 3, cfg.MarketData.MaxRetries)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                     8080,
			FallbackUSDTRY:           34,
			LedgerMaxConflictRetries: 3,
			MarketData:               MarketDataConfig{MaxRetries: 3, RatePerSecond: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "PORT"},
		{name: "negative retries", mutate: func(c *Config) { c.LedgerMaxConflictRetries = -1 }, wantErr: "LEDGER_MAX_CONFLICT_RETRIES"},
		{name: "zero yahoo retries", mutate: func(c *Config) { c.MarketData.MaxRetries = 0 }, wantErr: "YAHOO_MAX_RETRIES"},
		{name: "zero rate", mutate: func(c *Config) { c.MarketData.RatePerSecond = 0 }, wantErr: "YAHOO_RATE_PER_SECOND"},
		{name: "zero fallback", mutate: func(c *Config) { c.FallbackUSDTRY = 0 }, wantErr: "FALLBACK_USD_TRY"},
		{
			name:    "backup without bucket",
			mutate:  func(c *Config) { c.Backup = BackupConfig{Enabled: true, AccessKeyID: "k", SecretAccessKey: "s"} },
			wantErr: "BACKUP_BUCKET",
		},
		{
			name:    "backup without credentials",
			mutate:  func(c *Config) { c.Backup = BackupConfig{Enabled: true, Bucket: "b"} },
			wantErr: "credentials",
		},
		{
			name:    "bad schedule",
			mutate:  func(c *Config) { c.Schedules.Maintenance = "every night" },
			wantErr: "MAINTENANCE_SCHEDULE",
		},
		{
			name:   "seconds schedule",
			mutate: func(c *Config) { c.Schedules.QuoteWarmup = "0 */5 * * * *" },
		},
		{
			name:   "complete backup",
			mutate: func(c *Config) { c.Backup = BackupConfig{Enabled: true, Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
