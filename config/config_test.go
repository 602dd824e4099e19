package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const master = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("OPERATOR_MASTER", master)
}

func TestParseDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":5200", cfg.ListenAddr)
	assert.Equal(t, ClockModeLocal, cfg.ClockMode)
	assert.Equal(t, 2*time.Second, cfg.BlockInterval)
	assert.Equal(t, 10*time.Minute, cfg.ArchiveInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, master, cfg.MasterAddress().Hex())
	assert.False(t, cfg.R2.Enabled())
}

func TestParseOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLOCK_MODE", "remote")
	t.Setenv("CHAIN_SYNC_URL", "http://sync:8500")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("R2_BUCKET_NAME", "seasons")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, ClockModeRemote, cfg.ClockMode)
	assert.Equal(t, "http://sync:8500", cfg.ChainSyncURL)
	assert.True(t, cfg.R2.Enabled())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"missing token", "GAME_SERVICE_TOKEN", ""},
		{"bad master", "OPERATOR_MASTER", "not-an-address"},
		{"unknown clock mode", "CLOCK_MODE", "wallclock"},
		{"remote without url", "CLOCK_MODE", "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
