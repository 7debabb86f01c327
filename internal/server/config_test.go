package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lastpotd.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigParsesFileAndAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server {
  port = 9999
}

game {
  admin = "operator"
  stake = 25
}

account "alice" {
  balance   = 1000
  allowance = 500
}

account "bob" {
  balance = 200
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:9999", cfg.GetServerAddress())
	assert.Equal(t, "operator", cfg.Game.Admin)
	assert.Equal(t, "pot", cfg.Game.Custody)
	assert.Equal(t, int64(25), cfg.Game.Stake)
	assert.Equal(t, 300*time.Second, cfg.Delay())
	assert.Equal(t, time.Hour, cfg.OpenFor())
	assert.Equal(t, time.Second, cfg.MinDelay())

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "alice", cfg.Accounts[0].Name)
	assert.Equal(t, int64(500), cfg.Accounts[0].Allowance)
	assert.Zero(t, cfg.Accounts[1].Allowance)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `server { port = `)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"missing admin", func(c *Config) { c.Game.Admin = "" }},
		{"custody equals admin", func(c *Config) { c.Game.Custody = c.Game.Admin }},
		{"stake below floor", func(c *Config) { c.Game.MinStake = 50 }},
		{"delay below floor", func(c *Config) { c.Game.MinDelaySeconds = 600 }},
		{"duplicate account", func(c *Config) {
			c.Accounts = []AccountConfig{{Name: "a", Balance: 1}, {Name: "a", Balance: 2}}
		}},
		{"negative balance", func(c *Config) {
			c.Accounts = []AccountConfig{{Name: "a", Balance: -1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
