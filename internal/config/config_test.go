package config

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
	path := filepath.Join(t.TempDir(), "relay.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[Server]
ListenAddr = "127.0.0.1:7777"
IdleTimeout = "90s"

[Relay]
TokenTTL = "1h"
SnippetLen = 64
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7777", cfg.Server.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.Server.IdleTimeout.Duration)
	assert.Equal(t, time.Hour, cfg.Relay.TokenTTL.Duration)
	assert.Equal(t, 64, cfg.Relay.SnippetLen)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Mongo, cfg.Mongo)
	assert.Equal(t, Default().Redis, cfg.Redis)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
[Server]
IdleTimeout = "ninety seconds"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
[Relay]
TokenTTL = "0s"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
