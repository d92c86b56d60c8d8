package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: write a config file into a fresh directory
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile_NoFile(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg, "Should return nil when config file doesn't exist")
}

func TestLoadConfigFile_ValidConfig(t *testing.T) {
	path := writeConfig(t, `addr: ":9000"
anthropic:
  api_key: "sk-ant"
  model: "claude-test"
wordpress:
  url: "https://news.example.com"
  username: "editor"
  app_password: "abcd efgh"
storage:
  briefs:
    type: "redis"
    dsn: "redis://localhost:6379/0"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "sk-ant", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-test", cfg.Anthropic.Model)
	assert.Equal(t, "abcd efgh", cfg.WordPress.AppPassword)
	assert.Equal(t, "redis", cfg.Storage.Briefs.Type)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.Briefs.DSN)
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `storage:
  briefs:
    - this is invalid yaml because briefs should be an object not a list
`)

	cfg, err := LoadConfigFile(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/home/editor")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/editor/.briefsmith/config.yaml", path)
}
