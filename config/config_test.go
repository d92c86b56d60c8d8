package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: clear every variable Load reads
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"BRIEFSMITH_ADDR", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"WORDPRESS_URL", "WORDPRESS_USERNAME", "WORDPRESS_APP_PASSWORD",
		"GETTY_API_KEY", "GETTY_API_SECRET", "BRIEFSMITH_CHROME_PATH",
		"BRIEFSMITH_SESSIONS_DIR", "BRIEFSMITH_BRIEFS_TYPE", "BRIEFSMITH_BRIEFS_DSN",
	} {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies defaults are rooted next to the config file
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, BriefsSQLite, cfg.Storage.Briefs.Type)
	assert.Equal(t, filepath.Join(dir, "briefs.db"), cfg.Storage.Briefs.DSN)
	assert.Equal(t, filepath.Join(dir, "sessions"), cfg.Browser.SessionsDir)
	assert.Equal(t, filepath.Join(dir, "custom-sites.json"), cfg.Browser.SitesFile)
	assert.Equal(t, Status{}, cfg.Status())
}

// TestLoad_FileOverridesDefaults verifies file values win over defaults and
// unset values keep them
func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `gemini:
  api_key: "gm-key"
browser:
  sessions_dir: "/var/lib/briefsmith/sessions"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gm-key", cfg.Gemini.APIKey)
	assert.Equal(t, "/var/lib/briefsmith/sessions", cfg.Browser.SessionsDir)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "custom-sites.json"), cfg.Browser.SitesFile)
	assert.Equal(t, DefaultAddr, cfg.Addr)
}

// TestLoad_EnvOverridesFile verifies environment variables win over the
// file
func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `anthropic:
  api_key: "from-file"
`)
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("WORDPRESS_URL", "https://news.example.com")
	t.Setenv("WORDPRESS_USERNAME", "editor")
	t.Setenv("WORDPRESS_APP_PASSWORD", "secret")
	t.Setenv("GETTY_API_KEY", "getty")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Anthropic.APIKey)
	assert.Equal(t, Status{HasAnthropic: true, HasWordPress: true}, cfg.Status())
}

// TestLoad_RedisNeedsDSN verifies switching backend drops the SQLite
// default DSN
func TestLoad_RedisNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRIEFSMITH_BRIEFS_TYPE", "redis")

	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorContains(t, err, "storage.briefs.dsn is required")

	t.Setenv("BRIEFSMITH_BRIEFS_DSN", "redis://localhost:6379")
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", cfg.Storage.Briefs.DSN)
}

// TestLoad_InvalidStorageType verifies unknown backends are rejected
func TestLoad_InvalidStorageType(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `storage:
  briefs:
    type: "postgres"
    dsn: "postgres://localhost/db"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported briefs storage type")
}

// TestConfigAPI_Status verifies the status route exposes flags only
func TestConfigAPI_Status(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := Defaults(t.TempDir())
	cfg.Getty.APIKey = "key"
	cfg.Getty.APISecret = "secret"
	router := NewConfigAPIServer(cfg, nil).SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/config/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, map[string]bool{
		"hasAnthropic": false,
		"hasGemini":    false,
		"hasWordPress": false,
		"hasGetty":     true,
	}, status)
	assert.NotContains(t, w.Body.String(), "secret")
}
