package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Brief storage backends.
const (
	BriefsSQLite = "sqlite"
	BriefsRedis  = "redis"
)

// DefaultAddr is the listen address of the HTTP API.
const DefaultAddr = ":8080"

// ModelConfig configures one language model backend.
type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// WordPressConfig holds the publishing credentials.
type WordPressConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	AppPassword string `yaml:"app_password"`
}

// GettyConfig holds the stock photo API credentials.
type GettyConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// StorageConfig selects where saved briefs live.
type StorageConfig struct {
	Briefs struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"briefs"`
}

// BrowserConfig configures the logged-in browser used for paywalled sites.
type BrowserConfig struct {
	ExecPath    string `yaml:"exec_path"`
	SessionsDir string `yaml:"sessions_dir"`
	SitesFile   string `yaml:"sites_file"`
}

// Config is the full application configuration.
type Config struct {
	Addr      string          `yaml:"addr"`
	Anthropic ModelConfig     `yaml:"anthropic"`
	Gemini    ModelConfig     `yaml:"gemini"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Getty     GettyConfig     `yaml:"getty"`
	Browser   BrowserConfig   `yaml:"browser"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Status reports which integrations have credentials.
type Status struct {
	HasAnthropic bool `json:"hasAnthropic"`
	HasGemini    bool `json:"hasGemini"`
	HasWordPress bool `json:"hasWordPress"`
	HasGetty     bool `json:"hasGetty"`
}

// Defaults returns the configuration used when nothing is set. Data files
// live under dataDir.
func Defaults(dataDir string) *Config {
	cfg := &Config{Addr: DefaultAddr}
	cfg.Browser.SessionsDir = filepath.Join(dataDir, "sessions")
	cfg.Browser.SitesFile = filepath.Join(dataDir, "custom-sites.json")
	cfg.Storage.Briefs.Type = BriefsSQLite
	cfg.Storage.Briefs.DSN = filepath.Join(dataDir, "briefs.db")
	return cfg
}

// Load builds the configuration from defaults, then the YAML file at path
// (empty means DefaultPath), then environment variables. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Defaults(filepath.Dir(path))

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		cfg.merge(file)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Briefs.Type {
	case BriefsSQLite, BriefsRedis:
	default:
		return fmt.Errorf("unsupported briefs storage type %q (expected %s or %s)",
			c.Storage.Briefs.Type, BriefsSQLite, BriefsRedis)
	}
	if c.Storage.Briefs.DSN == "" {
		return fmt.Errorf("storage.briefs.dsn is required")
	}
	return nil
}

// Status reports which integrations are configured.
func (c *Config) Status() Status {
	return Status{
		HasAnthropic: c.Anthropic.APIKey != "",
		HasGemini:    c.Gemini.APIKey != "",
		HasWordPress: c.WordPress.URL != "" && c.WordPress.Username != "" && c.WordPress.AppPassword != "",
		HasGetty:     c.Getty.APIKey != "" && c.Getty.APISecret != "",
	}
}

// merge copies every non-empty value of f over c.
func (c *Config) merge(f *Config) {
	set(&c.Addr, f.Addr)
	mergeModel(&c.Anthropic, f.Anthropic)
	mergeModel(&c.Gemini, f.Gemini)
	set(&c.WordPress.URL, f.WordPress.URL)
	set(&c.WordPress.Username, f.WordPress.Username)
	set(&c.WordPress.AppPassword, f.WordPress.AppPassword)
	set(&c.Getty.APIKey, f.Getty.APIKey)
	set(&c.Getty.APISecret, f.Getty.APISecret)
	set(&c.Browser.ExecPath, f.Browser.ExecPath)
	set(&c.Browser.SessionsDir, f.Browser.SessionsDir)
	set(&c.Browser.SitesFile, f.Browser.SitesFile)
	if f.Storage.Briefs.Type != "" && f.Storage.Briefs.Type != c.Storage.Briefs.Type {
		// A different backend never inherits the default DSN.
		c.Storage.Briefs.Type = f.Storage.Briefs.Type
		c.Storage.Briefs.DSN = ""
	}
	set(&c.Storage.Briefs.DSN, f.Storage.Briefs.DSN)
}

func mergeModel(dst *ModelConfig, src ModelConfig) {
	set(&dst.APIKey, src.APIKey)
	set(&dst.Model, src.Model)
	set(&dst.BaseURL, src.BaseURL)
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("BRIEFSMITH_ADDR", c.Addr)
	c.Anthropic.APIKey = getEnv("ANTHROPIC_API_KEY", c.Anthropic.APIKey)
	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.WordPress.URL = getEnv("WORDPRESS_URL", c.WordPress.URL)
	c.WordPress.Username = getEnv("WORDPRESS_USERNAME", c.WordPress.Username)
	c.WordPress.AppPassword = getEnv("WORDPRESS_APP_PASSWORD", c.WordPress.AppPassword)
	c.Getty.APIKey = getEnv("GETTY_API_KEY", c.Getty.APIKey)
	c.Getty.APISecret = getEnv("GETTY_API_SECRET", c.Getty.APISecret)
	c.Browser.ExecPath = getEnv("BRIEFSMITH_CHROME_PATH", c.Browser.ExecPath)
	c.Browser.SessionsDir = getEnv("BRIEFSMITH_SESSIONS_DIR", c.Browser.SessionsDir)
	if t := getEnv("BRIEFSMITH_BRIEFS_TYPE", c.Storage.Briefs.Type); t != c.Storage.Briefs.Type {
		c.Storage.Briefs.Type = t
		c.Storage.Briefs.DSN = ""
	}
	c.Storage.Briefs.DSN = getEnv("BRIEFSMITH_BRIEFS_DSN", c.Storage.Briefs.DSN)
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func set(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
