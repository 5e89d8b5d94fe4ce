// Package config loads the host configuration file and turns it into the
// per-run configuration the engine consumes.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "like4me"

// Comment providers
const (
	ProviderAnthropic = "anthropic"
	ProviderTemplate  = "template"
)

// Config holds all application configuration
type Config struct {
	Version int           `toml:"version"`
	Account AccountConfig `toml:"account"`
	Run     RunSettings   `toml:"run"`
	Browser BrowserConfig `toml:"browser"`
	Comment CommentConfig `toml:"comment"`
	History HistoryConfig `toml:"history"`
	Email   EmailConfig   `toml:"email"`
}

// AccountConfig identifies the session holder. The secret is never stored
// in the file; it comes from the environment.
type AccountConfig struct {
	ID     string `toml:"account_id"`
	Secret string `toml:"-"`
}

type RunSettings struct {
	DaysLimit           int  `toml:"days_limit"`
	MaxRelations        int  `toml:"max_relations"`
	MaxItemsPerRelation int  `toml:"max_items_per_relation"`
	MinIntervalMinutes  int  `toml:"min_interval_minutes"`
	KeepGoing           bool `toml:"keep_going"`
	RunTimeoutMinutes   int  `toml:"run_timeout_minutes"`
	ItemDelayMinMs      int  `toml:"item_delay_min_ms"`
	ItemDelayMaxMs      int  `toml:"item_delay_max_ms"`
}

type BrowserConfig struct {
	Headless  bool   `toml:"headless"`
	UserAgent string `toml:"user_agent"`
}

type CommentConfig struct {
	Enabled   bool     `toml:"enabled"`
	Provider  string   `toml:"provider"`
	APIKey    string   `toml:"api_key"`
	Model     string   `toml:"model"`
	MaxTokens int      `toml:"max_tokens"`
	Templates []string `toml:"templates"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// RetentionDays prunes older runs after each run. Zero keeps everything.
	RetentionDays int `toml:"retention_days"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Run: RunSettings{
			DaysLimit:           7,
			MaxRelations:        20,
			MaxItemsPerRelation: 10,
			MinIntervalMinutes:  MinIntervalFloor,
			KeepGoing:           false,
			RunTimeoutMinutes:   int(DefaultRunTimeout.Minutes()),
			ItemDelayMinMs:      1000,
			ItemDelayMaxMs:      2000,
		},
		Browser: BrowserConfig{
			// The second factor may need the holder to see the window
			Headless: false,
		},
		Comment: CommentConfig{
			Enabled:   false,
			Provider:  ProviderTemplate,
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 256,
			Templates: []string{
				"{title} 잘 읽었습니다. 좋은 글 감사합니다!",
				"오늘도 좋은 글 감사합니다 :)",
			},
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns where run history is kept, honoring an explicit path
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads config from disk, falling back to defaults when no file exists.
// Environment overrides are applied on top.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Missing keys keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
