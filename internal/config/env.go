package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables read by the application
const (
	EnvAccountID = "LIKE4ME_ACCOUNT_ID"
	EnvSecret    = "LIKE4ME_SECRET"
	EnvAPIKey    = "ANTHROPIC_API_KEY"
	EnvSMTPPass  = "LIKE4ME_SMTP_PASS"
)

// LoadEnv loads environment variables from .env files in the working
// directory and the config directory. Existing variables win.
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, dir+string(os.PathSeparator)+".env")
	}

	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No env files loaded; relying on process environment")
	} else {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// ApplyEnv overlays secrets and overrides from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAccountID); v != "" {
		c.Account.ID = v
	}
	if v := os.Getenv(EnvSecret); v != "" {
		c.Account.Secret = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Comment.APIKey = v
	}
	if v := os.Getenv(EnvSMTPPass); v != "" {
		c.Email.SMTPPass = v
	}
}
