package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/like4me/internal/config"
)

// LLMExchange represents a prompt/response pair for caching
type LLMExchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"` // e.g. "anthropic"
	Model     string    `json:"model"`
	ItemURL   string    `json:"item_url,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// LLMCacheDir returns the path to the LLM cache directory.
// On Linux this is ~/.cache/like4me/llm/
func LLMCacheDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "llm"), nil
}

// SaveLLMExchange serializes an LLM exchange to JSON and writes it to a timestamped file.
// Returns the path to the saved file.
func SaveLLMExchange(exchange LLMExchange) (string, error) {
	dir, err := LLMCacheDir()
	if err != nil {
		return "", err
	}
	return writeJSON(dir, exchange.Timestamp, exchange)
}

// timestampName is sortable and avoids colons for filesystem compatibility
func timestampName(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02T15-04-05.000") + ".json"
}

func writeJSON(dir string, at time.Time, v any) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, timestampName(at))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
