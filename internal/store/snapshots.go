package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/types"
)

// SnapshotDir returns where full run results are cached as JSON
func SnapshotDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "runs"), nil
}

// SaveSnapshot writes the complete result of a run, outcomes included.
// Returns the path to the saved file.
func SaveSnapshot(r *types.RunResult) (string, error) {
	dir, err := SnapshotDir()
	if err != nil {
		return "", err
	}
	return writeJSON(dir, r.StartedAt, r)
}

// LatestSnapshot loads the most recent run snapshot.
// Returns the result and the path it was loaded from.
func LatestSnapshot() (*types.RunResult, string, error) {
	dir, err := SnapshotDir()
	if err != nil {
		return nil, "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("no run snapshots in %s", dir)
		}
		return nil, "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var latest string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("no run snapshots in %s", dir)
	}

	path := filepath.Join(dir, latest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	var r types.RunResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &r, path, nil
}
