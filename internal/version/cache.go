package version

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// cacheTTL is how long a release lookup is trusted
const cacheTTL = 6 * time.Hour

// CacheEntry is the last release lookup, stored as JSON under the config dir
type CacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

func cachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "autodoist", "version_cache.json")
}

// LoadCache reads the cached lookup
func LoadCache() (*CacheEntry, error) {
	data, err := os.ReadFile(cachePath())
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache writes the lookup, creating the directory if needed
func SaveCache(entry *CacheEntry) error {
	path := cachePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsCacheValid reports whether entry was made by this version within the TTL
func IsCacheValid(entry *CacheEntry, currentVersion string) bool {
	if entry == nil || entry.CurrentVersion != currentVersion {
		return false
	}
	return time.Since(entry.CheckedAt) < cacheTTL
}
