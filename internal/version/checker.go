package version

import (
	"context"
	"time"
)

// Update describes an available release
type Update struct {
	CurrentVersion string
	LatestVersion  string
	UpdateCommand  string
}

// CheckCached returns the available update, or nil when up to date, using
// the on-disk cache when it is fresh. Failed lookups are not cached.
func CheckCached(ctx context.Context, currentVersion string) (*Update, error) {
	if IsDevelopmentVersion(currentVersion) {
		return nil, nil
	}

	if cached, err := LoadCache(); err == nil && IsCacheValid(cached, currentVersion) {
		if cached.HasUpdate {
			return newUpdate(currentVersion, cached.LatestVersion), nil
		}
		return nil, nil
	}

	result := Check(ctx, currentVersion)
	if result.Error != nil {
		return nil, result.Error
	}

	_ = SaveCache(&CacheEntry{
		LatestVersion:  result.LatestVersion,
		CurrentVersion: currentVersion,
		CheckedAt:      time.Now(),
		HasUpdate:      result.HasUpdate,
	})

	if result.HasUpdate {
		return newUpdate(currentVersion, result.LatestVersion), nil
	}
	return nil, nil
}

func newUpdate(current, latest string) *Update {
	return &Update{
		CurrentVersion: current,
		LatestVersion:  latest,
		UpdateCommand:  UpdateCommand(latest),
	}
}
