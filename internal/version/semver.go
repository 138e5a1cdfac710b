package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonical normalises a tag for golang.org/x/mod/semver, which wants a
// leading "v". Invalid input yields "".
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// isNewer reports whether latest is a strictly higher version than current.
// Unparseable versions never count as newer.
func isNewer(latest, current string) bool {
	l, c := canonical(latest), canonical(current)
	if l == "" || c == "" {
		return false
	}
	return semver.Compare(l, c) > 0
}
