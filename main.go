package main

import (
	"runtime/debug"
	"strings"

	"github.com/marcus/autodoist/cmd"
)

// Version is injected by release builds with -ldflags "-X main.Version=...".
var Version = "dev"

// effectiveVersion prefers the injected version, then the module version of
// a `go install pkg@vX.Y.Z` build, then devel+<rev>[+dirty] from VCS info.
func effectiveVersion(v string) string {
	if v != "" && v != "dev" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	if dev := vcsVersion(info.Settings); dev != "" {
		return dev
	}
	return v
}

func vcsVersion(settings []debug.BuildSetting) string {
	var rev string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	parts := []string{"devel", rev}
	if dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "+")
}

func main() {
	cmd.SetVersion(effectiveVersion(Version))
	cmd.Execute()
}
