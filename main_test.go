package main

import (
	"runtime/debug"
	"testing"
)

func TestEffectiveVersionPrefersInjected(t *testing.T) {
	if got := effectiveVersion("v1.4.0"); got != "v1.4.0" {
		t.Errorf("effectiveVersion = %q", got)
	}
}

func TestVCSVersion(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"none", nil, ""},
		{"clean", []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}, "devel+0123456789ab"},
		{"dirty", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc"},
			{Key: "vcs.modified", Value: "true"},
		}, "devel+abc+dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vcsVersion(tt.settings); got != tt.want {
				t.Errorf("vcsVersion = %q, want %q", got, tt.want)
			}
		})
	}
}
