// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stamp(t *testing.T, commit, dirty, built, version string) {
	t.Helper()
	savedCommit, savedDirty, savedTime, savedVersion := GitCommit, GitDirty, BuildTime, Version
	savedRead := readBuildInfo
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = savedCommit, savedDirty, savedTime, savedVersion
		readBuildInfo = savedRead
	})
	GitCommit, GitDirty, BuildTime, Version = commit, dirty, built, version
}

func TestInfoStamped(t *testing.T) {
	stamp(t, "abc1234", "true", "2026-10-19T00:00:00Z", "1.2.0")
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		t.Error("build info read although the commit was stamped")
		return nil, false
	}

	want := "1.2.0 (abc1234-dirty, 2026-10-19T00:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if got := Info(); strings.Contains(got, "dirty") {
		t.Errorf("Info() = %q, want no dirty marker", got)
	}
	if !strings.HasPrefix(Full(), Info()+"\n  Go: ") {
		t.Errorf("Full() = %q", Full())
	}
}

func TestInfoFromBuildInfo(t *testing.T) {
	stamp(t, "unknown", "false", "unknown", "0.1.0-dev")

	tests := []struct {
		name     string
		settings []debug.BuildSetting
		ok       bool
		want     string
	}{
		{
			name: "vcs settings",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123456789abcdef01234567"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			},
			ok:   true,
			want: "0.1.0-dev (0123456789ab-dirty, 2026-10-01T12:00:00Z)",
		},
		{
			name: "no vcs settings",
			ok:   true,
			want: "0.1.0-dev (unknown, unknown)",
		},
		{
			name: "no build info",
			ok:   false,
			want: "0.1.0-dev (unknown, unknown)",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Settings: test.settings}, test.ok
			}
			if got := Info(); got != test.want {
				t.Errorf("Info() = %q, want %q", got, test.want)
			}
		})
	}
}
