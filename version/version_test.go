package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.25.0",
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
			},
		}, true
	}

	info := fromBuildInfo(Info{Version: "1.2.0"}, read)
	if info.GitCommit != "0123456" {
		t.Errorf("commit = %q", info.GitCommit)
	}
	if !info.Dirty || info.GoVersion != "go1.25.0" || info.BuildTime != "2026-03-01T10:00:00Z" {
		t.Errorf("info = %+v", info)
	}
	if got := info.Short(); got != "1.2.0-0123456-dirty" {
		t.Errorf("Short() = %q", got)
	}
	if got := info.String(); got != "voicevault-worker 1.2.0-0123456-dirty (built 2026-03-01T10:00:00Z) go1.25.0" {
		t.Errorf("String() = %q", got)
	}
}

func TestLdflagsWin(t *testing.T) {
	read := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}}}, true
	}
	info := fromBuildInfo(Info{Version: "1.0.0", GitCommit: "abc1234"}, read)
	if info.GitCommit != "abc1234" {
		t.Errorf("commit = %q", info.GitCommit)
	}
}

func TestNoBuildInfo(t *testing.T) {
	info := fromBuildInfo(Info{Version: "dev"}, func() (*debug.BuildInfo, bool) { return nil, false })
	if info.Short() != "dev" {
		t.Errorf("Short() = %q", info.Short())
	}
	if info.Fields()["version"] != "dev" {
		t.Errorf("fields = %v", info.Fields())
	}
}

func TestGet(t *testing.T) {
	if Get().Version != Version {
		t.Error("Get should report the ldflags version")
	}
}
